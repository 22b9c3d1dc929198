package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeSub     = "SUB"
	TypeUnsub   = "UNSUB"
	TypeTrace   = "TRACE"
	TypeError   = "ERROR"
)

// Debug channels a client may subscribe to.
const (
	ChannelDebug   = "debug"
	ChannelIODebug = "iodebug"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Kinds           []string `json:"kinds"`
}

// SubMsg subscribes the session to one circuit's debug or iodebug channel.
type SubMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CircuitID       int    `json:"circuit_id"`
	Channel         string `json:"channel"`
}

type UnsubMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CircuitID       int    `json:"circuit_id"`
	Channel         string `json:"channel"`
}

type TraceMsg struct {
	Type      string `json:"type"`
	CircuitID int    `json:"circuit_id"`
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Tick      uint64 `json:"tick"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
