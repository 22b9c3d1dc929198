// Package ws serves the debug-observer websocket: a client says HELLO, gets
// a WELCOME with its session id, then subscribes to circuit trace channels
// and receives TRACE messages as the simulation runs.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"redchips.ai/internal/protocol"
	"redchips.ai/internal/sim/circuit"
)

// Engine is the slice of the simulation the transport needs. Registry state
// must only be touched from closures passed to Post, which the server loop
// runs on the simulation goroutine.
type Engine interface {
	Post(fn func())
	Registry() *circuit.Registry
	KindNames() []string
	Tick() uint64
}

type Server struct {
	engine Engine
	log    *logrus.Logger

	upgrader websocket.Upgrader
}

func NewServer(engine Engine, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type subKey struct {
	circuitID int
	channel   string
}

// observer adapts one subscription to circuit.Observer. Send runs on the
// simulation goroutine and must never block, so a backed-up client drops
// messages instead of stalling the sim.
type observer struct {
	sessionID string
	circuitID int
	channel   string
	tick      func() uint64
	out       chan []byte
}

func (o *observer) ID() string { return o.sessionID }

func (o *observer) Send(msg string) {
	b, err := json.Marshal(protocol.TraceMsg{
		Type:      protocol.TypeTrace,
		CircuitID: o.circuitID,
		Channel:   o.channel,
		Text:      msg,
		Tick:      o.tick(),
	})
	if err != nil {
		return
	}
	select {
	case o.out <- b:
	default:
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		subs := map[subKey]*observer{}
		defer s.dropAll(sessionID, subs)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeSub:
				var sub protocol.SubMsg
				if err := json.Unmarshal(msg, &sub); err != nil {
					continue
				}
				s.subscribe(sessionID, sub, subs, out)
			case protocol.TypeUnsub:
				var unsub protocol.UnsubMsg
				if err := json.Unmarshal(msg, &unsub); err != nil {
					continue
				}
				s.unsubscribe(unsub, subs)
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, 64)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Kinds:           s.engine.KindNames(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return sessionID, out
}

func (s *Server) subscribe(sessionID string, sub protocol.SubMsg, subs map[subKey]*observer, out chan []byte) {
	if sub.Channel != protocol.ChannelDebug && sub.Channel != protocol.ChannelIODebug {
		return
	}
	key := subKey{circuitID: sub.CircuitID, channel: sub.Channel}
	if _, ok := subs[key]; ok {
		return
	}
	obs := &observer{
		sessionID: sessionID,
		circuitID: sub.CircuitID,
		channel:   sub.Channel,
		tick:      s.engine.Tick,
		out:       out,
	}
	// Track before posting; the closure runs on the sim goroutine and must
	// not touch this connection's map.
	subs[key] = obs
	s.engine.Post(func() {
		c := s.engine.Registry().Circuit(sub.CircuitID)
		if c == nil {
			s.sendError(out, "unknown_circuit", "no such circuit")
			return
		}
		var err error
		if sub.Channel == protocol.ChannelDebug {
			err = c.AddDebugger(obs)
		} else {
			err = c.AddIODebugger(obs)
		}
		if err != nil {
			s.sendError(out, "duplicate_subscription", err.Error())
		}
	})
}

func (s *Server) unsubscribe(unsub protocol.UnsubMsg, subs map[subKey]*observer) {
	key := subKey{circuitID: unsub.CircuitID, channel: unsub.Channel}
	obs, ok := subs[key]
	if !ok {
		return
	}
	delete(subs, key)
	s.engine.Post(func() {
		c := s.engine.Registry().Circuit(key.circuitID)
		if c == nil {
			return
		}
		if key.channel == protocol.ChannelDebug {
			c.RemoveDebugger(obs)
		} else {
			c.RemoveIODebugger(obs)
		}
	})
}

func (s *Server) dropAll(sessionID string, subs map[subKey]*observer) {
	taken := make(map[subKey]*observer, len(subs))
	for k, v := range subs {
		taken[k] = v
	}
	s.engine.Post(func() {
		reg := s.engine.Registry()
		for key, obs := range taken {
			if c := reg.Circuit(key.circuitID); c != nil {
				if key.channel == protocol.ChannelDebug {
					c.RemoveDebugger(obs)
				} else {
					c.RemoveIODebugger(obs)
				}
			}
		}
		reg.ResumeDebugger(sessionID)
	})
}

func (s *Server) sendError(out chan []byte, code, msg string) {
	b, err := json.Marshal(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: msg})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
