package circuit

// Wireless is the broadcast registry transmitter/receiver kinds talk
// through. One instance is owned by the registry; nothing here is global,
// so two engines in one process never cross-talk.
type Wireless struct {
	channels map[string][]WirelessReceiver
}

type WirelessReceiver interface {
	Receive(bits Bits)
}

func NewWireless() *Wireless {
	return &Wireless{channels: map[string][]WirelessReceiver{}}
}

func (w *Wireless) Subscribe(channel string, r WirelessReceiver) {
	w.channels[channel] = append(w.channels[channel], r)
}

func (w *Wireless) Unsubscribe(channel string, r WirelessReceiver) {
	list := w.channels[channel]
	for i, e := range list {
		if e == r {
			w.channels[channel] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (w *Wireless) Broadcast(channel string, bits Bits) {
	for _, r := range w.channels[channel] {
		r.Receive(bits.Clone())
	}
}
