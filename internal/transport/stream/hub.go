package stream

import (
	"encoding/json"
	"sync"

	"github.com/klauspost/compress/zstd"

	"cells/internal/streamproto"
)

// encoded holds one frame in every encoding requested so far.
type encoded struct {
	json []byte
	zstd []byte
}

type subscriber struct {
	encoding string
	out      chan []byte
}

// Hub fans frames out to websocket subscribers. Subscribers that fall
// behind miss frames instead of stalling the simulation.
type Hub struct {
	enc *zstd.Encoder

	mu   sync.Mutex
	subs map[string]*subscriber
	last *encoded
}

// NewHub returns an empty hub.
func NewHub() (*Hub, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Hub{enc: enc, subs: make(map[string]*subscriber)}, nil
}

// Publish encodes a frame once per encoding in use and queues it for every
// subscriber.
func (h *Hub) Publish(frame streamproto.FrameMsg) error {
	frame.Type = "FRAME"
	frame.ProtocolVersion = streamproto.Version
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	e := &encoded{json: b}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = e
	for _, s := range h.subs {
		h.offer(s, e)
	}
	return nil
}

// offer queues e for s without blocking. Callers hold h.mu.
func (h *Hub) offer(s *subscriber, e *encoded) {
	msg := e.json
	if s.encoding == streamproto.EncodingZstd {
		if e.zstd == nil {
			e.zstd = h.enc.EncodeAll(e.json, nil)
		}
		msg = e.zstd
	}
	select {
	case s.out <- msg:
	default:
	}
}

// subscribe registers id and immediately queues the latest frame, if any.
func (h *Hub) subscribe(id, encoding string, buffer int) <-chan []byte {
	s := &subscriber{encoding: encoding, out: make(chan []byte, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[id] = s
	if h.last != nil {
		h.offer(s, h.last)
	}
	return s.out
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Subscribers reports the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases the encoder.
func (h *Hub) Close() error {
	return h.enc.Close()
}
