package publish

import (
	"context"
	"sync"
	"time"
)

// NoticeEvent describes one act of posting public notice, fanned out to
// publication collaborators (website feed, physical-posting worklist).
type NoticeEvent struct {
	TenantID       string    `json:"tenant_id"`
	MeetingID      string    `json:"meeting_id"`
	BodyID         string    `json:"body_id"`
	MeetingTitle   string    `json:"meeting_title"`
	ScheduledStart time.Time `json:"scheduled_start"`
	PostedAt       time.Time `json:"posted_at"`
	Methods        []string  `json:"methods"`
	Verdict        string    `json:"verdict"`
	Timestamp      time.Time `json:"timestamp"`
}

// Stream fan-outs notice events to all active subscribers (SSE clients,
// outbound publication workers). Publication is fire-and-forget: slow
// subscribers miss events rather than blocking the engine.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan NoticeEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan NoticeEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan NoticeEvent {
	ch := make(chan NoticeEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt NoticeEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
