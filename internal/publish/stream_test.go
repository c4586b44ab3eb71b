package publish

import (
	"context"
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	evt := NoticeEvent{MeetingID: "m1", Verdict: "compliant", Timestamp: time.Now().UTC()}
	s.Publish(evt)

	select {
	case got := <-ch:
		if got.MeetingID != "m1" || got.Verdict != "compliant" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Subscribe(ctx) // never drained
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Publish(NoticeEvent{MeetingID: "m"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // closed as expected
			}
		case <-deadline:
			t.Fatal("channel was not closed after cancel")
		}
	}
}
