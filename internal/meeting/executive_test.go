package meeting

import (
	"context"
	"errors"
	"testing"
)

func (f *fixture) session(t *testing.T, meetingID string) *ExecutiveSession {
	t.Helper()
	es, err := f.svc.CreateSession(context.Background(), meetingID, SessionInput{
		TenantID: testTenant,
		Basis:    "litigation",
		Subject:  "Pending claim against the city",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return es
}

func TestCreateSessionRejectsUnknownBasis(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)

	_, err := f.svc.CreateSession(context.Background(), m.ID, SessionInput{
		TenantID: testTenant,
		Basis:    "gossip",
		Subject:  "anything",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-statutory basis, got %v", err)
	}
}

func TestOnlyOneSessionActivePerMeeting(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()

	first := f.session(t, m.ID)
	second := f.session(t, m.ID)

	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, first.ID, "Closing under the litigation exemption.", []string{"m1", "m2", "m3"}); err != nil {
		t.Fatalf("enter first: %v", err)
	}
	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, second.ID, "Closing again.", nil); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	// Ending the first frees the slot.
	if _, err := f.svc.EndSession(ctx, testTenant, m.ID, first.ID, "Returned to open session, no action taken."); err != nil {
		t.Fatalf("end first: %v", err)
	}
	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, second.ID, "Closing under the litigation exemption.", nil); err != nil {
		t.Fatalf("enter second after first ended: %v", err)
	}
}

func TestCertifyRequiresEndedSession(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	es := f.session(t, m.ID)

	if _, err := f.svc.CertifySession(ctx, testTenant, m.ID, es.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("certify scheduled: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, es.ID, "Closing.", nil); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, err := f.svc.CertifySession(ctx, testTenant, m.ID, es.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("certify active: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.EndSession(ctx, testTenant, m.ID, es.ID, "Reopened."); err != nil {
		t.Fatalf("end: %v", err)
	}
	got, err := f.svc.CertifySession(ctx, testTenant, m.ID, es.ID)
	if err != nil {
		t.Fatalf("certify ended: %v", err)
	}
	if got.Status != SessionCertified || got.CertifiedAt == nil {
		t.Fatalf("certification not stamped: %+v", got)
	}
}

func TestCancelSessionOnlyFromScheduled(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()

	es := f.session(t, m.ID)
	cancelled, err := f.svc.CancelSession(ctx, testTenant, m.ID, es.ID)
	if err != nil {
		t.Fatalf("cancel scheduled: %v", err)
	}
	if cancelled.Status != SessionCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	active := f.session(t, m.ID)
	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, active.ID, "Closing.", nil); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if _, err := f.svc.CancelSession(ctx, testTenant, m.ID, active.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel active: expected ErrInvalidTransition, got %v", err)
	}
}

func TestSessionOnForeignMeetingIsNotFound(t *testing.T) {
	f := newFixture(t)
	m1 := f.inSession(t)
	m2 := f.noticed(t)
	es := f.session(t, m1.ID)

	if _, err := f.svc.EnterSession(context.Background(), testTenant, m2.ID, es.ID, "Closing.", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for session addressed via the wrong meeting, got %v", err)
	}
}

func TestCreateSessionOnCancelledMeetingFails(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)
	ctx := context.Background()
	if _, err := f.svc.CancelMeeting(ctx, testTenant, m.ID, "mayor", "weather"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.svc.CreateSession(ctx, m.ID, SessionInput{
		TenantID: testTenant,
		Basis:    "personnel",
		Subject:  "Annual review",
	})
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}
