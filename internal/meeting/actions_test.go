package meeting

import (
	"context"
	"errors"
	"testing"
)

func (f *fixture) motion(t *testing.T, meetingID string) *Action {
	t.Helper()
	a, err := f.svc.CreateAction(context.Background(), meetingID, ActionInput{
		TenantID: testTenant,
		Kind:     ActionMotion,
		Title:    "Approve the consent agenda",
		MovedBy:  "m1",
	})
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	return a
}

func (f *fixture) secondedMotion(t *testing.T, meetingID string) *Action {
	t.Helper()
	a := f.motion(t, meetingID)
	a, err := f.svc.SecondAction(context.Background(), testTenant, meetingID, a.ID, "m2")
	if err != nil {
		t.Fatalf("second action: %v", err)
	}
	return a
}

func TestVoteRequiresASecond(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	a := f.motion(t, m.ID)

	_, err := f.svc.RecordVote(context.Background(), testTenant, m.ID, a.ID, "m3", VoteYea)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unseconded motion, got %v", err)
	}
}

func TestSecondActionRules(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.motion(t, m.ID)

	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "m1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("mover seconding own motion: expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "stranger"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("off-roster seconder: expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "m2"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "m3"); !errors.Is(err, ErrAlreadySeconded) {
		t.Fatalf("double second: expected ErrAlreadySeconded, got %v", err)
	}
}

func TestVoteBlockedWhileExecutiveSessionActive(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.secondedMotion(t, m.ID)

	es := f.session(t, m.ID)
	if _, err := f.svc.EnterSession(ctx, testTenant, m.ID, es.ID, "Closing under the litigation exemption.", nil); err != nil {
		t.Fatalf("enter session: %v", err)
	}

	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m3", VoteYea); !errors.Is(err, ErrVoteBlocked) {
		t.Fatalf("expected ErrVoteBlocked during active session, got %v", err)
	}
	if _, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, ""); !errors.Is(err, ErrVoteBlocked) {
		t.Fatalf("expected ErrVoteBlocked for close during active session, got %v", err)
	}

	if _, err := f.svc.EndSession(ctx, testTenant, m.ID, es.ID, "Returned to open session."); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m3", VoteYea); err != nil {
		t.Fatalf("vote after session ended: %v", err)
	}
}

func TestRecusedMemberCannotVote(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.secondedMotion(t, m.ID)

	f.recuse(t, m.ID, "m4", "")
	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m4", VoteYea); !errors.Is(err, ErrRecusedMember) {
		t.Fatalf("expected ErrRecusedMember, got %v", err)
	}
}

func TestItemScopedRecusalDoesNotBlockOtherItems(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()

	f.recuse(t, m.ID, "m4", "item-7")
	a, err := f.svc.CreateAction(ctx, m.ID, ActionInput{
		TenantID:     testTenant,
		AgendaItemID: "item-9",
		Kind:         ActionResolution,
		Title:        "Adopt the capital budget",
		MovedBy:      "m1",
	})
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "m2"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m4", VoteYea); err != nil {
		t.Fatalf("item-9 vote by member recused only on item-7: %v", err)
	}
}

func TestVoteUpsertsAndTallyDecidesOutcome(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.secondedMotion(t, m.ID)

	for member, v := range map[string]VoteValue{
		"m1": VoteYea, "m2": VoteYea, "m3": VoteNay, "m4": VoteAbstain,
	} {
		if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, member, v); err != nil {
			t.Fatalf("vote %s: %v", member, err)
		}
	}
	// m3 changes their mind before the close.
	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m3", VoteYea); err != nil {
		t.Fatalf("revote: %v", err)
	}

	closed, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Result != ResultAdopted {
		t.Fatalf("3 yea / 0 nay must adopt, got %s", closed.Result)
	}
	if closed.Tally == nil || closed.Tally.Yea != 3 || closed.Tally.Nay != 0 || closed.Tally.Abstain != 1 {
		t.Fatalf("unexpected tally: %+v", closed.Tally)
	}
	if len(closed.Votes) != 4 {
		t.Fatalf("revote must not add a record, got %d votes", len(closed.Votes))
	}
}

func TestTieFailsByDefault(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.secondedMotion(t, m.ID)

	for member, v := range map[string]VoteValue{"m1": VoteYea, "m2": VoteNay} {
		if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, member, v); err != nil {
			t.Fatalf("vote %s: %v", member, err)
		}
	}
	closed, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Result != ResultFailed {
		t.Fatalf("a tie must fail, got %s", closed.Result)
	}
}

func TestCloseVotingDispositions(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()
	a := f.secondedMotion(t, m.ID)

	if _, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, ResultAdopted); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("adopted is not a caller-supplied disposition: got %v", err)
	}
	tabled, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, ResultTabled)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if tabled.Result != ResultTabled || tabled.ClosedAt == nil {
		t.Fatalf("tabling not stamped: %+v", tabled)
	}

	if _, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, ""); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("closing a resolved action: expected ErrAlreadyTerminal, got %v", err)
	}
	if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, "m3", VoteYea); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("voting on a resolved action: expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestCreateActionOnCancelledMeetingFails(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)
	ctx := context.Background()
	if _, err := f.svc.CancelMeeting(ctx, testTenant, m.ID, "mayor", "weather"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.svc.CreateAction(ctx, m.ID, ActionInput{
		TenantID: testTenant,
		Kind:     ActionMotion,
		Title:    "anything",
		MovedBy:  "m1",
	})
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestPassThresholdBinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body, err := f.svc.CreateBody(ctx, CreateBodyInput{
		TenantID:      testTenant,
		Name:          "Bond Authority",
		Members:       []Member{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}, {ID: "b4"}, {ID: "b5"}},
		PassThreshold: 4,
	})
	if err != nil {
		t.Fatalf("create body: %v", err)
	}
	m, err := f.svc.ScheduleMeeting(ctx, ScheduleMeetingInput{
		TenantID:       testTenant,
		BodyID:         body.ID,
		Kind:           KindRegular,
		Title:          "Bond Issuance",
		ScheduledStart: f.clock.Now().AddDate(0, 0, 14),
		CreatedBy:      "clerk",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	a, err := f.svc.CreateAction(ctx, m.ID, ActionInput{
		TenantID: testTenant,
		Kind:     ActionOrdinance,
		Title:    "Issue series 2026-A bonds",
		MovedBy:  "b1",
	})
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	if _, err := f.svc.SecondAction(ctx, testTenant, m.ID, a.ID, "b2"); err != nil {
		t.Fatalf("second: %v", err)
	}
	for _, member := range []string{"b1", "b2", "b3"} {
		if _, err := f.svc.RecordVote(ctx, testTenant, m.ID, a.ID, member, VoteYea); err != nil {
			t.Fatalf("vote %s: %v", member, err)
		}
	}
	closed, err := f.svc.CloseVoting(ctx, testTenant, m.ID, a.ID, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	// 3 yea against a supermajority requirement of 4.
	if closed.Result != ResultFailed {
		t.Fatalf("expected failed under threshold 4, got %s", closed.Result)
	}
}
