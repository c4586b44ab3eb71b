package meeting

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicgov.org/internal/notice"
)

func TestScheduleMeetingComputesPendingCompliance(t *testing.T) {
	f := newFixture(t)
	m := f.schedule(t)

	if m.Status != StatusPlanned {
		t.Fatalf("new meeting must be planned, got %s", m.Status)
	}
	if m.Compliance.State != notice.VerdictUnknown {
		t.Fatalf("compliance before posting must be unknown, got %s", m.Compliance.State)
	}
	if m.Compliance.RequiredBy == nil {
		t.Fatal("notice deadline must be computed at scheduling time")
	}
	// Thursday 15:00 start minus 48 business hours is Tuesday 15:00.
	want := time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)
	if !m.Compliance.RequiredBy.Equal(want) {
		t.Fatalf("required-by = %v, want %v", m.Compliance.RequiredBy, want)
	}
}

func TestMarkNoticePostedAdvancesPlannedToNoticed(t *testing.T) {
	f := newFixture(t)
	m := f.schedule(t)

	// Monday 09:00 posting against a Thursday 15:00 start is timely.
	m, err := f.svc.MarkNoticePosted(context.Background(), m.ID, NoticeInput{
		TenantID: testTenant,
		PostedBy: "clerk",
		Methods:  []string{"website"},
	})
	if err != nil {
		t.Fatalf("mark notice posted: %v", err)
	}
	if m.Status != StatusNoticed {
		t.Fatalf("expected noticed, got %s", m.Status)
	}
	if m.Compliance.State != notice.VerdictCompliant {
		t.Fatalf("expected compliant, got %s (%s)", m.Compliance.State, m.Compliance.Explanation)
	}
	if len(m.Notices) != 1 {
		t.Fatalf("expected one notice record, got %d", len(m.Notices))
	}
}

func TestLateSecondNoticeKeepsFirstVerdict(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)

	// A second posting the evening before the meeting is late, and becomes
	// the current compliance status, but the first record keeps its verdict.
	f.clock.Set(time.Date(2026, time.March, 4, 20, 0, 0, 0, time.UTC))
	m, err := f.svc.MarkNoticePosted(context.Background(), m.ID, NoticeInput{
		TenantID: testTenant,
		PostedBy: "clerk",
		Methods:  []string{"newspaper"},
	})
	if err != nil {
		t.Fatalf("second notice: %v", err)
	}
	if len(m.Notices) != 2 {
		t.Fatalf("expected two notice records, got %d", len(m.Notices))
	}
	if m.Notices[0].Evaluation.Verdict != notice.VerdictCompliant {
		t.Fatalf("first record's verdict was rewritten: %s", m.Notices[0].Evaluation.Verdict)
	}
	if m.Notices[1].Evaluation.Verdict != notice.VerdictLate {
		t.Fatalf("second record should be late, got %s", m.Notices[1].Evaluation.Verdict)
	}
	if m.Compliance.State != notice.VerdictLate {
		t.Fatalf("current compliance follows the latest posting, got %s", m.Compliance.State)
	}
}

func TestEmergencyMeetingNoticeAlwaysCompliant(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.ScheduleMeeting(context.Background(), ScheduleMeetingInput{
		TenantID:       testTenant,
		BodyID:         f.body.ID,
		Kind:           KindEmergency,
		Title:          "Emergency Session: Water Main Failure",
		ScheduledStart: f.clock.Now().Add(2 * time.Hour),
		CreatedBy:      "clerk",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	m, err = f.svc.MarkNoticePosted(context.Background(), m.ID, NoticeInput{
		TenantID: testTenant,
		PostedBy: "clerk",
		Methods:  []string{"website"},
	})
	if err != nil {
		t.Fatalf("notice: %v", err)
	}
	if m.Compliance.State != notice.VerdictCompliant {
		t.Fatalf("emergency notice must be compliant, got %s", m.Compliance.State)
	}
}

func TestLifecycleEdges(t *testing.T) {
	type step func(f *fixture, id string) error
	start := func(f *fixture, id string) error {
		_, err := f.svc.StartMeeting(context.Background(), testTenant, id)
		return err
	}
	recess := func(f *fixture, id string) error {
		_, err := f.svc.RecessMeeting(context.Background(), testTenant, id)
		return err
	}
	resume := func(f *fixture, id string) error {
		_, err := f.svc.ResumeMeeting(context.Background(), testTenant, id)
		return err
	}
	adjourn := func(f *fixture, id string) error {
		_, err := f.svc.AdjournMeeting(context.Background(), testTenant, id)
		return err
	}

	cases := []struct {
		name    string
		prepare func(f *fixture, t *testing.T) string
		op      step
		wantErr error
	}{
		{"start from planned fails", func(f *fixture, t *testing.T) string { return f.schedule(t).ID }, start, ErrInvalidTransition},
		{"adjourn from planned fails", func(f *fixture, t *testing.T) string { return f.schedule(t).ID }, adjourn, ErrInvalidTransition},
		{"recess from noticed fails", func(f *fixture, t *testing.T) string { return f.noticed(t).ID }, recess, ErrInvalidTransition},
		{"resume from in_session fails", func(f *fixture, t *testing.T) string { return f.inSession(t).ID }, resume, ErrInvalidTransition},
		{"start from noticed succeeds", func(f *fixture, t *testing.T) string { return f.noticed(t).ID }, start, nil},
		{"adjourn from noticed succeeds", func(f *fixture, t *testing.T) string { return f.noticed(t).ID }, adjourn, nil},
		{"recess then resume succeeds", func(f *fixture, t *testing.T) string {
			m := f.inSession(t)
			if _, err := f.svc.RecessMeeting(context.Background(), testTenant, m.ID); err != nil {
				t.Fatalf("recess: %v", err)
			}
			return m.ID
		}, resume, nil},
		{"adjourn from in_session succeeds", func(f *fixture, t *testing.T) string { return f.inSession(t).ID }, adjourn, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			id := tc.prepare(f, t)
			err := tc.op(f, id)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTransitionsOnTerminalMeeting(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)
	if _, err := f.svc.AdjournMeeting(context.Background(), testTenant, m.ID); err != nil {
		t.Fatalf("adjourn: %v", err)
	}

	if _, err := f.svc.StartMeeting(context.Background(), testTenant, m.ID); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("start on adjourned: expected ErrAlreadyTerminal, got %v", err)
	}
	if _, err := f.svc.MarkNoticePosted(context.Background(), m.ID, NoticeInput{
		TenantID: testTenant, PostedBy: "clerk", Methods: []string{"website"},
	}); !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("notice on adjourned: expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestCancelMeetingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)

	first, err := f.svc.CancelMeeting(context.Background(), testTenant, m.ID, "mayor", "venue unavailable")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if first.Status != StatusCancelled || first.CancelledAt == nil {
		t.Fatalf("cancel did not stamp state: %+v", first)
	}

	f.clock.Advance(2 * time.Hour)
	second, err := f.svc.CancelMeeting(context.Background(), testTenant, m.ID, "someone-else", "other reason")
	if err != nil {
		t.Fatalf("second cancel must be a no-op, got %v", err)
	}
	if !second.CancelledAt.Equal(*first.CancelledAt) {
		t.Fatalf("second cancel mutated timestamp: %v vs %v", second.CancelledAt, first.CancelledAt)
	}
	if second.CancelledBy != first.CancelledBy || second.CancelReason != first.CancelReason {
		t.Fatalf("second cancel mutated audit fields: %+v", second)
	}
}

func TestCancelAdjournedMeetingFails(t *testing.T) {
	f := newFixture(t)
	m := f.noticed(t)
	if _, err := f.svc.AdjournMeeting(context.Background(), testTenant, m.ID); err != nil {
		t.Fatalf("adjourn: %v", err)
	}
	if _, err := f.svc.CancelMeeting(context.Background(), testTenant, m.ID, "mayor", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBodyLeadHourOverride(t *testing.T) {
	f := newFixture(t)
	body, err := f.svc.CreateBody(context.Background(), CreateBodyInput{
		TenantID:        testTenant,
		Name:            "Planning Commission",
		Members:         []Member{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}},
		NoticeLeadHours: 72,
	})
	if err != nil {
		t.Fatalf("create body: %v", err)
	}
	m, err := f.svc.ScheduleMeeting(context.Background(), ScheduleMeetingInput{
		TenantID:       testTenant,
		BodyID:         body.ID,
		Kind:           KindRegular,
		Title:          "Zoning Review",
		ScheduledStart: time.Date(2026, time.March, 6, 15, 0, 0, 0, time.UTC), // Friday
		CreatedBy:      "clerk",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	// 72 business hours before Friday 15:00 is Tuesday 15:00.
	want := time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)
	if !m.Compliance.RequiredBy.Equal(want) {
		t.Fatalf("required-by = %v, want %v", m.Compliance.RequiredBy, want)
	}
}
