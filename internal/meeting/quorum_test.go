package meeting

import (
	"context"
	"errors"
	"testing"
)

func (f *fixture) present(t *testing.T, meetingID string, members ...string) {
	t.Helper()
	for _, id := range members {
		if _, err := f.svc.RecordAttendance(context.Background(), testTenant, meetingID, id, true); err != nil {
			t.Fatalf("attendance %s: %v", id, err)
		}
	}
}

func (f *fixture) recuse(t *testing.T, meetingID, memberID, agendaItemID string) {
	t.Helper()
	_, err := f.svc.RecordRecusal(context.Background(), meetingID, RecusalInput{
		TenantID:     testTenant,
		MemberID:     memberID,
		AgendaItemID: agendaItemID,
		Reason:       "financial interest",
		Citation:     "Ethics Code 2-104(b)",
	})
	if err != nil {
		t.Fatalf("recusal %s: %v", memberID, err)
	}
}

func TestQuorumRecusedMembersShrinkTheDenominator(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)

	// Five seats, two recused meeting-wide: three eligible, majority is two.
	f.recuse(t, m.ID, "m4", "")
	f.recuse(t, m.ID, "m5", "")
	f.present(t, m.ID, "m1", "m2")

	res, err := f.svc.CalculateQuorum(context.Background(), testTenant, m.ID, "")
	if err != nil {
		t.Fatalf("quorum: %v", err)
	}
	if res.RosterSize != 5 || res.EligibleCount != 3 || res.RecusedCount != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.RequiredCount != 2 {
		t.Fatalf("majority of 3 is 2, got %d", res.RequiredCount)
	}
	if res.PresentCount != 2 || !res.HasQuorum {
		t.Fatalf("two of three present must be quorate: %+v", res)
	}
}

func TestQuorumWithoutRecusalsNeedsThreeOfFive(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	f.present(t, m.ID, "m1", "m2")

	res, err := f.svc.CalculateQuorum(context.Background(), testTenant, m.ID, "")
	if err != nil {
		t.Fatalf("quorum: %v", err)
	}
	if res.RequiredCount != 3 || res.HasQuorum {
		t.Fatalf("two of five must not be quorate: %+v", res)
	}
}

func TestQuorumItemScopedRecusalOnlyBitesOnThatItem(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()

	f.recuse(t, m.ID, "m3", "item-7")
	f.present(t, m.ID, "m1", "m2", "m3")

	general, err := f.svc.CalculateQuorum(ctx, testTenant, m.ID, "")
	if err != nil {
		t.Fatalf("general quorum: %v", err)
	}
	if general.RecusedCount != 0 || general.PresentCount != 3 || !general.HasQuorum {
		t.Fatalf("item-scoped recusal leaked into the meeting scope: %+v", general)
	}

	scoped, err := f.svc.CalculateQuorum(ctx, testTenant, m.ID, "item-7")
	if err != nil {
		t.Fatalf("scoped quorum: %v", err)
	}
	if scoped.RecusedCount != 1 || scoped.EligibleCount != 4 || scoped.PresentCount != 2 {
		t.Fatalf("unexpected scoped counts: %+v", scoped)
	}
	// Majority of 4 is 3; only 2 non-recused members are present.
	if scoped.RequiredCount != 3 || scoped.HasQuorum {
		t.Fatalf("item-7 must lack quorum: %+v", scoped)
	}
}

func TestQuorumHonorsBodyThreshold(t *testing.T) {
	f := newFixture(t)
	body, err := f.svc.CreateBody(context.Background(), CreateBodyInput{
		TenantID:        testTenant,
		Name:            "Charter Review Board",
		Members:         []Member{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}, {ID: "c4"}, {ID: "c5"}},
		QuorumThreshold: 4,
	})
	if err != nil {
		t.Fatalf("create body: %v", err)
	}
	m, err := f.svc.ScheduleMeeting(context.Background(), ScheduleMeetingInput{
		TenantID:       testTenant,
		BodyID:         body.ID,
		Kind:           KindSpecial,
		Title:          "Charter Amendments",
		ScheduledStart: f.clock.Now().AddDate(0, 0, 14),
		CreatedBy:      "clerk",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	f.present(t, m.ID, "c1", "c2", "c3")

	res, err := f.svc.CalculateQuorum(context.Background(), testTenant, m.ID, "")
	if err != nil {
		t.Fatalf("quorum: %v", err)
	}
	if res.RequiredCount != 4 || res.HasQuorum {
		t.Fatalf("configured threshold of 4 must bind: %+v", res)
	}
}

func TestAttendanceUpsertsByMember(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	ctx := context.Background()

	f.present(t, m.ID, "m1")
	if _, err := f.svc.RecordAttendance(ctx, testTenant, m.ID, "m1", false); err != nil {
		t.Fatalf("flip attendance: %v", err)
	}

	res, err := f.svc.CalculateQuorum(ctx, testTenant, m.ID, "")
	if err != nil {
		t.Fatalf("quorum: %v", err)
	}
	if res.PresentCount != 0 {
		t.Fatalf("latest attendance record must win, got %d present", res.PresentCount)
	}
}

func TestRecusalRequiresRosterMember(t *testing.T) {
	f := newFixture(t)
	m := f.inSession(t)
	_, err := f.svc.RecordRecusal(context.Background(), m.ID, RecusalInput{
		TenantID: testTenant,
		MemberID: "stranger",
		Reason:   "conflict",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for off-roster member, got %v", err)
	}
}
