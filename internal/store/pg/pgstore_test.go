package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"civicgov.org/internal/meeting"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestBodySaveUpserts(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into bodies").
		WithArgs("b1", "springfield", "City Council", sqlmock.AnyArg(), 0, 0, 0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.Bodies(context.Background()).Save(context.Background(), &meeting.Body{
		ID:        "b1",
		TenantID:  "springfield",
		Name:      "City Council",
		Members:   []meeting.Member{{ID: "m1", Name: "Alvarez"}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("save body: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindMissingMeetingIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("select .* from meetings").
		WithArgs("springfield", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := st.Meetings(context.Background()).Find(context.Background(), "springfield", "nope")
	if !errors.Is(err, meeting.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMeetingRoundTripThroughJSONColumns(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC)

	cols := []string{"id", "tenant_id", "body_id", "kind", "status", "title", "location",
		"scheduled_start", "scheduled_end", "created_at", "created_by",
		"cancelled_at", "cancelled_by", "cancel_reason", "notices", "compliance", "extra"}
	notices := `[{"id":"n1","posted_at":"2026-03-02T09:00:00Z","posted_by":"clerk","methods":["website"],"evaluation":{"verdict":"compliant","required_by":"2026-03-03T15:00:00Z","posted_at":"2026-03-02T09:00:00Z","lead_hours":48}}]`
	compliance := `{"state":"compliant","required_by":"2026-03-03T15:00:00Z","posted_at":"2026-03-02T09:00:00Z"}`

	mock.ExpectQuery("select .* from meetings").
		WithArgs("springfield", "mtg1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"mtg1", "springfield", "b1", "regular", "noticed", "Regular Council Meeting", "Chambers",
			start, nil, now, "clerk",
			nil, "", "", []byte(notices), []byte(compliance), []byte(`{}`)))

	m, err := st.Meetings(ctx).Find(ctx, "springfield", "mtg1")
	if err != nil {
		t.Fatalf("find meeting: %v", err)
	}
	if m.Status != meeting.StatusNoticed {
		t.Fatalf("status = %s", m.Status)
	}
	if len(m.Notices) != 1 || m.Notices[0].Evaluation.LeadHours != 48 {
		t.Fatalf("notices not decoded: %+v", m.Notices)
	}
	if m.Compliance.RequiredBy == nil || !m.Compliance.RequiredBy.Equal(time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("compliance not decoded: %+v", m.Compliance)
	}
	if m.CancelledAt != nil {
		t.Fatalf("cancelled_at must map null to nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttendanceUpsertKeysOnMeetingAndMember(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into attendance").
		WithArgs("a1", "springfield", "mtg1", "m1", true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.Attendance(context.Background()).Save(context.Background(), &meeting.Attendance{
		ID: "a1", TenantID: "springfield", MeetingID: "mtg1", MemberID: "m1", Present: true, RecordedAt: now,
	})
	if err != nil {
		t.Fatalf("save attendance: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActionScanDecodesVotesAndTally(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	closed := now.Add(time.Hour)

	cols := []string{"id", "tenant_id", "meeting_id", "agenda_item_id", "kind", "title", "description",
		"moved_by", "seconded_by", "votes", "result", "tally", "created_at", "closed_at"}
	votes := `[{"member_id":"m1","value":"yea","cast_at":"2026-03-05T15:10:00Z"},{"member_id":"m2","value":"nay","cast_at":"2026-03-05T15:11:00Z"}]`
	tally := `{"yea":1,"nay":1,"abstain":0,"absent":0}`

	mock.ExpectQuery("select .* from actions").
		WithArgs("springfield", "act1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"act1", "springfield", "mtg1", "", "motion", "Approve the consent agenda", "",
			"m1", "m2", []byte(votes), "failed", []byte(tally), now, closed))

	a, err := st.Actions(ctx).Find(ctx, "springfield", "act1")
	if err != nil {
		t.Fatalf("find action: %v", err)
	}
	if len(a.Votes) != 2 || a.Votes[0].Value != meeting.VoteYea {
		t.Fatalf("votes not decoded: %+v", a.Votes)
	}
	if a.Tally == nil || a.Tally.Yea != 1 || a.Tally.Nay != 1 {
		t.Fatalf("tally not decoded: %+v", a.Tally)
	}
	if a.ClosedAt == nil {
		t.Fatalf("closed_at must be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMinutesFindMapsNoRows(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("select .* from minutes").
		WithArgs("springfield", "mtg1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := st.Minutes(context.Background()).FindByMeeting(context.Background(), "springfield", "mtg1")
	if !errors.Is(err, meeting.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
