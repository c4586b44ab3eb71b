package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"civicgov.org/internal/meeting"
)

// Store persists the meeting engine's aggregates in Postgres. Scalar columns
// carry lookup keys and workflow state; nested documents (rosters, notice
// records, votes) live in jsonb.
type Store struct {
	db *sql.DB
}

var _ meeting.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle, used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Bodies(context.Context) meeting.BodyStore             { return bodyStore{s.db} }
func (s *Store) Meetings(context.Context) meeting.MeetingStore        { return meetingStore{s.db} }
func (s *Store) Sessions(context.Context) meeting.SessionStore        { return sessionStore{s.db} }
func (s *Store) Recusals(context.Context) meeting.RecusalStore        { return recusalStore{s.db} }
func (s *Store) Attendance(context.Context) meeting.AttendanceStore   { return attendanceStore{s.db} }
func (s *Store) Actions(context.Context) meeting.ActionStore          { return actionStore{s.db} }
func (s *Store) Minutes(context.Context) meeting.MinutesStore         { return minutesStore{s.db} }

// --- bodies ---

type bodyStore struct{ db *sql.DB }

func (st bodyStore) Save(ctx context.Context, b *meeting.Body) error {
	members, err := json.Marshal(b.Members)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx, `
		insert into bodies(id, tenant_id, name, members, quorum_threshold, pass_threshold, notice_lead_hours, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (id) do update set
			name = excluded.name,
			members = excluded.members,
			quorum_threshold = excluded.quorum_threshold,
			pass_threshold = excluded.pass_threshold,
			notice_lead_hours = excluded.notice_lead_hours,
			updated_at = excluded.updated_at
	`, b.ID, b.TenantID, b.Name, members, b.QuorumThreshold, b.PassThreshold, b.NoticeLeadHours, b.CreatedAt, b.UpdatedAt)
	return err
}

func (st bodyStore) Find(ctx context.Context, tenantID, id string) (*meeting.Body, error) {
	row := st.db.QueryRowContext(ctx, `
		select id, tenant_id, name, members, quorum_threshold, pass_threshold, notice_lead_hours, created_at, updated_at
		from bodies where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanBody(row)
}

func (st bodyStore) List(ctx context.Context, tenantID string) ([]*meeting.Body, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, name, members, quorum_threshold, pass_threshold, notice_lead_hours, created_at, updated_at
		from bodies where tenant_id=$1 order by id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.Body
	for rows.Next() {
		b, err := scanBody(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBody(r rowScanner) (*meeting.Body, error) {
	var b meeting.Body
	var members []byte
	err := r.Scan(&b.ID, &b.TenantID, &b.Name, &members, &b.QuorumThreshold, &b.PassThreshold, &b.NoticeLeadHours, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &b.Members); err != nil {
		return nil, err
	}
	return &b, nil
}

// --- meetings ---

type meetingStore struct{ db *sql.DB }

func (st meetingStore) Save(ctx context.Context, m *meeting.Meeting) error {
	notices, err := json.Marshal(m.Notices)
	if err != nil {
		return err
	}
	compliance, err := json.Marshal(m.Compliance)
	if err != nil {
		return err
	}
	extra, err := json.Marshal(m.Extra)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx, `
		insert into meetings(id, tenant_id, body_id, kind, status, title, location,
			scheduled_start, scheduled_end, created_at, created_by,
			cancelled_at, cancelled_by, cancel_reason, notices, compliance, extra)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		on conflict (id) do update set
			status = excluded.status,
			title = excluded.title,
			location = excluded.location,
			scheduled_start = excluded.scheduled_start,
			scheduled_end = excluded.scheduled_end,
			cancelled_at = excluded.cancelled_at,
			cancelled_by = excluded.cancelled_by,
			cancel_reason = excluded.cancel_reason,
			notices = excluded.notices,
			compliance = excluded.compliance,
			extra = excluded.extra
	`, m.ID, m.TenantID, m.BodyID, m.Kind, m.Status, m.Title, m.Location,
		m.ScheduledStart, nullTime(nonZero(m.ScheduledEnd)), m.CreatedAt, m.CreatedBy,
		nullTime(m.CancelledAt), m.CancelledBy, m.CancelReason, notices, compliance, extra)
	return err
}

func (st meetingStore) Find(ctx context.Context, tenantID, id string) (*meeting.Meeting, error) {
	row := st.db.QueryRowContext(ctx, `
		select id, tenant_id, body_id, kind, status, title, location,
			scheduled_start, scheduled_end, created_at, created_by,
			cancelled_at, cancelled_by, cancel_reason, notices, compliance, extra
		from meetings where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanMeeting(row)
}

func (st meetingStore) List(ctx context.Context, tenantID string) ([]*meeting.Meeting, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, body_id, kind, status, title, location,
			scheduled_start, scheduled_end, created_at, created_by,
			cancelled_at, cancelled_by, cancel_reason, notices, compliance, extra
		from meetings where tenant_id=$1 order by scheduled_start, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMeeting(r rowScanner) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var end, cancelled sql.NullTime
	var notices, compliance, extra []byte
	err := r.Scan(&m.ID, &m.TenantID, &m.BodyID, &m.Kind, &m.Status, &m.Title, &m.Location,
		&m.ScheduledStart, &end, &m.CreatedAt, &m.CreatedBy,
		&cancelled, &m.CancelledBy, &m.CancelReason, &notices, &compliance, &extra)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if end.Valid {
		m.ScheduledEnd = end.Time
	}
	if cancelled.Valid {
		t := cancelled.Time
		m.CancelledAt = &t
	}
	if err := json.Unmarshal(notices, &m.Notices); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(compliance, &m.Compliance); err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &m.Extra); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// --- executive sessions ---

type sessionStore struct{ db *sql.DB }

func (st sessionStore) Save(ctx context.Context, es *meeting.ExecutiveSession) error {
	attendees, err := json.Marshal(es.Attendees)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx, `
		insert into exec_sessions(id, tenant_id, meeting_id, agenda_item_id, basis, subject, status,
			entry_statement, attendees, exit_statement, created_at, entered_at, ended_at, certified_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		on conflict (id) do update set
			status = excluded.status,
			entry_statement = excluded.entry_statement,
			attendees = excluded.attendees,
			exit_statement = excluded.exit_statement,
			entered_at = excluded.entered_at,
			ended_at = excluded.ended_at,
			certified_at = excluded.certified_at
	`, es.ID, es.TenantID, es.MeetingID, es.AgendaItemID, es.Basis, es.Subject, es.Status,
		es.EntryStatement, attendees, es.ExitStatement, es.CreatedAt,
		nullTime(es.EnteredAt), nullTime(es.EndedAt), nullTime(es.CertifiedAt))
	return err
}

func (st sessionStore) Find(ctx context.Context, tenantID, id string) (*meeting.ExecutiveSession, error) {
	row := st.db.QueryRowContext(ctx, `
		select id, tenant_id, meeting_id, agenda_item_id, basis, subject, status,
			entry_statement, attendees, exit_statement, created_at, entered_at, ended_at, certified_at
		from exec_sessions where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanSession(row)
}

func (st sessionStore) ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*meeting.ExecutiveSession, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, meeting_id, agenda_item_id, basis, subject, status,
			entry_statement, attendees, exit_statement, created_at, entered_at, ended_at, certified_at
		from exec_sessions where tenant_id=$1 and meeting_id=$2 order by created_at, id
	`, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.ExecutiveSession
	for rows.Next() {
		es, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, es)
	}
	return out, rows.Err()
}

func scanSession(r rowScanner) (*meeting.ExecutiveSession, error) {
	var es meeting.ExecutiveSession
	var attendees []byte
	var entered, ended, certified sql.NullTime
	err := r.Scan(&es.ID, &es.TenantID, &es.MeetingID, &es.AgendaItemID, &es.Basis, &es.Subject, &es.Status,
		&es.EntryStatement, &attendees, &es.ExitStatement, &es.CreatedAt, &entered, &ended, &certified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attendees, &es.Attendees); err != nil {
		return nil, err
	}
	es.EnteredAt = timePtr(entered)
	es.EndedAt = timePtr(ended)
	es.CertifiedAt = timePtr(certified)
	return &es, nil
}

// --- recusals ---

type recusalStore struct{ db *sql.DB }

func (st recusalStore) Save(ctx context.Context, rec *meeting.Recusal) error {
	_, err := st.db.ExecContext(ctx, `
		insert into recusals(id, tenant_id, meeting_id, member_id, agenda_item_id, reason, citation, recorded_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (id) do nothing
	`, rec.ID, rec.TenantID, rec.MeetingID, rec.MemberID, rec.AgendaItemID, rec.Reason, rec.Citation, rec.RecordedAt)
	return err
}

func (st recusalStore) ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*meeting.Recusal, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, meeting_id, member_id, agenda_item_id, reason, citation, recorded_at
		from recusals where tenant_id=$1 and meeting_id=$2 order by recorded_at, id
	`, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.Recusal
	for rows.Next() {
		var rec meeting.Recusal
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.MeetingID, &rec.MemberID, &rec.AgendaItemID, &rec.Reason, &rec.Citation, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// --- attendance ---

type attendanceStore struct{ db *sql.DB }

func (st attendanceStore) Save(ctx context.Context, a *meeting.Attendance) error {
	_, err := st.db.ExecContext(ctx, `
		insert into attendance(id, tenant_id, meeting_id, member_id, present, recorded_at)
		values ($1,$2,$3,$4,$5,$6)
		on conflict (tenant_id, meeting_id, member_id) do update set
			present = excluded.present,
			recorded_at = excluded.recorded_at
	`, a.ID, a.TenantID, a.MeetingID, a.MemberID, a.Present, a.RecordedAt)
	return err
}

func (st attendanceStore) ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*meeting.Attendance, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, meeting_id, member_id, present, recorded_at
		from attendance where tenant_id=$1 and meeting_id=$2 order by member_id
	`, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.Attendance
	for rows.Next() {
		var a meeting.Attendance
		if err := rows.Scan(&a.ID, &a.TenantID, &a.MeetingID, &a.MemberID, &a.Present, &a.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// --- actions ---

type actionStore struct{ db *sql.DB }

func (st actionStore) Save(ctx context.Context, a *meeting.Action) error {
	votes, err := json.Marshal(a.Votes)
	if err != nil {
		return err
	}
	tally, err := json.Marshal(a.Tally)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx, `
		insert into actions(id, tenant_id, meeting_id, agenda_item_id, kind, title, description,
			moved_by, seconded_by, votes, result, tally, created_at, closed_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		on conflict (id) do update set
			seconded_by = excluded.seconded_by,
			votes = excluded.votes,
			result = excluded.result,
			tally = excluded.tally,
			closed_at = excluded.closed_at
	`, a.ID, a.TenantID, a.MeetingID, a.AgendaItemID, a.Kind, a.Title, a.Description,
		a.MovedBy, a.SecondedBy, votes, a.Result, tally, a.CreatedAt, nullTime(a.ClosedAt))
	return err
}

func (st actionStore) Find(ctx context.Context, tenantID, id string) (*meeting.Action, error) {
	row := st.db.QueryRowContext(ctx, `
		select id, tenant_id, meeting_id, agenda_item_id, kind, title, description,
			moved_by, seconded_by, votes, result, tally, created_at, closed_at
		from actions where tenant_id=$1 and id=$2
	`, tenantID, id)
	return scanAction(row)
}

func (st actionStore) ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*meeting.Action, error) {
	rows, err := st.db.QueryContext(ctx, `
		select id, tenant_id, meeting_id, agenda_item_id, kind, title, description,
			moved_by, seconded_by, votes, result, tally, created_at, closed_at
		from actions where tenant_id=$1 and meeting_id=$2 order by created_at, id
	`, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*meeting.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAction(r rowScanner) (*meeting.Action, error) {
	var a meeting.Action
	var votes, tally []byte
	var closed sql.NullTime
	err := r.Scan(&a.ID, &a.TenantID, &a.MeetingID, &a.AgendaItemID, &a.Kind, &a.Title, &a.Description,
		&a.MovedBy, &a.SecondedBy, &votes, &a.Result, &tally, &a.CreatedAt, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(votes, &a.Votes); err != nil {
		return nil, err
	}
	if len(tally) > 0 && string(tally) != "null" {
		a.Tally = &meeting.VoteTally{}
		if err := json.Unmarshal(tally, a.Tally); err != nil {
			return nil, err
		}
	}
	a.ClosedAt = timePtr(closed)
	return &a, nil
}

// --- minutes ---

type minutesStore struct{ db *sql.DB }

func (st minutesStore) Save(ctx context.Context, m *meeting.Minutes) error {
	_, err := st.db.ExecContext(ctx, `
		insert into minutes(id, tenant_id, meeting_id, content, status, prepared_by,
			submitted_at, approved_at, approved_by, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		on conflict (tenant_id, meeting_id) do update set
			content = excluded.content,
			status = excluded.status,
			prepared_by = excluded.prepared_by,
			submitted_at = excluded.submitted_at,
			approved_at = excluded.approved_at,
			approved_by = excluded.approved_by,
			updated_at = excluded.updated_at
	`, m.ID, m.TenantID, m.MeetingID, m.Content, m.Status, m.PreparedBy,
		nullTime(m.SubmittedAt), nullTime(m.ApprovedAt), m.ApprovedBy, m.CreatedAt, m.UpdatedAt)
	return err
}

func (st minutesStore) FindByMeeting(ctx context.Context, tenantID, meetingID string) (*meeting.Minutes, error) {
	var m meeting.Minutes
	var submitted, approved sql.NullTime
	err := st.db.QueryRowContext(ctx, `
		select id, tenant_id, meeting_id, content, status, prepared_by,
			submitted_at, approved_at, approved_by, created_at, updated_at
		from minutes where tenant_id=$1 and meeting_id=$2
	`, tenantID, meetingID).Scan(&m.ID, &m.TenantID, &m.MeetingID, &m.Content, &m.Status, &m.PreparedBy,
		&submitted, &approved, &m.ApprovedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.SubmittedAt = timePtr(submitted)
	m.ApprovedAt = timePtr(approved)
	return &m, nil
}

// --- helpers ---

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
