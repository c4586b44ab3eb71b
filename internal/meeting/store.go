package meeting

import "context"

// Store describes persistence required by the engine. Every lookup is
// tenant-scoped; implementations return ErrNotFound for entities owned by a
// different tenant. Save is upsert-by-identity.
type Store interface {
	Bodies(ctx context.Context) BodyStore
	Meetings(ctx context.Context) MeetingStore
	Sessions(ctx context.Context) SessionStore
	Recusals(ctx context.Context) RecusalStore
	Attendance(ctx context.Context) AttendanceStore
	Actions(ctx context.Context) ActionStore
	Minutes(ctx context.Context) MinutesStore
}

// BodyStore manages governing bodies.
type BodyStore interface {
	Save(ctx context.Context, b *Body) error
	Find(ctx context.Context, tenantID, id string) (*Body, error)
	List(ctx context.Context, tenantID string) ([]*Body, error)
}

// MeetingStore manages meeting aggregates including their notice records.
type MeetingStore interface {
	Save(ctx context.Context, m *Meeting) error
	Find(ctx context.Context, tenantID, id string) (*Meeting, error)
	List(ctx context.Context, tenantID string) ([]*Meeting, error)
}

// SessionStore manages executive sessions.
type SessionStore interface {
	Save(ctx context.Context, s *ExecutiveSession) error
	Find(ctx context.Context, tenantID, id string) (*ExecutiveSession, error)
	ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*ExecutiveSession, error)
}

// RecusalStore manages recusal declarations.
type RecusalStore interface {
	Save(ctx context.Context, r *Recusal) error
	ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*Recusal, error)
}

// AttendanceStore manages attendance records, upserted by (meeting, member).
type AttendanceStore interface {
	Save(ctx context.Context, a *Attendance) error
	ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*Attendance, error)
}

// ActionStore manages meeting actions including their vote records.
type ActionStore interface {
	Save(ctx context.Context, a *Action) error
	Find(ctx context.Context, tenantID, id string) (*Action, error)
	ListByMeeting(ctx context.Context, tenantID, meetingID string) ([]*Action, error)
}

// MinutesStore manages the one minutes document per meeting.
type MinutesStore interface {
	Save(ctx context.Context, m *Minutes) error
	FindByMeeting(ctx context.Context, tenantID, meetingID string) (*Minutes, error)
}
