package meeting

import (
	"context"
	"fmt"
	"time"

	"civicgov.org/internal/notice"
	"civicgov.org/internal/publish"
)

// ScheduleMeetingInput carries the fields for scheduling a meeting.
type ScheduleMeetingInput struct {
	TenantID       string            `json:"-"`
	BodyID         string            `json:"body_id"`
	Kind           Kind              `json:"kind"`
	Title          string            `json:"title"`
	Location       string            `json:"location"`
	ScheduledStart time.Time         `json:"scheduled_start"`
	ScheduledEnd   time.Time         `json:"scheduled_end"`
	CreatedBy      string            `json:"-"`
	Extra          map[string]string `json:"extra"`
}

// ScheduleMeeting creates a meeting in the planned state. The notice deadline
// is computed immediately so callers can see when posting is due.
func (s *Service) ScheduleMeeting(ctx context.Context, in ScheduleMeetingInput) (*Meeting, error) {
	if in.TenantID == "" || in.BodyID == "" || in.Title == "" || in.ScheduledStart.IsZero() {
		return nil, ErrInvalidInput
	}
	if !ValidKind(in.Kind) {
		return nil, fmt.Errorf("%w: unknown meeting kind %q", ErrInvalidInput, in.Kind)
	}
	body, err := s.store.Bodies(ctx).Find(ctx, in.TenantID, in.BodyID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &Meeting{
		ID:             newID(),
		TenantID:       in.TenantID,
		BodyID:         body.ID,
		Kind:           in.Kind,
		Status:         StatusPlanned,
		Title:          in.Title,
		Location:       in.Location,
		ScheduledStart: in.ScheduledStart.UTC(),
		CreatedAt:      now,
		CreatedBy:      in.CreatedBy,
		Notices:        []NoticeRecord{},
		Extra:          in.Extra,
	}
	if !in.ScheduledEnd.IsZero() {
		m.ScheduledEnd = in.ScheduledEnd.UTC()
	}
	m.Compliance = s.pendingCompliance(m, s.leadHoursFor(body))

	if err := s.store.Meetings(ctx).Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// NoticeInput carries the fields for recording one act of posting notice.
type NoticeInput struct {
	TenantID  string    `json:"-"`
	PostedBy  string    `json:"-"`
	PostedAt  time.Time `json:"posted_at"` // zero means "now"
	Methods   []string  `json:"methods"`
	Locations []string  `json:"locations"`
	ProofRefs []string  `json:"proof_refs"`
}

// MarkNoticePosted appends an immutable NoticeRecord, recomputes the
// meeting's compliance status from this latest posting, and advances a
// planned meeting to noticed. Earlier notice records keep the verdicts they
// were given at their own posting time.
func (s *Service) MarkNoticePosted(ctx context.Context, meetingID string, in NoticeInput) (*Meeting, error) {
	if in.TenantID == "" || len(in.Methods) == 0 {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(in.TenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, in.TenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot post notice for a %s meeting", ErrAlreadyTerminal, m.Status)
	}
	body, err := s.store.Bodies(ctx).Find(ctx, in.TenantID, m.BodyID)
	if err != nil {
		return nil, err
	}

	postedAt := in.PostedAt
	if postedAt.IsZero() {
		postedAt = s.now()
	}
	ev := notice.Evaluate(s.cal, m.Kind == KindEmergency, m.ScheduledStart, postedAt, s.leadHoursFor(body))

	rec := NoticeRecord{
		ID:         newID(),
		PostedAt:   postedAt.UTC(),
		PostedBy:   in.PostedBy,
		Methods:    append([]string(nil), in.Methods...),
		Locations:  append([]string(nil), in.Locations...),
		ProofRefs:  append([]string(nil), in.ProofRefs...),
		Evaluation: ev,
	}
	m.Notices = append(m.Notices, rec)
	m.Compliance = complianceFrom(ev)
	if m.Status == StatusPlanned {
		m.Status = StatusNoticed
	}

	if err := s.store.Meetings(ctx).Save(ctx, m); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(publish.NoticeEvent{
			TenantID:       m.TenantID,
			MeetingID:      m.ID,
			BodyID:         m.BodyID,
			MeetingTitle:   m.Title,
			ScheduledStart: m.ScheduledStart,
			PostedAt:       rec.PostedAt,
			Methods:        rec.Methods,
			Verdict:        string(ev.Verdict),
			Timestamp:      s.now().UTC(),
		})
	}
	return m, nil
}

// StartMeeting moves a noticed meeting into session.
func (s *Service) StartMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.transition(ctx, tenantID, meetingID, StatusInSession, StatusNoticed)
}

// RecessMeeting recesses an in-session meeting.
func (s *Service) RecessMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.transition(ctx, tenantID, meetingID, StatusRecessed, StatusInSession)
}

// ResumeMeeting resumes a recessed meeting.
func (s *Service) ResumeMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.transition(ctx, tenantID, meetingID, StatusInSession, StatusRecessed)
}

// AdjournMeeting closes the meeting. A planned meeting cannot be adjourned;
// it must be noticed first.
func (s *Service) AdjournMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.transition(ctx, tenantID, meetingID, StatusAdjourned, StatusNoticed, StatusInSession, StatusRecessed)
}

// transition applies one forward lifecycle edge under the meeting lock.
func (s *Service) transition(ctx context.Context, tenantID, meetingID string, to Status, from ...Status) (*Meeting, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, fmt.Errorf("%w: meeting is %s", ErrAlreadyTerminal, m.Status)
	}
	allowed := false
	for _, f := range from {
		if m.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
	}
	m.Status = to
	if err := s.store.Meetings(ctx).Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CancelMeeting cancels a meeting, stamping time, actor and optional reason.
// Cancelling an already-cancelled meeting is an idempotent no-op returning
// the stored aggregate unchanged. A completed (adjourned) meeting cannot be
// cancelled.
func (s *Service) CancelMeeting(ctx context.Context, tenantID, meetingID, actor, reason string) (*Meeting, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case StatusCancelled:
		return m, nil
	case StatusAdjourned:
		return nil, fmt.Errorf("%w: cannot cancel a completed meeting", ErrInvalidTransition)
	}

	now := s.now().UTC()
	m.Status = StatusCancelled
	m.CancelledAt = &now
	m.CancelledBy = actor
	m.CancelReason = reason
	if err := s.store.Meetings(ctx).Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
