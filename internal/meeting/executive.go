package meeting

import (
	"context"
	"fmt"
)

// SessionInput carries the fields for creating an executive session.
type SessionInput struct {
	TenantID     string `json:"-"`
	AgendaItemID string `json:"agenda_item_id"`
	Basis        string `json:"basis"`
	Subject      string `json:"subject"`
}

// CreateSession schedules an executive session on a meeting. The legal basis
// must come from the statutory list.
func (s *Service) CreateSession(ctx context.Context, meetingID string, in SessionInput) (*ExecutiveSession, error) {
	if in.TenantID == "" || in.Subject == "" {
		return nil, ErrInvalidInput
	}
	if !ValidSessionBasis(in.Basis) {
		return nil, fmt.Errorf("%w: %q is not a statutory basis for closing a session", ErrInvalidInput, in.Basis)
	}
	unlock := s.lockMeeting(in.TenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, in.TenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: meeting is cancelled", ErrAlreadyTerminal)
	}

	es := &ExecutiveSession{
		ID:           newID(),
		TenantID:     in.TenantID,
		MeetingID:    m.ID,
		AgendaItemID: in.AgendaItemID,
		Basis:        in.Basis,
		Subject:      in.Subject,
		Status:       SessionScheduled,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Sessions(ctx).Save(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// EnterSession opens a scheduled session. Only one session per meeting may
// be active; the entry certification statement and attendee list are part of
// the legal record.
func (s *Service) EnterSession(ctx context.Context, tenantID, meetingID, sessionID, entryStatement string, attendees []string) (*ExecutiveSession, error) {
	if tenantID == "" || entryStatement == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	es, err := s.sessionOnMeeting(ctx, tenantID, meetingID, sessionID)
	if err != nil {
		return nil, err
	}
	if es.Status != SessionScheduled {
		return nil, fmt.Errorf("%w: session is %s, not scheduled", ErrInvalidTransition, es.Status)
	}
	active, err := s.anyActiveSession(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrSessionActive
	}

	now := s.now().UTC()
	es.Status = SessionActive
	es.EntryStatement = entryStatement
	es.Attendees = append([]string(nil), attendees...)
	es.EnteredAt = &now
	if err := s.store.Sessions(ctx).Save(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// EndSession closes an active session with its exit certification statement.
func (s *Service) EndSession(ctx context.Context, tenantID, meetingID, sessionID, exitStatement string) (*ExecutiveSession, error) {
	if tenantID == "" || exitStatement == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	es, err := s.sessionOnMeeting(ctx, tenantID, meetingID, sessionID)
	if err != nil {
		return nil, err
	}
	if es.Status != SessionActive {
		return nil, fmt.Errorf("%w: session is %s, not active", ErrInvalidTransition, es.Status)
	}

	now := s.now().UTC()
	es.Status = SessionEnded
	es.ExitStatement = exitStatement
	es.EndedAt = &now
	if err := s.store.Sessions(ctx).Save(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// CertifySession certifies an ended session, completing its legal record.
func (s *Service) CertifySession(ctx context.Context, tenantID, meetingID, sessionID string) (*ExecutiveSession, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	es, err := s.sessionOnMeeting(ctx, tenantID, meetingID, sessionID)
	if err != nil {
		return nil, err
	}
	if es.Status != SessionEnded {
		return nil, fmt.Errorf("%w: only an ended session can be certified, session is %s", ErrInvalidTransition, es.Status)
	}

	now := s.now().UTC()
	es.Status = SessionCertified
	es.CertifiedAt = &now
	if err := s.store.Sessions(ctx).Save(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// CancelSession cancels a session that never convened.
func (s *Service) CancelSession(ctx context.Context, tenantID, meetingID, sessionID string) (*ExecutiveSession, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	es, err := s.sessionOnMeeting(ctx, tenantID, meetingID, sessionID)
	if err != nil {
		return nil, err
	}
	if es.Status != SessionScheduled {
		return nil, fmt.Errorf("%w: only a scheduled session can be cancelled, session is %s", ErrInvalidTransition, es.Status)
	}

	es.Status = SessionCancelled
	if err := s.store.Sessions(ctx).Save(ctx, es); err != nil {
		return nil, err
	}
	return es, nil
}

// ListSessions returns the meeting's executive sessions.
func (s *Service) ListSessions(ctx context.Context, tenantID, meetingID string) ([]*ExecutiveSession, error) {
	if _, err := s.findMeeting(ctx, tenantID, meetingID); err != nil {
		return nil, err
	}
	return s.store.Sessions(ctx).ListByMeeting(ctx, tenantID, meetingID)
}

// IsAnyActive reports whether any executive session on the meeting is open.
// The voting workflow consults this before recording or closing votes.
func (s *Service) IsAnyActive(ctx context.Context, tenantID, meetingID string) (bool, error) {
	return s.anyActiveSession(ctx, tenantID, meetingID)
}

func (s *Service) anyActiveSession(ctx context.Context, tenantID, meetingID string) (bool, error) {
	sessions, err := s.store.Sessions(ctx).ListByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return false, err
	}
	for _, es := range sessions {
		if es.Status == SessionActive {
			return true, nil
		}
	}
	return false, nil
}

// sessionOnMeeting loads a session and verifies it belongs to the meeting.
func (s *Service) sessionOnMeeting(ctx context.Context, tenantID, meetingID, sessionID string) (*ExecutiveSession, error) {
	es, err := s.store.Sessions(ctx).Find(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if es.MeetingID != meetingID {
		return nil, ErrNotFound
	}
	return es, nil
}
