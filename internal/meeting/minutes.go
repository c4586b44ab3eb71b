package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MinutesInput carries the drafting fields for a meeting's minutes.
type MinutesInput struct {
	TenantID   string `json:"-"`
	Content    string `json:"content"`
	PreparedBy string `json:"-"`
}

// UpsertMinutes creates the meeting's minutes document or updates the draft.
// Editing is unrestricted while the document is a draft; once submitted it
// can no longer be changed.
func (s *Service) UpsertMinutes(ctx context.Context, meetingID string, in MinutesInput) (*Minutes, error) {
	if in.TenantID == "" || in.Content == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(in.TenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, in.TenantID, meetingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	min, err := s.store.Minutes(ctx).FindByMeeting(ctx, in.TenantID, meetingID)
	switch {
	case errors.Is(err, ErrNotFound):
		min = &Minutes{
			ID:         newID(),
			TenantID:   in.TenantID,
			MeetingID:  m.ID,
			Content:    in.Content,
			Status:     MinutesDraft,
			PreparedBy: in.PreparedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	case err != nil:
		return nil, err
	default:
		if min.Status != MinutesDraft {
			return nil, fmt.Errorf("%w: minutes are %s, only drafts can be edited", ErrInvalidTransition, min.Status)
		}
		min.Content = in.Content
		if in.PreparedBy != "" {
			min.PreparedBy = in.PreparedBy
		}
		min.UpdatedAt = now
	}

	if err := s.store.Minutes(ctx).Save(ctx, min); err != nil {
		return nil, err
	}
	return min, nil
}

// GetMinutes returns the meeting's minutes document.
func (s *Service) GetMinutes(ctx context.Context, tenantID, meetingID string) (*Minutes, error) {
	if _, err := s.findMeeting(ctx, tenantID, meetingID); err != nil {
		return nil, err
	}
	return s.store.Minutes(ctx).FindByMeeting(ctx, tenantID, meetingID)
}

// SubmitMinutes moves a draft into the approval queue.
func (s *Service) SubmitMinutes(ctx context.Context, tenantID, meetingID string) (*Minutes, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	min, err := s.store.Minutes(ctx).FindByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if min.Status != MinutesDraft {
		return nil, fmt.Errorf("%w: minutes are %s, not draft", ErrInvalidTransition, min.Status)
	}

	now := s.now().UTC()
	min.Status = MinutesPendingApproval
	min.SubmittedAt = &now
	min.UpdatedAt = now
	if err := s.store.Minutes(ctx).Save(ctx, min); err != nil {
		return nil, err
	}
	return min, nil
}

// ApproveMinutes approves submitted minutes. Approval is rejected while any
// executive session on the meeting is neither certified nor cancelled; the
// error names the offending sessions.
func (s *Service) ApproveMinutes(ctx context.Context, tenantID, meetingID, approvedBy string) (*Minutes, error) {
	if tenantID == "" || approvedBy == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	min, err := s.store.Minutes(ctx).FindByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if min.Status != MinutesPendingApproval {
		return nil, fmt.Errorf("%w: minutes are %s, not pending approval", ErrInvalidTransition, min.Status)
	}

	sessions, err := s.store.Sessions(ctx).ListByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	var uncertified []string
	for _, es := range sessions {
		if es.Status != SessionCertified && es.Status != SessionCancelled {
			uncertified = append(uncertified, es.ID)
		}
	}
	if len(uncertified) > 0 {
		return nil, fmt.Errorf("%w: session(s) %s", ErrUncertifiedSession, strings.Join(uncertified, ", "))
	}

	now := s.now().UTC()
	min.Status = MinutesApproved
	min.ApprovedAt = &now
	min.ApprovedBy = approvedBy
	min.UpdatedAt = now
	if err := s.store.Minutes(ctx).Save(ctx, min); err != nil {
		return nil, err
	}
	return min, nil
}
