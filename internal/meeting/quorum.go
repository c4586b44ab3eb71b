package meeting

import (
	"context"
	"fmt"
)

// RecusalInput carries the fields for declaring a recusal.
type RecusalInput struct {
	TenantID     string `json:"-"`
	MemberID     string `json:"member_id"`
	AgendaItemID string `json:"agenda_item_id"`
	Reason       string `json:"reason"`
	Citation     string `json:"citation"`
}

// RecordRecusal declares a member's conflict for a meeting or one agenda
// item. The member must sit on the governing body's roster.
func (s *Service) RecordRecusal(ctx context.Context, meetingID string, in RecusalInput) (*Recusal, error) {
	if in.TenantID == "" || in.MemberID == "" || in.Reason == "" {
		return nil, ErrInvalidInput
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
	body, err := s.store.Bodies(ctx).Find(ctx, in.TenantID, m.BodyID)
	if err != nil {
		return nil, err
	}
	if !body.HasMember(in.MemberID) {
		return nil, fmt.Errorf("%w: member %q is not on the roster of %s", ErrInvalidInput, in.MemberID, body.Name)
	}

	r := &Recusal{
		ID:           newID(),
		TenantID:     in.TenantID,
		MeetingID:    m.ID,
		MemberID:     in.MemberID,
		AgendaItemID: in.AgendaItemID,
		Reason:       in.Reason,
		Citation:     in.Citation,
		RecordedAt:   s.now().UTC(),
	}
	if err := s.store.Recusals(ctx).Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// RecordAttendance marks a member present or absent for the meeting,
// upserting by (meeting, member).
func (s *Service) RecordAttendance(ctx context.Context, tenantID, meetingID, memberID string, present bool) (*Attendance, error) {
	if tenantID == "" || memberID == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	m, err := s.findMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	body, err := s.store.Bodies(ctx).Find(ctx, tenantID, m.BodyID)
	if err != nil {
		return nil, err
	}
	if !body.HasMember(memberID) {
		return nil, fmt.Errorf("%w: member %q is not on the roster of %s", ErrInvalidInput, memberID, body.Name)
	}

	a := &Attendance{
		ID:         newID(),
		TenantID:   tenantID,
		MeetingID:  m.ID,
		MemberID:   memberID,
		Present:    present,
		RecordedAt: s.now().UTC(),
	}
	if err := s.store.Attendance(ctx).Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CalculateQuorum computes quorum for the meeting, or for one agenda item
// when agendaItemID is non-empty. Members recused for the given scope leave
// both the eligible denominator and the present numerator. The threshold is
// the body's configured minimum, defaulting to a simple majority of the
// non-recused roster.
func (s *Service) CalculateQuorum(ctx context.Context, tenantID, meetingID, agendaItemID string) (QuorumResult, error) {
	if tenantID == "" {
		return QuorumResult{}, ErrInvalidInput
	}
	m, err := s.findMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return QuorumResult{}, err
	}
	body, err := s.store.Bodies(ctx).Find(ctx, tenantID, m.BodyID)
	if err != nil {
		return QuorumResult{}, err
	}
	recused, err := s.recusedForScope(ctx, tenantID, meetingID, agendaItemID)
	if err != nil {
		return QuorumResult{}, err
	}
	attendance, err := s.store.Attendance(ctx).ListByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return QuorumResult{}, err
	}
	present := make(map[string]struct{})
	for _, a := range attendance {
		if a.Present {
			present[a.MemberID] = struct{}{}
		}
	}

	res := QuorumResult{RosterSize: len(body.Members)}
	for _, member := range body.Members {
		if _, isRecused := recused[member.ID]; isRecused {
			res.RecusedCount++
			continue
		}
		res.EligibleCount++
		if _, isPresent := present[member.ID]; isPresent {
			res.PresentCount++
		}
	}

	res.RequiredCount = body.QuorumThreshold
	if res.RequiredCount <= 0 {
		res.RequiredCount = res.EligibleCount/2 + 1
	}
	res.HasQuorum = res.EligibleCount > 0 && res.PresentCount >= res.RequiredCount
	return res, nil
}

// recusedForScope returns the set of member IDs recused for the meeting-wide
// scope plus, when supplied, the specific agenda item.
func (s *Service) recusedForScope(ctx context.Context, tenantID, meetingID, agendaItemID string) (map[string]struct{}, error) {
	recusals, err := s.store.Recusals(ctx).ListByMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for _, r := range recusals {
		if r.AppliesTo(agendaItemID) {
			out[r.MemberID] = struct{}{}
		}
	}
	return out, nil
}
