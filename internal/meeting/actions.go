package meeting

import (
	"context"
	"fmt"
)

// ActionInput carries the fields for creating a meeting action.
type ActionInput struct {
	TenantID     string     `json:"-"`
	AgendaItemID string     `json:"agenda_item_id"`
	Kind         ActionKind `json:"kind"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	MovedBy      string     `json:"moved_by"`
}

// CreateAction records a motion moved by a roster member. Actions may still
// be appended after adjournment for record-keeping, but never on a cancelled
// meeting.
func (s *Service) CreateAction(ctx context.Context, meetingID string, in ActionInput) (*Action, error) {
	if in.TenantID == "" || in.Title == "" || in.MovedBy == "" {
		return nil, ErrInvalidInput
	}
	if !ValidActionKind(in.Kind) {
		return nil, fmt.Errorf("%w: unknown action kind %q", ErrInvalidInput, in.Kind)
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
	if !body.HasMember(in.MovedBy) {
		return nil, fmt.Errorf("%w: mover %q is not on the roster of %s", ErrInvalidInput, in.MovedBy, body.Name)
	}

	a := &Action{
		ID:           newID(),
		TenantID:     in.TenantID,
		MeetingID:    m.ID,
		AgendaItemID: in.AgendaItemID,
		Kind:         in.Kind,
		Title:        in.Title,
		Description:  in.Description,
		MovedBy:      in.MovedBy,
		Votes:        []VoteRecord{},
		Result:       ResultPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Actions(ctx).Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListActions returns the meeting's actions.
func (s *Service) ListActions(ctx context.Context, tenantID, meetingID string) ([]*Action, error) {
	if _, err := s.findMeeting(ctx, tenantID, meetingID); err != nil {
		return nil, err
	}
	return s.store.Actions(ctx).ListByMeeting(ctx, tenantID, meetingID)
}

// SecondAction records the seconder for a pending, unseconded action.
func (s *Service) SecondAction(ctx context.Context, tenantID, meetingID, actionID, secondedBy string) (*Action, error) {
	if tenantID == "" || secondedBy == "" {
		return nil, ErrInvalidInput
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	a, body, err := s.actionOnMeeting(ctx, tenantID, meetingID, actionID)
	if err != nil {
		return nil, err
	}
	if a.Resolved() {
		return nil, fmt.Errorf("%w: action already resolved as %s", ErrAlreadyTerminal, a.Result)
	}
	if a.SecondedBy != "" {
		return nil, ErrAlreadySeconded
	}
	if !body.HasMember(secondedBy) {
		return nil, fmt.Errorf("%w: seconder %q is not on the roster of %s", ErrInvalidInput, secondedBy, body.Name)
	}
	if secondedBy == a.MovedBy {
		return nil, fmt.Errorf("%w: the mover cannot second their own motion", ErrInvalidInput)
	}

	a.SecondedBy = secondedBy
	if err := s.store.Actions(ctx).Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RecordVote upserts one member's vote on an action. Voting is blocked while
// any executive session on the meeting is active, and a member recused for
// the action's scope cannot vote. A member may change their recorded vote
// until the action is closed.
func (s *Service) RecordVote(ctx context.Context, tenantID, meetingID, actionID, memberID string, value VoteValue) (*Action, error) {
	if tenantID == "" || memberID == "" {
		return nil, ErrInvalidInput
	}
	if !ValidVoteValue(value) {
		return nil, fmt.Errorf("%w: unknown vote value %q", ErrInvalidInput, value)
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	a, body, err := s.actionOnMeeting(ctx, tenantID, meetingID, actionID)
	if err != nil {
		return nil, err
	}
	if a.Resolved() {
		return nil, fmt.Errorf("%w: action already resolved as %s", ErrAlreadyTerminal, a.Result)
	}
	if a.SecondedBy == "" {
		return nil, fmt.Errorf("%w: action has no second", ErrInvalidTransition)
	}
	if !body.HasMember(memberID) {
		return nil, fmt.Errorf("%w: member %q is not on the roster of %s", ErrInvalidInput, memberID, body.Name)
	}

	active, err := s.anyActiveSession(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrVoteBlocked
	}
	recused, err := s.recusedForScope(ctx, tenantID, meetingID, a.AgendaItemID)
	if err != nil {
		return nil, err
	}
	if _, isRecused := recused[memberID]; isRecused {
		return nil, fmt.Errorf("%w: %s", ErrRecusedMember, memberID)
	}

	now := s.now().UTC()
	updated := false
	for i := range a.Votes {
		if a.Votes[i].MemberID == memberID {
			a.Votes[i].Value = value
			a.Votes[i].CastAt = now
			updated = true
			break
		}
	}
	if !updated {
		a.Votes = append(a.Votes, VoteRecord{MemberID: memberID, Value: value, CastAt: now})
	}

	if err := s.store.Actions(ctx).Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CloseVoting tallies the votes and resolves the action. An empty
// disposition applies the pass threshold: by default the action is adopted
// when yea votes strictly exceed nay votes among non-abstaining, non-absent
// members; a body's configured PassThreshold requires at least that many
// yeas instead. Tabled and withdrawn dispositions bypass the tally.
func (s *Service) CloseVoting(ctx context.Context, tenantID, meetingID, actionID string, disposition ActionResult) (*Action, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	switch disposition {
	case "", ResultTabled, ResultWithdrawn:
	default:
		return nil, fmt.Errorf("%w: disposition must be empty, tabled or withdrawn", ErrInvalidInput)
	}
	unlock := s.lockMeeting(tenantID, meetingID)
	defer unlock()

	a, body, err := s.actionOnMeeting(ctx, tenantID, meetingID, actionID)
	if err != nil {
		return nil, err
	}
	if a.Resolved() {
		return nil, fmt.Errorf("%w: action already resolved as %s", ErrAlreadyTerminal, a.Result)
	}
	active, err := s.anyActiveSession(ctx, tenantID, meetingID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrVoteBlocked
	}

	now := s.now().UTC()
	tally := a.TallyVotes()
	a.Tally = &tally
	a.ClosedAt = &now

	switch disposition {
	case ResultTabled, ResultWithdrawn:
		a.Result = disposition
	default:
		if passes(tally, body.PassThreshold) {
			a.Result = ResultAdopted
		} else {
			a.Result = ResultFailed
		}
	}

	if err := s.store.Actions(ctx).Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func passes(t VoteTally, passThreshold int) bool {
	if passThreshold > 0 {
		return t.Yea >= passThreshold
	}
	return t.Yea > t.Nay
}

// actionOnMeeting loads an action, verifies meeting ownership, and returns
// the owning body for roster checks.
func (s *Service) actionOnMeeting(ctx context.Context, tenantID, meetingID, actionID string) (*Action, *Body, error) {
	m, err := s.findMeeting(ctx, tenantID, meetingID)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.store.Actions(ctx).Find(ctx, tenantID, actionID)
	if err != nil {
		return nil, nil, err
	}
	if a.MeetingID != m.ID {
		return nil, nil, ErrNotFound
	}
	body, err := s.store.Bodies(ctx).Find(ctx, tenantID, m.BodyID)
	if err != nil {
		return nil, nil, err
	}
	return a, body, nil
}
