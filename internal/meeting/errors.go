package meeting

import "errors"

var (
	// ErrNotFound covers both missing entities and cross-tenant access, so
	// existence never leaks across jurisdictions.
	ErrNotFound = errors.New("meeting: not found")

	// ErrInvalidInput flags malformed or incomplete request input.
	ErrInvalidInput = errors.New("meeting: invalid input")

	// ErrInvalidTransition flags a lifecycle edge not permitted from the
	// current state.
	ErrInvalidTransition = errors.New("meeting: invalid transition")

	// ErrAlreadyTerminal flags an operation attempted on a closed meeting or
	// a resolved action. Cancellation of an already-cancelled meeting is the
	// documented idempotent exception and does not raise this.
	ErrAlreadyTerminal = errors.New("meeting: already terminal")

	// ErrSessionActive flags entering an executive session while another one
	// on the same meeting is still active.
	ErrSessionActive = errors.New("meeting: another executive session is active")

	// ErrVoteBlocked flags a vote or a voting close attempted while an
	// executive session on the action's meeting is active.
	ErrVoteBlocked = errors.New("meeting: voting blocked by active executive session")

	// ErrRecusedMember flags a vote by a member recused for the action's scope.
	ErrRecusedMember = errors.New("meeting: member is recused for this scope")

	// ErrAlreadySeconded flags seconding an action that already has a seconder.
	ErrAlreadySeconded = errors.New("meeting: action already seconded")

	// ErrUncertifiedSession blocks minutes approval while any executive
	// session on the meeting is neither certified nor cancelled.
	ErrUncertifiedSession = errors.New("meeting: uncertified executive session")
)
