package meeting

import (
	"time"

	"civicgov.org/internal/notice"
)

// Status is the meeting lifecycle state.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusNoticed   Status = "noticed"
	StatusInSession Status = "in_session"
	StatusRecessed  Status = "recessed"
	StatusAdjourned Status = "adjourned"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further business-affecting transitions exist.
func (s Status) Terminal() bool {
	return s == StatusAdjourned || s == StatusCancelled
}

// Kind classifies a meeting under the open-meetings statute.
type Kind string

const (
	KindRegular   Kind = "regular"
	KindSpecial   Kind = "special"
	KindEmergency Kind = "emergency"
	KindExecutive Kind = "executive" // executive-session-only meeting
)

// ValidKind reports whether k is one of the statutory meeting kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindRegular, KindSpecial, KindEmergency, KindExecutive:
		return true
	}
	return false
}

// Member is one seat on a governing body's roster.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat string `json:"seat,omitempty"`
}

// Body is a governing body (council, commission, board) owned by a tenant
// jurisdiction. Thresholds of zero select the statutory defaults: quorum is
// a simple majority of the non-recused roster, and an action passes when
// yea votes strictly exceed nay votes.
type Body struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	Name     string   `json:"name"`
	Members  []Member `json:"members"`

	QuorumThreshold int `json:"quorum_threshold,omitempty"`
	PassThreshold   int `json:"pass_threshold,omitempty"`
	// NoticeLeadHours overrides the jurisdiction-wide lead-time default when
	// the body requires a longer posting window.
	NoticeLeadHours int `json:"notice_lead_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether memberID sits on the roster.
func (b *Body) HasMember(memberID string) bool {
	for _, m := range b.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// NoticeRecord is an immutable record of one act of posting public notice.
// The evaluation is computed with the rules in force at posting time and is
// never recomputed afterwards.
type NoticeRecord struct {
	ID         string            `json:"id"`
	PostedAt   time.Time         `json:"posted_at"`
	PostedBy   string            `json:"posted_by"`
	Methods    []string          `json:"methods"`
	Locations  []string          `json:"locations,omitempty"`
	ProofRefs  []string          `json:"proof_refs,omitempty"`
	Evaluation notice.Evaluation `json:"evaluation"`
}

// ComplianceStatus is the meeting's current derived notice-compliance view,
// driven by the latest posted notice.
type ComplianceStatus struct {
	State       notice.Verdict `json:"state"`
	RequiredBy  *time.Time     `json:"required_by,omitempty"`
	PostedAt    *time.Time     `json:"posted_at,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
}

// Meeting is one governing body's single scheduled session and the root of
// the per-meeting aggregate.
type Meeting struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	BodyID   string `json:"body_id"`

	Kind     Kind   `json:"kind"`
	Status   Status `json:"status"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`

	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`

	Notices    []NoticeRecord   `json:"notices"`
	Compliance ComplianceStatus `json:"compliance"`

	// Extra carries jurisdiction-specific notes that have no typed home.
	Extra map[string]string `json:"extra,omitempty"`
}

// SessionStatus is the executive-session sub-state.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionActive    SessionStatus = "active"
	SessionEnded     SessionStatus = "ended"
	SessionCertified SessionStatus = "certified"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionBases is the fixed statutory list of legal grounds for closing a
// portion of a meeting to the public.
var SessionBases = []string{
	"personnel",
	"litigation",
	"real_estate",
	"negotiations",
	"security",
	"attorney_consultation",
}

// ValidSessionBasis reports whether basis is on the statutory list.
func ValidSessionBasis(basis string) bool {
	for _, b := range SessionBases {
		if b == basis {
			return true
		}
	}
	return false
}

// ExecutiveSession is a closed portion of a meeting. At most one session per
// meeting is active at a time, and voting on the parent meeting is blocked
// while any session is active.
type ExecutiveSession struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	MeetingID    string `json:"meeting_id"`
	AgendaItemID string `json:"agenda_item_id,omitempty"`

	Basis   string        `json:"basis"`
	Subject string        `json:"subject"`
	Status  SessionStatus `json:"status"`

	EntryStatement string   `json:"entry_statement,omitempty"`
	Attendees      []string `json:"attendees,omitempty"`
	ExitStatement  string   `json:"exit_statement,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	EnteredAt   *time.Time `json:"entered_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CertifiedAt *time.Time `json:"certified_at,omitempty"`
}

// Recusal is a member's declared conflict, scoped meeting-wide when
// AgendaItemID is empty or to one agenda item otherwise.
type Recusal struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	MeetingID    string    `json:"meeting_id"`
	MemberID     string    `json:"member_id"`
	AgendaItemID string    `json:"agenda_item_id,omitempty"`
	Reason       string    `json:"reason"`
	Citation     string    `json:"citation,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// AppliesTo reports whether the recusal covers the given agenda scope.
func (r *Recusal) AppliesTo(agendaItemID string) bool {
	return r.AgendaItemID == "" || r.AgendaItemID == agendaItemID
}

// Attendance marks one member present or absent for a meeting.
type Attendance struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	MeetingID  string    `json:"meeting_id"`
	MemberID   string    `json:"member_id"`
	Present    bool      `json:"present"`
	RecordedAt time.Time `json:"recorded_at"`
}

// QuorumResult is the derived quorum computation for a meeting or one
// agenda item. Recused members leave both the eligible denominator and the
// present numerator.
type QuorumResult struct {
	RosterSize    int  `json:"roster_size"`
	EligibleCount int  `json:"eligible_count"`
	RequiredCount int  `json:"required_count"`
	PresentCount  int  `json:"present_count"`
	RecusedCount  int  `json:"recused_count"`
	HasQuorum     bool `json:"has_quorum"`
}

// ActionKind classifies a meeting action.
type ActionKind string

const (
	ActionMotion       ActionKind = "motion"
	ActionResolution   ActionKind = "resolution"
	ActionOrdinance    ActionKind = "ordinance"
	ActionProclamation ActionKind = "proclamation"
)

// ValidActionKind reports whether k is a recognized action kind.
func ValidActionKind(k ActionKind) bool {
	switch k {
	case ActionMotion, ActionResolution, ActionOrdinance, ActionProclamation:
		return true
	}
	return false
}

// ActionResult is the terminal disposition of an action.
type ActionResult string

const (
	ResultPending   ActionResult = "pending"
	ResultAdopted   ActionResult = "adopted"
	ResultFailed    ActionResult = "failed"
	ResultTabled    ActionResult = "tabled"
	ResultWithdrawn ActionResult = "withdrawn"
)

// VoteValue is one member's vote on one action.
type VoteValue string

const (
	VoteYea     VoteValue = "yea"
	VoteNay     VoteValue = "nay"
	VoteAbstain VoteValue = "abstain"
	VoteAbsent  VoteValue = "absent"
)

// ValidVoteValue reports whether v is a recognized vote value.
func ValidVoteValue(v VoteValue) bool {
	switch v {
	case VoteYea, VoteNay, VoteAbstain, VoteAbsent:
		return true
	}
	return false
}

// VoteRecord is one member's vote, unique per (action, member). A member may
// change their vote until the action is closed; CastAt reflects the latest
// change.
type VoteRecord struct {
	MemberID string    `json:"member_id"`
	Value    VoteValue `json:"value"`
	CastAt   time.Time `json:"cast_at"`
}

// VoteTally is the derived count over an action's vote records.
type VoteTally struct {
	Yea     int `json:"yea"`
	Nay     int `json:"nay"`
	Abstain int `json:"abstain"`
	Absent  int `json:"absent"`
}

// Action is a motion, resolution, ordinance or proclamation moved during a
// meeting and resolved through the voting workflow.
type Action struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	MeetingID    string `json:"meeting_id"`
	AgendaItemID string `json:"agenda_item_id,omitempty"`

	Kind        ActionKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`

	MovedBy    string `json:"moved_by"`
	SecondedBy string `json:"seconded_by,omitempty"`

	Votes  []VoteRecord `json:"votes"`
	Result ActionResult `json:"result"`
	Tally  *VoteTally   `json:"tally,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Resolved reports whether the action reached a terminal disposition.
func (a *Action) Resolved() bool {
	return a.Result != ResultPending
}

// TallyVotes counts the current vote records.
func (a *Action) TallyVotes() VoteTally {
	var t VoteTally
	for _, v := range a.Votes {
		switch v.Value {
		case VoteYea:
			t.Yea++
		case VoteNay:
			t.Nay++
		case VoteAbstain:
			t.Abstain++
		case VoteAbsent:
			t.Absent++
		}
	}
	return t
}

// MinutesStatus is the minutes approval workflow state.
type MinutesStatus string

const (
	MinutesDraft           MinutesStatus = "draft"
	MinutesPendingApproval MinutesStatus = "pending_approval"
	MinutesApproved        MinutesStatus = "approved"
)

// Minutes is the single minutes document for a meeting.
type Minutes struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	MeetingID string `json:"meeting_id"`

	Content string        `json:"content"`
	Status  MinutesStatus `json:"status"`

	PreparedBy  string     `json:"prepared_by"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  string     `json:"approved_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
