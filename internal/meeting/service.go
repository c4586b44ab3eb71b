package meeting

import (
	"context"
	"sync"
	"time"

	"civicgov.org/internal/calendar"
	"civicgov.org/internal/ids"
	"civicgov.org/internal/notice"
	"civicgov.org/internal/publish"
)

const defaultLeadHours = 48

// NoticePublisher receives fire-and-forget notice events after a successful
// posting. Implementations must not block.
type NoticePublisher interface {
	Publish(evt publish.NoticeEvent)
}

// Service is the meeting governance engine. All mutating operations on one
// meeting are serialized by meeting identity; operations on different
// meetings proceed concurrently.
type Service struct {
	store     Store
	cal       *calendar.Calendar
	leadHours int
	publisher NoticePublisher
	now       func() time.Time

	locks keyedLocks
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithHolidaySource sets the jurisdiction's holiday source for business-hour
// deadline math.
func WithHolidaySource(src calendar.HolidaySource) ServiceOption {
	return func(s *Service) { s.cal = calendar.New(src) }
}

// WithDefaultLeadHours sets the jurisdiction-wide notice lead time applied
// when a governing body carries no override.
func WithDefaultLeadHours(hours int) ServiceOption {
	return func(s *Service) {
		if hours > 0 {
			s.leadHours = hours
		}
	}
}

// WithNoticePublisher attaches the outbound notice publication collaborator.
func WithNoticePublisher(p NoticePublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// NewService constructs the engine around a Store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		cal:       calendar.New(nil),
		leadHours: defaultLeadHours,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetMeeting returns one meeting aggregate.
func (s *Service) GetMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.store.Meetings(ctx).Find(ctx, tenantID, meetingID)
}

// ListMeetings returns all meetings for the tenant.
func (s *Service) ListMeetings(ctx context.Context, tenantID string) ([]*Meeting, error) {
	return s.store.Meetings(ctx).List(ctx, tenantID)
}

// CreateBody registers a governing body.
func (s *Service) CreateBody(ctx context.Context, in CreateBodyInput) (*Body, error) {
	if in.TenantID == "" || in.Name == "" || len(in.Members) == 0 {
		return nil, ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(in.Members))
	for _, m := range in.Members {
		if m.ID == "" {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[m.ID]; dup {
			return nil, ErrInvalidInput
		}
		seen[m.ID] = struct{}{}
	}
	now := s.now().UTC()
	b := &Body{
		ID:              newID(),
		TenantID:        in.TenantID,
		Name:            in.Name,
		Members:         append([]Member(nil), in.Members...),
		QuorumThreshold: in.QuorumThreshold,
		PassThreshold:   in.PassThreshold,
		NoticeLeadHours: in.NoticeLeadHours,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Bodies(ctx).Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBody returns one governing body.
func (s *Service) GetBody(ctx context.Context, tenantID, bodyID string) (*Body, error) {
	return s.store.Bodies(ctx).Find(ctx, tenantID, bodyID)
}

// ListBodies returns all governing bodies for the tenant.
func (s *Service) ListBodies(ctx context.Context, tenantID string) ([]*Body, error) {
	return s.store.Bodies(ctx).List(ctx, tenantID)
}

// CreateBodyInput carries the fields for registering a governing body.
type CreateBodyInput struct {
	TenantID        string   `json:"-"`
	Name            string   `json:"name"`
	Members         []Member `json:"members"`
	QuorumThreshold int      `json:"quorum_threshold"`
	PassThreshold   int      `json:"pass_threshold"`
	NoticeLeadHours int      `json:"notice_lead_hours"`
}

// leadHoursFor resolves the notice lead time for a body: body override first,
// jurisdiction default otherwise.
func (s *Service) leadHoursFor(b *Body) int {
	if b != nil && b.NoticeLeadHours > 0 {
		return b.NoticeLeadHours
	}
	return s.leadHours
}

// pendingCompliance is the derived compliance view before any notice exists.
func (s *Service) pendingCompliance(m *Meeting, lead int) ComplianceStatus {
	ev := notice.Pending(s.cal, m.Kind == KindEmergency, m.ScheduledStart, lead)
	requiredBy := ev.RequiredBy
	return ComplianceStatus{
		State:       ev.Verdict,
		RequiredBy:  &requiredBy,
		Explanation: ev.Explanation,
	}
}

// complianceFrom derives the meeting-level view from one notice evaluation.
func complianceFrom(ev notice.Evaluation) ComplianceStatus {
	requiredBy := ev.RequiredBy
	postedAt := ev.PostedAt
	return ComplianceStatus{
		State:       ev.Verdict,
		RequiredBy:  &requiredBy,
		PostedAt:    &postedAt,
		Explanation: ev.Explanation,
	}
}

// findMeeting loads a tenant's meeting. Mutating callers hold the
// per-meeting lock before calling it.
func (s *Service) findMeeting(ctx context.Context, tenantID, meetingID string) (*Meeting, error) {
	return s.store.Meetings(ctx).Find(ctx, tenantID, meetingID)
}

func newID() string { return ids.New() }

// keyedLocks provides one mutex per meeting identity. Keys are never
// removed; the set is bounded by the number of meetings touched by this
// process.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// lockMeeting serializes mutations for one meeting within one tenant.
func (s *Service) lockMeeting(tenantID, meetingID string) func() {
	return s.locks.lock(tenantID + "/" + meetingID)
}
