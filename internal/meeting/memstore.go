package meeting

import (
	"context"
	"sort"
	"sync"
)

// MemStore implements Store with in-process concurrency safety. Reads hand
// out deep copies so callers always observe consistent snapshots.
// NOTE: production deployments use the Postgres store; this backs tests and
// single-node setups.
type MemStore struct {
	mu         sync.RWMutex
	bodies     map[string]*Body
	meetings   map[string]*Meeting
	sessions   map[string]*ExecutiveSession
	recusals   map[string]*Recusal
	attendance map[string]*Attendance // keyed meetingID+"/"+memberID
	actions    map[string]*Action
	minutes    map[string]*Minutes // keyed by meetingID
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		bodies:     make(map[string]*Body),
		meetings:   make(map[string]*Meeting),
		sessions:   make(map[string]*ExecutiveSession),
		recusals:   make(map[string]*Recusal),
		attendance: make(map[string]*Attendance),
		actions:    make(map[string]*Action),
		minutes:    make(map[string]*Minutes),
	}
}

func (s *MemStore) Bodies(context.Context) BodyStore           { return memBodies{s} }
func (s *MemStore) Meetings(context.Context) MeetingStore      { return memMeetings{s} }
func (s *MemStore) Sessions(context.Context) SessionStore      { return memSessions{s} }
func (s *MemStore) Recusals(context.Context) RecusalStore      { return memRecusals{s} }
func (s *MemStore) Attendance(context.Context) AttendanceStore { return memAttendance{s} }
func (s *MemStore) Actions(context.Context) ActionStore        { return memActions{s} }
func (s *MemStore) Minutes(context.Context) MinutesStore       { return memMinutes{s} }

// Bodies ---------------------------------------------------------------

type memBodies struct{ s *MemStore }

func (m memBodies) Save(_ context.Context, b *Body) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.bodies[b.ID] = cloneBody(b)
	return nil
}

func (m memBodies) Find(_ context.Context, tenantID, id string) (*Body, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	b, ok := m.s.bodies[id]
	if !ok || b.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cloneBody(b), nil
}

func (m memBodies) List(_ context.Context, tenantID string) ([]*Body, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Body
	for _, b := range m.s.bodies {
		if b.TenantID == tenantID {
			out = append(out, cloneBody(b))
		}
	}
	sortByID(out, func(b *Body) string { return b.ID })
	return out, nil
}

// Meetings -------------------------------------------------------------

type memMeetings struct{ s *MemStore }

func (m memMeetings) Save(_ context.Context, mt *Meeting) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.meetings[mt.ID] = cloneMeeting(mt)
	return nil
}

func (m memMeetings) Find(_ context.Context, tenantID, id string) (*Meeting, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	mt, ok := m.s.meetings[id]
	if !ok || mt.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cloneMeeting(mt), nil
}

func (m memMeetings) List(_ context.Context, tenantID string) ([]*Meeting, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Meeting
	for _, mt := range m.s.meetings {
		if mt.TenantID == tenantID {
			out = append(out, cloneMeeting(mt))
		}
	}
	sortByID(out, func(mt *Meeting) string { return mt.ID })
	return out, nil
}

// Sessions -------------------------------------------------------------

type memSessions struct{ s *MemStore }

func (m memSessions) Save(_ context.Context, es *ExecutiveSession) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.sessions[es.ID] = cloneSession(es)
	return nil
}

func (m memSessions) Find(_ context.Context, tenantID, id string) (*ExecutiveSession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	es, ok := m.s.sessions[id]
	if !ok || es.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cloneSession(es), nil
}

func (m memSessions) ListByMeeting(_ context.Context, tenantID, meetingID string) ([]*ExecutiveSession, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*ExecutiveSession
	for _, es := range m.s.sessions {
		if es.TenantID == tenantID && es.MeetingID == meetingID {
			out = append(out, cloneSession(es))
		}
	}
	sortByID(out, func(es *ExecutiveSession) string { return es.ID })
	return out, nil
}

// Recusals -------------------------------------------------------------

type memRecusals struct{ s *MemStore }

func (m memRecusals) Save(_ context.Context, r *Recusal) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *r
	m.s.recusals[r.ID] = &cp
	return nil
}

func (m memRecusals) ListByMeeting(_ context.Context, tenantID, meetingID string) ([]*Recusal, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Recusal
	for _, r := range m.s.recusals {
		if r.TenantID == tenantID && r.MeetingID == meetingID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortByID(out, func(r *Recusal) string { return r.ID })
	return out, nil
}

// Attendance -----------------------------------------------------------

type memAttendance struct{ s *MemStore }

func (m memAttendance) Save(_ context.Context, a *Attendance) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *a
	m.s.attendance[a.MeetingID+"/"+a.MemberID] = &cp
	return nil
}

func (m memAttendance) ListByMeeting(_ context.Context, tenantID, meetingID string) ([]*Attendance, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Attendance
	for _, a := range m.s.attendance {
		if a.TenantID == tenantID && a.MeetingID == meetingID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByID(out, func(a *Attendance) string { return a.MemberID })
	return out, nil
}

// Actions --------------------------------------------------------------

type memActions struct{ s *MemStore }

func (m memActions) Save(_ context.Context, a *Action) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.actions[a.ID] = cloneAction(a)
	return nil
}

func (m memActions) Find(_ context.Context, tenantID, id string) (*Action, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	a, ok := m.s.actions[id]
	if !ok || a.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cloneAction(a), nil
}

func (m memActions) ListByMeeting(_ context.Context, tenantID, meetingID string) ([]*Action, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*Action
	for _, a := range m.s.actions {
		if a.TenantID == tenantID && a.MeetingID == meetingID {
			out = append(out, cloneAction(a))
		}
	}
	sortByID(out, func(a *Action) string { return a.ID })
	return out, nil
}

// Minutes --------------------------------------------------------------

type memMinutes struct{ s *MemStore }

func (m memMinutes) Save(_ context.Context, min *Minutes) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *min
	m.s.minutes[min.MeetingID] = &cp
	return nil
}

func (m memMinutes) FindByMeeting(_ context.Context, tenantID, meetingID string) (*Minutes, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	min, ok := m.s.minutes[meetingID]
	if !ok || min.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *min
	return &cp, nil
}

// clone helpers --------------------------------------------------------

func cloneBody(b *Body) *Body {
	cp := *b
	cp.Members = append([]Member(nil), b.Members...)
	return &cp
}

func cloneMeeting(m *Meeting) *Meeting {
	cp := *m
	cp.Notices = make([]NoticeRecord, len(m.Notices))
	for i, n := range m.Notices {
		nc := n
		nc.Methods = append([]string(nil), n.Methods...)
		nc.Locations = append([]string(nil), n.Locations...)
		nc.ProofRefs = append([]string(nil), n.ProofRefs...)
		cp.Notices[i] = nc
	}
	if m.Extra != nil {
		cp.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			cp.Extra[k] = v
		}
	}
	if m.CancelledAt != nil {
		t := *m.CancelledAt
		cp.CancelledAt = &t
	}
	if m.Compliance.RequiredBy != nil {
		t := *m.Compliance.RequiredBy
		cp.Compliance.RequiredBy = &t
	}
	if m.Compliance.PostedAt != nil {
		t := *m.Compliance.PostedAt
		cp.Compliance.PostedAt = &t
	}
	return &cp
}

func cloneSession(es *ExecutiveSession) *ExecutiveSession {
	cp := *es
	cp.Attendees = append([]string(nil), es.Attendees...)
	return &cp
}

func cloneAction(a *Action) *Action {
	cp := *a
	cp.Votes = append([]VoteRecord(nil), a.Votes...)
	if a.Tally != nil {
		t := *a.Tally
		cp.Tally = &t
	}
	return &cp
}

func sortByID[T any](items []*T, key func(*T) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
