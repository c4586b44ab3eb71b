package httpapi

import (
	"net/http"
	"strings"
	"time"

	"civicgov.org/internal/auth"
	"civicgov.org/internal/meeting"
	"civicgov.org/internal/obs"
)

// requireIdentity pulls the authenticated tenant and user from the context.
func requireIdentity(w http.ResponseWriter, r *http.Request) (tenantID, userID string, ok bool) {
	tenantID, tok := auth.TenantFromContext(r.Context())
	userID, uok := auth.UserIDFromContext(r.Context())
	if !tok || !uok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return "", "", false
	}
	return tenantID, userID, true
}

// --- bodies ---

type createBodyRequest struct {
	Name            string           `json:"name"`
	Members         []meeting.Member `json:"members"`
	QuorumThreshold int              `json:"quorum_threshold"`
	PassThreshold   int              `json:"pass_threshold"`
	NoticeLeadHours int              `json:"notice_lead_hours"`
}

func (a *API) handleBodiesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createBody(w, r)
	case http.MethodGet:
		a.listBodies(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBodyResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/bodies/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	b, err := a.engine.GetBody(r.Context(), tenantID, id)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) createBody(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req createBodyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, err := a.engine.CreateBody(r.Context(), meeting.CreateBodyInput{
		TenantID:        tenantID,
		Name:            strings.TrimSpace(req.Name),
		Members:         req.Members,
		QuorumThreshold: req.QuorumThreshold,
		PassThreshold:   req.PassThreshold,
		NoticeLeadHours: req.NoticeLeadHours,
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "body.create", "body", b.ID, map[string]string{"name": b.Name})
	w.Header().Set("Location", "/v1/bodies/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) listBodies(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	items, err := a.engine.ListBodies(r.Context(), tenantID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// --- meetings ---

type scheduleMeetingRequest struct {
	BodyID         string    `json:"body_id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
}

type noticeRequest struct {
	Methods   []string `json:"methods"`
	Locations []string `json:"locations"`
	ProofRefs []string `json:"proof_refs"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (a *API) handleMeetingsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.scheduleMeeting(w, r)
	case http.MethodGet:
		a.listMeetings(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleMeetingResource dispatches everything under /v1/meetings/{id}/...
func (a *API) handleMeetingResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/meetings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	meetingID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getMeeting(w, r, meetingID)
		return
	}

	switch parts[1] {
	case "notice":
		a.postNotice(w, r, meetingID)
	case "start", "recess", "resume", "adjourn":
		a.transition(w, r, meetingID, parts[1])
	case "cancel":
		a.cancelMeeting(w, r, meetingID)
	case "sessions":
		a.dispatchSessions(w, r, meetingID, parts[2:])
	case "recusals":
		a.postRecusal(w, r, meetingID)
	case "attendance":
		a.postAttendance(w, r, meetingID)
	case "quorum":
		a.getQuorum(w, r, meetingID)
	case "actions":
		a.dispatchActions(w, r, meetingID, parts[2:])
	case "minutes":
		a.dispatchMinutes(w, r, meetingID, parts[2:])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) scheduleMeeting(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req scheduleMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := a.engine.ScheduleMeeting(r.Context(), meeting.ScheduleMeetingInput{
		TenantID:       tenantID,
		BodyID:         strings.TrimSpace(req.BodyID),
		Kind:           meeting.Kind(req.Kind),
		Title:          strings.TrimSpace(req.Title),
		Location:       req.Location,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		CreatedBy:      userID,
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "meeting.schedule", "meeting", m.ID, map[string]string{
		"body_id": m.BodyID,
		"kind":    string(m.Kind),
	})
	w.Header().Set("Location", "/v1/meetings/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) listMeetings(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	items, err := a.engine.ListMeetings(r.Context(), tenantID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getMeeting(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	m, err := a.engine.GetMeeting(r.Context(), tenantID, id)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) postNotice(w http.ResponseWriter, r *http.Request, meetingID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	tenantID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req noticeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := a.engine.MarkNoticePosted(r.Context(), meetingID, meeting.NoticeInput{
		TenantID:  tenantID,
		PostedBy:  userID,
		Methods:   req.Methods,
		Locations: req.Locations,
		ProofRefs: req.ProofRefs,
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	obs.ObserveNoticeVerdict(string(m.Compliance.State))
	a.audit(r.Context(), "meeting.notice.post", "meeting", m.ID, map[string]string{
		"verdict": string(m.Compliance.State),
	})
	writeJSON(w, http.StatusOK, m)
}

func (a *API) transition(w http.ResponseWriter, r *http.Request, meetingID, name string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var (
		m   *meeting.Meeting
		err error
	)
	switch name {
	case "start":
		m, err = a.engine.StartMeeting(r.Context(), tenantID, meetingID)
	case "recess":
		m, err = a.engine.RecessMeeting(r.Context(), tenantID, meetingID)
	case "resume":
		m, err = a.engine.ResumeMeeting(r.Context(), tenantID, meetingID)
	case "adjourn":
		m, err = a.engine.AdjournMeeting(r.Context(), tenantID, meetingID)
	}
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	obs.ObserveTransition(name)
	a.audit(r.Context(), "meeting."+name, "meeting", m.ID, nil)
	writeJSON(w, http.StatusOK, m)
}

func (a *API) cancelMeeting(w http.ResponseWriter, r *http.Request, meetingID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	tenantID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := a.engine.CancelMeeting(r.Context(), tenantID, meetingID, userID, strings.TrimSpace(req.Reason))
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	obs.ObserveTransition("cancel")
	a.audit(r.Context(), "meeting.cancel", "meeting", m.ID, map[string]string{"reason": m.CancelReason})
	writeJSON(w, http.StatusOK, m)
}
