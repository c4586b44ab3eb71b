package httpapi

import (
	"net/http"
	"strings"

	"civicgov.org/internal/meeting"
)

type createSessionRequest struct {
	AgendaItemID string `json:"agenda_item_id"`
	Basis        string `json:"basis"`
	Subject      string `json:"subject"`
}

type enterSessionRequest struct {
	EntryStatement string   `json:"entry_statement"`
	Attendees      []string `json:"attendees"`
}

type endSessionRequest struct {
	ExitStatement string `json:"exit_statement"`
}

type recusalRequest struct {
	MemberID     string `json:"member_id"`
	AgendaItemID string `json:"agenda_item_id"`
	Reason       string `json:"reason"`
	Citation     string `json:"citation"`
}

type attendanceRequest struct {
	MemberID string `json:"member_id"`
	Present  bool   `json:"present"`
}

// dispatchSessions routes /v1/meetings/{id}/sessions[/{sid}/{verb}].
func (a *API) dispatchSessions(w http.ResponseWriter, r *http.Request, meetingID string, parts []string) {
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodPost:
			a.createSession(w, r, meetingID)
		case http.MethodGet:
			a.listSessions(w, r, meetingID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.sessionVerb(w, r, meetingID, parts[0], parts[1])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request, meetingID string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	es, err := a.engine.CreateSession(r.Context(), meetingID, meeting.SessionInput{
		TenantID:     tenantID,
		AgendaItemID: req.AgendaItemID,
		Basis:        strings.TrimSpace(req.Basis),
		Subject:      strings.TrimSpace(req.Subject),
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "session.create", "session", es.ID, map[string]string{
		"meeting_id": meetingID,
		"basis":      es.Basis,
	})
	writeJSON(w, http.StatusCreated, es)
}

func (a *API) listSessions(w http.ResponseWriter, r *http.Request, meetingID string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	items, err := a.engine.ListSessions(r.Context(), tenantID, meetingID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) sessionVerb(w http.ResponseWriter, r *http.Request, meetingID, sessionID, verb string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var (
		es  *meeting.ExecutiveSession
		err error
	)
	switch verb {
	case "enter":
		var req enterSessionRequest
		if derr := decodeJSON(w, r, &req); derr != nil {
			writeError(w, r, http.StatusBadRequest, derr.Error())
			return
		}
		es, err = a.engine.EnterSession(r.Context(), tenantID, meetingID, sessionID, strings.TrimSpace(req.EntryStatement), req.Attendees)
	case "end":
		var req endSessionRequest
		if derr := decodeJSON(w, r, &req); derr != nil {
			writeError(w, r, http.StatusBadRequest, derr.Error())
			return
		}
		es, err = a.engine.EndSession(r.Context(), tenantID, meetingID, sessionID, strings.TrimSpace(req.ExitStatement))
	case "certify":
		es, err = a.engine.CertifySession(r.Context(), tenantID, meetingID, sessionID)
	case "cancel":
		es, err = a.engine.CancelSession(r.Context(), tenantID, meetingID, sessionID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "session."+verb, "session", es.ID, map[string]string{"meeting_id": meetingID})
	writeJSON(w, http.StatusOK, es)
}

func (a *API) postRecusal(w http.ResponseWriter, r *http.Request, meetingID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req recusalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.engine.RecordRecusal(r.Context(), meetingID, meeting.RecusalInput{
		TenantID:     tenantID,
		MemberID:     strings.TrimSpace(req.MemberID),
		AgendaItemID: req.AgendaItemID,
		Reason:       strings.TrimSpace(req.Reason),
		Citation:     req.Citation,
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "recusal.record", "recusal", rec.ID, map[string]string{
		"meeting_id": meetingID,
		"member_id":  rec.MemberID,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) postAttendance(w http.ResponseWriter, r *http.Request, meetingID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req attendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	att, err := a.engine.RecordAttendance(r.Context(), tenantID, meetingID, strings.TrimSpace(req.MemberID), req.Present)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (a *API) getQuorum(w http.ResponseWriter, r *http.Request, meetingID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	res, err := a.engine.CalculateQuorum(r.Context(), tenantID, meetingID, r.URL.Query().Get("agenda_item_id"))
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
