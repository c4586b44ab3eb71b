package httpapi

import (
	"net/http"
	"strings"

	"civicgov.org/internal/meeting"
	"civicgov.org/internal/obs"
)

type createActionRequest struct {
	AgendaItemID string `json:"agenda_item_id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	MovedBy      string `json:"moved_by"`
}

type secondRequest struct {
	SecondedBy string `json:"seconded_by"`
}

type voteRequest struct {
	MemberID string `json:"member_id"`
	Value    string `json:"value"`
}

type closeVotingRequest struct {
	Disposition string `json:"disposition"`
}

type minutesRequest struct {
	Content string `json:"content"`
}

// dispatchActions routes /v1/meetings/{id}/actions[/{aid}/{verb}].
func (a *API) dispatchActions(w http.ResponseWriter, r *http.Request, meetingID string, parts []string) {
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodPost:
			a.createAction(w, r, meetingID)
		case http.MethodGet:
			a.listActions(w, r, meetingID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case 2:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.actionVerb(w, r, meetingID, parts[0], parts[1])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createAction(w http.ResponseWriter, r *http.Request, meetingID string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req createActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	act, err := a.engine.CreateAction(r.Context(), meetingID, meeting.ActionInput{
		TenantID:     tenantID,
		AgendaItemID: req.AgendaItemID,
		Kind:         meeting.ActionKind(req.Kind),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		MovedBy:      strings.TrimSpace(req.MovedBy),
	})
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "action.create", "action", act.ID, map[string]string{
		"meeting_id": meetingID,
		"kind":       string(act.Kind),
	})
	writeJSON(w, http.StatusCreated, act)
}

func (a *API) listActions(w http.ResponseWriter, r *http.Request, meetingID string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	items, err := a.engine.ListActions(r.Context(), tenantID, meetingID)
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) actionVerb(w http.ResponseWriter, r *http.Request, meetingID, actionID, verb string) {
	tenantID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var (
		act *meeting.Action
		err error
	)
	switch verb {
	case "second":
		var req secondRequest
		if derr := decodeJSON(w, r, &req); derr != nil {
			writeError(w, r, http.StatusBadRequest, derr.Error())
			return
		}
		act, err = a.engine.SecondAction(r.Context(), tenantID, meetingID, actionID, strings.TrimSpace(req.SecondedBy))
	case "votes":
		var req voteRequest
		if derr := decodeJSON(w, r, &req); derr != nil {
			writeError(w, r, http.StatusBadRequest, derr.Error())
			return
		}
		act, err = a.engine.RecordVote(r.Context(), tenantID, meetingID, actionID, strings.TrimSpace(req.MemberID), meeting.VoteValue(req.Value))
		if err == nil {
			obs.ObserveVote()
		}
	case "close":
		var req closeVotingRequest
		if derr := decodeJSON(w, r, &req); derr != nil {
			writeError(w, r, http.StatusBadRequest, derr.Error())
			return
		}
		act, err = a.engine.CloseVoting(r.Context(), tenantID, meetingID, actionID, meeting.ActionResult(req.Disposition))
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		handleEngineError(w, r, err)
		return
	}
	a.audit(r.Context(), "action."+verb, "action", act.ID, map[string]string{
		"meeting_id": meetingID,
		"result":     string(act.Result),
	})
	writeJSON(w, http.StatusOK, act)
}

// dispatchMinutes routes /v1/meetings/{id}/minutes[/submit|/approve].
func (a *API) dispatchMinutes(w http.ResponseWriter, r *http.Request, meetingID string, parts []string) {
	tenantID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		min, err := a.engine.GetMinutes(r.Context(), tenantID, meetingID)
		if err != nil {
			handleEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, min)
	case len(parts) == 0 && r.Method == http.MethodPut:
		var req minutesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		min, err := a.engine.UpsertMinutes(r.Context(), meetingID, meeting.MinutesInput{
			TenantID:   tenantID,
			Content:    req.Content,
			PreparedBy: userID,
		})
		if err != nil {
			handleEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, min)
	case len(parts) == 0:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	case len(parts) == 1 && parts[0] == "submit" && r.Method == http.MethodPost:
		min, err := a.engine.SubmitMinutes(r.Context(), tenantID, meetingID)
		if err != nil {
			handleEngineError(w, r, err)
			return
		}
		a.audit(r.Context(), "minutes.submit", "minutes", min.ID, map[string]string{"meeting_id": meetingID})
		writeJSON(w, http.StatusOK, min)
	case len(parts) == 1 && parts[0] == "approve" && r.Method == http.MethodPost:
		min, err := a.engine.ApproveMinutes(r.Context(), tenantID, meetingID, userID)
		if err != nil {
			handleEngineError(w, r, err)
			return
		}
		a.audit(r.Context(), "minutes.approve", "minutes", min.ID, map[string]string{"meeting_id": meetingID})
		writeJSON(w, http.StatusOK, min)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
