package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/tracker"
)

var errBadRequest = errors.New("bad request")

type treeRequest struct {
	Tree    json.RawMessage `json:"tree"`
	Context map[string]any  `json:"context"`
	Source  string          `json:"source"`
}

type actionRequest struct {
	Type        string         `json:"type"`
	Args        map[string]any `json:"args"`
	Description string         `json:"description"`
}

// ActionResponse is the wire form of an action result.
type ActionResponse struct {
	Success bool   `json:"success"`
	Queued  bool   `json:"queued"`
	Error   string `json:"error,omitempty"`
}

type moveRequest struct {
	CardID string `json:"card_id"`
	To     string `json:"to"`
}

type editRequest struct {
	Value any `json:"value"`
}

// ChangesResponse lists pending changes.
type ChangesResponse struct {
	Summary string                 `json:"summary"`
	Changes []domain.PendingChange `json:"changes"`
}

type generateRequest struct {
	Prompt  string   `json:"prompt"`
	Sources []string `json:"sources"`
}

// GenerateResponse reports a stored generated view.
type GenerateResponse struct {
	Version int64                    `json:"version"`
	Issues  []domain.ValidationIssue `json:"issues"`
	Sources []string                 `json:"sources"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) putTree(w http.ResponseWriter, r *http.Request) {
	var body treeRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, err := generate.ParseTree(string(body.Tree))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	snap, err := s.engine.Inject(r.Context(), chi.URLParam(r, "id"), tree, body.Context, body.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	page, err := s.engine.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) executeAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	res := s.engine.Execute(r.Context(), chi.URLParam(r, "id"), domain.ActionRequest{
		Type:        body.Type,
		Args:        body.Args,
		Description: body.Description,
	})
	status := http.StatusOK
	switch {
	case res.HardFailure():
		status = http.StatusBadGateway
	case res.Queued:
		status = http.StatusAccepted
	}
	writeJSON(w, status, ActionResponse{Success: res.Success, Queued: res.Queued, Error: res.ErrorString()})
}

func (s *Server) moveCard(w http.ResponseWriter, r *http.Request) {
	var body moveRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.MoveCard(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "node"), body.CardID, body.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) editField(w http.ResponseWriter, r *http.Request) {
	var body editRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.EditField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "node"), body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.engine.Changes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse(changes))
}

func (s *Server) confirmChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.engine.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse(changes))
}

func changesResponse(changes []domain.PendingChange) ChangesResponse {
	if changes == nil {
		changes = []domain.PendingChange{}
	}
	return ChangesResponse{Summary: tracker.Summarize(changes), Changes: changes}
}

func (s *Server) generateView(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, snap, err := s.engine.Generate(r.Context(), chi.URLParam(r, "id"), body.Prompt, body.Sources...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := GenerateResponse{Version: snap.Version, Issues: res.Issues, Sources: res.Sources}
	if resp.Issues == nil {
		resp.Issues = []domain.ValidationIssue{}
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}
