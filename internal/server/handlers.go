package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qrprompt/internal/bundle"
	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"
	"qrprompt/internal/logging"
	"qrprompt/internal/session"

	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Session string `json:"session,omitempty"`
}

type stateResponse struct {
	SessionID string                  `json:"session_id"`
	Meta      string                  `json:"meta"`
	Info      string                  `json:"info,omitempty"`
	Fields    []fiche.FieldDescriptor `json:"fields"`
	Values    map[string]string       `json:"values"`
	Targets   []targetResponse        `json:"targets"`
	Prompt    string                  `json:"prompt"`
}

type targetResponse struct {
	Name  string     `json:"name"`
	Label string     `json:"label"`
	Score int        `json:"score"`
	Tier  fiche.Tier `json:"tier"`
	Paid  bool       `json:"paid"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

type gpsResponse struct {
	Value  string `json:"value"`
	Prompt string `json:"prompt"`
}

type urlResponse struct {
	URL       string `json:"url"`
	ClientURI string `json:"client_uri,omitempty"`
}

type scanRequest struct {
	Raw string `json:"raw"`
}

type valueRequest struct {
	Value  *string  `json:"value"`
	Values []string `json:"values"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (s *Server) translator(r *http.Request) *i18n.Translator {
	return i18n.FromAcceptLanguage(r.Header.Get("Accept-Language"), s.tr)
}

// sendError maps session and payload errors to a status, a stable code and
// a localized message.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	tr := s.translator(r)
	status, code, msg := http.StatusInternalServerError, "internal", err.Error()

	switch {
	case errors.Is(err, fiche.ErrEmptyScan):
		status, code, msg = http.StatusBadRequest, "empty_scan", tr.T(i18n.EmptyScan)
	case errors.Is(err, fiche.ErrInvalidPayload):
		status, code, msg = http.StatusBadRequest, "invalid_payload", tr.T(i18n.InvalidPayload)
	case errors.Is(err, session.ErrStaleScan):
		status, code = http.StatusConflict, "stale_scan"
	case errors.Is(err, session.ErrNoFiche):
		status, code, msg = http.StatusNotFound, "no_fiche", tr.T(i18n.NoFiche)
	case errors.Is(err, session.ErrUnknownTarget):
		status, code, msg = http.StatusNotFound, "unknown_target", tr.T(i18n.UnknownTarget)+chi.URLParam(r, "name")
	case errors.Is(err, session.ErrUnknownField):
		status, code = http.StatusNotFound, "unknown_field"
	case errors.Is(err, session.ErrWrongKind):
		status, code = http.StatusUnprocessableEntity, "wrong_kind"
	}

	if status == http.StatusInternalServerError {
		logging.Get(logging.CategoryServer).Errorw("request failed", "path", r.URL.Path, "error", err)
	}
	sendJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Session: s.ctrl.SessionID(),
	})
}

func (s *Server) state(r *http.Request) stateResponse {
	snap := s.ctrl.Snapshot()
	tr := s.translator(r)

	targets := make([]targetResponse, 0, len(snap.Targets))
	for _, t := range snap.Targets {
		label := t.DisplayLabel()
		if t.Paid {
			label += " " + tr.T(i18n.PaidVersion)
		}
		targets = append(targets, targetResponse{
			Name:  t.Name,
			Label: label,
			Score: t.Score,
			Tier:  t.Tier,
			Paid:  t.Paid,
		})
	}
	fields := snap.Fields
	if fields == nil {
		fields = []fiche.FieldDescriptor{}
	}
	return stateResponse{
		SessionID: snap.SessionID,
		Meta:      snap.Meta,
		Info:      snap.Info,
		Fields:    fields,
		Values:    snap.Values,
		Targets:   targets,
		Prompt:    snap.Prompt,
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.ctrl.Scan(req.Raw); err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, s.state(r))
}

func (s *Server) handleFiche(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.Fiche() == nil {
		s.sendError(w, r, session.ErrNoFiche)
		return
	}
	sendJSON(w, http.StatusOK, s.state(r))
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	switch {
	case req.Values != nil:
		err = s.ctrl.SetFieldInputs(id, req.Values)
	case req.Value != nil:
		err = s.ctrl.SetValue(id, *req.Value)
	default:
		err = s.ctrl.SetValue(id, "")
	}
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, promptResponse{Prompt: s.ctrl.Compile()})
}

func (s *Server) handleGPS(w http.ResponseWriter, r *http.Request) {
	var fix fiche.GPSFix
	if err := decodeJSON(w, r, &fix); err != nil {
		s.badRequest(w, err)
		return
	}
	value, err := s.ctrl.SetGPS(fix)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, gpsResponse{Value: value, Prompt: s.ctrl.Compile()})
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.badRequest(w, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.badRequest(w, fmt.Errorf("read upload: %w", err))
		return
	}

	photo := fiche.Photo{
		FieldID:     chi.URLParam(r, "id"),
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := s.ctrl.AttachPhoto(photo); err != nil {
		s.sendError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, promptResponse{Prompt: s.ctrl.Compile()})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.state(r).Targets)
}

func (s *Server) handleTargetURL(w http.ResponseWriter, r *http.Request) {
	act, err := s.ctrl.Activate(chi.URLParam(r, "name"))
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, urlResponse{URL: act.URL, ClientURI: act.ClientURI})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	contents, err := s.ctrl.BundleContents()
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	name := strings.ReplaceAll(bundle.FileName(contents.SessionID), `"`, "")

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	if _, err := bundle.Write(w, contents); err != nil {
		logging.Get(logging.CategoryServer).Errorw("bundle stream failed", "session", contents.SessionID, "error", err)
	}
}
