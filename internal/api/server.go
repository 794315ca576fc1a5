// Package api serves the lead pipeline as a small JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/pipeline"
	"github.com/ppiankov/leadradar/internal/store"
	"github.com/ppiankov/leadradar/internal/workflow"
)

// maxBodyBytes bounds JSON request bodies; pasted text can be long
const maxBodyBytes = 1 << 20

// Server is the HTTP API over the workflow service
type Server struct {
	svc *workflow.Service
}

// NewServer creates a Server
func NewServer(svc *workflow.Service) *Server {
	return &Server{svc: svc}
}

// Handler returns the router with all API routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan/text", s.handleScanText)
		r.Post("/scan/page", s.handleScanPage)

		r.Get("/opportunities", s.handleOpportunities)
		r.Post("/opportunities/{id}/convert", s.handleConvert)
		r.Post("/opportunities/{id}/discard", s.handleDiscard)
		r.Post("/opportunities/{id}/snooze", s.handleSnooze)
		r.Get("/opportunities/{id}/explain", s.handleExplain)

		r.Get("/today", s.handleToday)
		r.Post("/steps/{id}/sent", s.handleStepSent)
		r.Post("/steps/{id}/skip", s.handleStepSkip)

		r.Get("/playbooks", s.handlePlaybooks)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScanText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := s.svc.ScanText(r.Context(), req.Text)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	res, err := s.svc.ScanPage(r.Context(), req.URL)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OpportunityFilter{
		Status:     model.OpportunityStatus(strings.ToUpper(q.Get("status"))),
		SourceType: model.SourceType(strings.ToUpper(q.Get("source"))),
	}
	if filter.SourceType != "" && !filter.SourceType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown source type")
		return
	}
	var ok bool
	if filter.MinScore, ok = intParam(w, q.Get("min_score"), 0); !ok {
		return
	}
	if filter.Limit, ok = intParam(w, q.Get("limit"), 100); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), 0); !ok {
		return
	}

	board, err := s.svc.Board(r.Context(), filter)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	project, err := s.svc.Convert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	opp, err := s.svc.Discard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Until time.Time `json:"until"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Until.IsZero() {
		writeError(w, http.StatusBadRequest, "until is required")
		return
	}

	opp, err := s.svc.Snooze(r.Context(), chi.URLParam(r, "id"), req.Until)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	text, err := s.svc.Explain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	dueOnly := r.URL.Query().Get("due") == "1" || r.URL.Query().Get("due") == "true"
	items, err := s.svc.Today(r.Context(), dueOnly)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStepSent(w http.ResponseWriter, r *http.Request) {
	step, err := s.svc.MarkSent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handleStepSkip(w http.ResponseWriter, r *http.Request) {
	step, err := s.svc.Skip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) handlePlaybooks(w http.ResponseWriter, r *http.Request) {
	pbs, err := s.svc.ListPlaybooks(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pbs)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid numeric parameter: "+raw)
		return 0, false
	}
	return n, true
}

// writeFailure maps domain and fetch errors to status codes
func writeFailure(w http.ResponseWriter, err error) {
	var statusErr *pipeline.StatusError
	switch {
	case eris.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case eris.Is(err, model.ErrInvalidTransition), eris.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case eris.Is(err, pipeline.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case eris.Is(err, pipeline.ErrDisallowed), eris.Is(err, pipeline.ErrUnsupportedContent), errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		zap.L().Error("api request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
