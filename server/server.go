package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gita_story_weaver/frontend"
	"gita_story_weaver/generator"
	"gita_story_weaver/publisher"
	"gita_story_weaver/session"
)

//go:embed web
var embeddedStatic embed.FS

const defaultRequestTimeout = 10 * time.Minute

type Server struct {
	svc      *frontend.Service
	logger   *slog.Logger
	timeout  time.Duration
	metrics  http.Handler
	staticFS http.Handler
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestTimeout bounds one story request. Zero keeps the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(svc *frontend.Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("frontend service required")
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:      svc,
		logger:   slog.Default(),
		timeout:  defaultRequestTimeout,
		staticFS: http.FileServer(http.FS(sub)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Timeout is the per-request budget for story generation.
func (s *Server) Timeout() time.Duration { return s.timeout }

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Post("/sessions", s.handleSessionCreate)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionGet)
			r.Post("/actions", s.handleAction)
			r.Post("/messages", s.handleMessage)
		})
	})

	r.Handle("/*", s.staticFS)
	return r
}

// --- Handlers ---

type sessionResp struct {
	SessionID string             `json:"session_id"`
	Messages  []frontend.Message `json:"messages"`
	Story     *publisher.Story   `json:"story,omitempty"`
}

type messageReq struct {
	Content string `json:"content"`
}

type themesResp struct {
	Themes []generator.Theme `json:"themes"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var msgs []frontend.Message
	sess, err := s.svc.Start(r.Context(), frontend.Collect(&msgs))
	if err != nil {
		s.logger.Error("session start failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: frontend.MsgThemesFailed})
		return
	}
	writeJSON(w, http.StatusCreated, sessionResp{SessionID: sess.ID, Messages: msgs})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var action frontend.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid request body"})
		return
	}
	id := chi.URLParam(r, "id")
	s.tell(w, r, id, func(ctx context.Context, emit frontend.Emit) (frontend.Result, error) {
		return s.svc.Select(ctx, id, action, emit)
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid request body"})
		return
	}
	id := chi.URLParam(r, "id")
	s.tell(w, r, id, func(ctx context.Context, emit frontend.Emit) (frontend.Result, error) {
		return s.svc.Message(ctx, id, req.Content, emit)
	})
}

func (s *Server) tell(w http.ResponseWriter, r *http.Request, id string, call func(context.Context, frontend.Emit) (frontend.Result, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var msgs []frontend.Message
	res, err := call(ctx, frontend.Collect(&msgs))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	status := http.StatusOK
	if res.Failed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, sessionResp{SessionID: id, Messages: msgs, Story: res.Story})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.Themes(r.Context())
	if err != nil {
		s.logger.Error("theme generation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResp{Error: frontend.MsgThemesFailed})
		return
	}
	themes := make([]generator.Theme, len(raw))
	for i, t := range raw {
		themes[i] = generator.SplitTheme(t)
	}
	writeJSON(w, http.StatusOK, themesResp{Themes: themes})
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "session not found"})
	case errors.Is(err, frontend.ErrUnknownAction), errors.Is(err, frontend.ErrInvalidAction):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	default:
		s.logger.Error("session store failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: frontend.MsgStoryFailed})
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
