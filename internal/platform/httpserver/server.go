package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	notificationservice "stackit/contexts/community-qa/notification-service"
	questionservice "stackit/contexts/community-qa/question-service"
	voteledger "stackit/contexts/community-qa/vote-ledger"
	authservice "stackit/contexts/identity-access/auth-service"
	"stackit/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "stackit/internal/platform/httpserver/docs"
)

const maxRequestBody = 1 << 20

var errInvalidLimit = errors.New("limit must be an integer")

type Server struct {
	mux           *http.ServeMux
	httpServer    *http.Server
	logger        *slog.Logger
	addr          string
	auth          authservice.Module
	questions     questionservice.Module
	ledger        voteledger.Module
	notifications notificationservice.Module
	metrics       *metrics.Registry
	checks        []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func New(
	authModule authservice.Module,
	questionModule questionservice.Module,
	ledgerModule voteledger.Module,
	notificationModule notificationservice.Module,
	registry *metrics.Registry,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		auth:          authModule,
		questions:     questionModule,
		ledger:        ledgerModule,
		notifications: notificationModule,
		metrics:       registry,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.metrics.Instrument(s.mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/auth/me", s.handleMe)
	s.mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/users/{username}", s.handleUserProfile)
	s.mux.HandleFunc("PUT /api/users/me", s.handleUpdateProfile)

	s.mux.HandleFunc("GET /api/questions", s.handleListQuestions)
	s.mux.HandleFunc("POST /api/questions", s.handleCreateQuestion)
	s.mux.HandleFunc("GET /api/questions/{question_id}", s.handleGetQuestion)
	s.mux.HandleFunc("PUT /api/questions/{question_id}", s.handleUpdateQuestion)
	s.mux.HandleFunc("DELETE /api/questions/{question_id}", s.handleDeleteQuestion)
	s.mux.HandleFunc("POST /api/questions/{question_id}/vote", s.handleVoteQuestion)
	s.mux.HandleFunc("POST /api/questions/{question_id}/answers", s.handleCreateAnswer)

	s.mux.HandleFunc("PUT /api/answers/{answer_id}", s.handleUpdateAnswer)
	s.mux.HandleFunc("DELETE /api/answers/{answer_id}", s.handleDeleteAnswer)
	s.mux.HandleFunc("POST /api/answers/{answer_id}/vote", s.handleVoteAnswer)
	s.mux.HandleFunc("POST /api/answers/{answer_id}/accept", s.handleAcceptAnswer)
	s.mux.HandleFunc("POST /api/answers/{answer_id}/comments", s.handleAddComment)
	s.mux.HandleFunc("DELETE /api/answers/{answer_id}/comments/{comment_id}", s.handleDeleteComment)
	s.mux.HandleFunc("GET /api/posts/{post_id}/votes", s.handleVoteState)

	s.mux.HandleFunc("GET /api/tags", s.handleListTags)
	s.mux.HandleFunc("GET /api/tags/popular", s.handlePopularTags)
	s.mux.HandleFunc("POST /api/tags", s.handleCreateTag)
	s.mux.HandleFunc("PUT /api/tags/{name}", s.handleUpdateTag)
	s.mux.HandleFunc("DELETE /api/tags/{name}", s.handleDeleteTag)

	s.mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	s.mux.HandleFunc("GET /api/notifications/unread-count", s.handleUnreadCount)
	s.mux.HandleFunc("POST /api/notifications/{notification_id}/read", s.handleMarkNotificationRead)
	s.mux.HandleFunc("POST /api/notifications/read-all", s.handleMarkAllNotificationsRead)
}

// AddHealthCheck registers a dependency check reported by /healthz.
func (s *Server) AddHealthCheck(name string, check func(context.Context) error) {
	s.checks = append(s.checks, healthCheck{name: name, check: check})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for _, check := range s.checks {
		if err := check.check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[check.name] = err.Error()
			continue
		}
		body[check.name] = "ok"
	}
	writeJSON(w, status, body)
}

// decodeJSON reports false after writing a 400 when the body is not valid
// JSON. An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any, allowEmpty bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(target); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_json", Message: "request body must be valid JSON"})
		return false
	}
	return true
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidLimit
	}
	return limit, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
