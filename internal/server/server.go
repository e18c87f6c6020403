// Package server is the analysis HTTP service. It accepts a drawn region as
// a PNG data URL, forwards it to a vision model provider and returns the
// model's text reply untouched.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/logging"
)

// Prompt is the instruction sent alongside every image.
const Prompt = "Analyze this drawing or handwritten content. Provide a summary of what you see and suggest 3-5 relevant web links that would be helpful for learning more about the topics shown. Format your response as JSON with \"summary\" and \"links\" fields."

const (
	// DefaultAddr matches the endpoint the drawing window posts to.
	DefaultAddr = "127.0.0.1:5000"

	maxBodyBytes    = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Provider describes one image with a vision model.
type Provider interface {
	Name() string
	// KeyVar names the environment variable holding the provider's key.
	KeyVar() string
	Configured() bool
	Describe(ctx context.Context, dataURL string) (string, error)
}

// UpstreamError is an error body returned by the provider's API. It is
// passed through to the caller with the provider's status.
type UpstreamError struct {
	Status  int
	Message string
	Type    string
	Code    any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// FormatError is a successful provider reply with no usable text.
type FormatError struct {
	Provider string
	Raw      any
}

func (e *FormatError) Error() string {
	return "Unexpected response format from " + e.Provider
}

// Server serves POST /analyze.
type Server struct {
	provider Provider
	token    string
	log      *logging.Logger
	now      func() time.Time
}

type Option func(*Server)

// WithAccessToken requires callers to send "Authorization: Bearer <token>".
// An empty token disables the check.
func WithAccessToken(token string) Option {
	return func(s *Server) { s.token = strings.TrimSpace(token) }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(p Provider, opts ...Option) *Server {
	s := &Server{provider: p, log: logging.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler with CORS applied to every response.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/health", s.handleHealth)
	return s.cors(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("analysis server listening",
			zap.String("addr", addr),
			zap.String("provider", s.provider.Name()),
			zap.Bool("auth_enabled", s.token != ""),
		)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("analysis server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"provider":   s.provider.Name(),
		"configured": s.provider.Configured(),
	})
}

type analyzeRequest struct {
	Image string `json:"image"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	log := s.log.With(zap.String("request_id", id))
	start := s.now()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.authorized(r) {
		log.Warn("rejected unauthenticated request", zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !s.provider.Configured() {
		writeError(w, http.StatusInternalServerError, "Missing "+s.provider.KeyVar()+" on server")
		return
	}

	var req analyzeRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || json.Unmarshal(body, &req) != nil || strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "No image data received")
		return
	}

	text, err := s.provider.Describe(r.Context(), req.Image)
	elapsed := zap.Duration("elapsed", s.now().Sub(start))
	var upstream *UpstreamError
	var format *FormatError
	switch {
	case err == nil:
		log.Info("analysis complete", zap.Int("chars", len(text)), elapsed)
		writeJSON(w, http.StatusOK, map[string]string{"content": text})
	case errors.As(err, &upstream):
		log.Warn("provider returned an error", zap.Int("status", upstream.Status), zap.String("message", upstream.Message), elapsed)
		status := upstream.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]any{"error": map[string]any{
			"message": upstream.Message,
			"type":    upstream.Type,
			"code":    upstream.Code,
		}})
	case errors.As(err, &format):
		log.Warn("provider reply had no text", elapsed)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": format.Error(),
			"raw":   format.Raw,
		})
	default:
		log.Error("provider request failed", zap.Error(err), elapsed)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.token)) == 1
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
