package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"otkeys/internal/domain"
)

// MaxUploadKeys caps the keys accepted in one upload.
const MaxUploadKeys = 1000

// Server is an in-memory key directory. Uploaded keys are queued per user and
// handed out oldest first, each to a single claimant.
type Server struct {
	mu    sync.Mutex
	users map[domain.Username]*userKeys

	log      *slog.Logger
	requests *prometheus.CounterVec
	claims   *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

type userKeys struct {
	queue []domain.OneTimeKey
	known map[domain.X25519Public]struct{}
}

// NewServer returns an empty directory. Metrics are registered with reg and
// served from gatherer; either may be nil to disable them.
func NewServer(logger *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		users: make(map[domain.Username]*userKeys),
		log:   logger,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otkeys_directory_requests_total",
				Help: "Total number of directory HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		claims: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otkeys_directory_claims_total",
				Help: "Total number of one-time key claims by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: gatherer,
	}
	if reg != nil {
		reg.MustRegister(s.requests, s.claims)
	}
	return s
}

// Handler returns the HTTP routes of the directory.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logging)

	r.Route("/v1/keys/{username}", func(r chi.Router) {
		r.Post("/", s.handlePublish)
		r.Post("/claim", s.handleClaim)
		r.Get("/count", s.handleCount)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	username := domain.Username(chi.URLParam(r, "username"))

	var req publishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(req.OneTimeKeys) > MaxUploadKeys {
		http.Error(w, "too many keys", http.StatusRequestEntityTooLarge)
		return
	}

	s.mu.Lock()
	u, ok := s.users[username]
	if !ok {
		u = &userKeys{known: make(map[domain.X25519Public]struct{})}
		s.users[username] = u
	}
	added := 0
	for _, k := range req.OneTimeKeys {
		if _, dup := u.known[k.Public]; dup {
			continue
		}
		u.known[k.Public] = struct{}{}
		u.queue = append(u.queue, k)
		added++
	}
	stored := len(u.queue)
	s.mu.Unlock()

	s.log.Info("one-time keys uploaded",
		slog.String("username", username.String()),
		slog.Int("added", added),
		slog.Int("stored", stored),
	)
	writeJSON(w, http.StatusOK, publishResponse{Stored: stored})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	username := domain.Username(chi.URLParam(r, "username"))

	s.mu.Lock()
	u, ok := s.users[username]
	if !ok || len(u.queue) == 0 {
		s.mu.Unlock()
		s.claims.WithLabelValues("empty").Inc()
		http.Error(w, "no one-time keys", http.StatusNotFound)
		return
	}
	k := u.queue[0]
	u.queue = u.queue[1:]
	s.mu.Unlock()

	s.claims.WithLabelValues("claimed").Inc()
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	username := domain.Username(chi.URLParam(r, "username"))

	s.mu.Lock()
	n := 0
	if u, ok := s.users[username]; ok {
		n = len(u.queue)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// logging records one structured line per request and counts it.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
