package web

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"planner/internal/config"
	appLog "planner/internal/log"
	"planner/internal/model"
	"planner/internal/schedule"
)

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

// Server exposes the planner engine as a JSON API.
type Server struct {
	cfg    *config.Config
	engine *schedule.Engine
	health HealthFunc
	loc    *time.Location
	router *mux.Router
	now    func() time.Time
}

// NewServer constructs a new Server. health may be nil.
func NewServer(cfg *config.Config, engine *schedule.Engine, health HealthFunc) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		health: health,
		loc:    ResolveLocation(cfg.Timezone),
		router: mux.NewRouter(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if s.cfg != nil && s.cfg.BasicAuth.Enabled() {
		appLog.Info("api requires basic auth", "user", s.cfg.BasicAuth.Username)
		api.Use(requireOperator(*s.cfg.BasicAuth))
	}
	api.HandleFunc("/week", s.handleWeek).Methods(http.MethodGet)
	api.HandleFunc("/week.ics", s.handleWeekICS).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/conflicts", s.handleConflicts).Methods(http.MethodPost)
	api.HandleFunc("/unavailability", s.handleUnavailability).Methods(http.MethodPost)
	api.HandleFunc("/relocate", s.handleRelocate).Methods(http.MethodPost)
	api.HandleFunc("/blocks/{id}", s.handleDeleteBlock).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// requireOperator gates the planning API behind the operator's credentials.
// Both sides are hashed first so the comparison runs over equal lengths.
func requireOperator(creds config.BasicAuthConfig) mux.MiddlewareFunc {
	wantUser := sha256.Sum256([]byte(creds.Username))
	wantPass := sha256.Sum256([]byte(creds.Password))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			gotUser := sha256.Sum256([]byte(user))
			gotPass := sha256.Sum256([]byte(pass))
			userOK := subtle.ConstantTimeCompare(gotUser[:], wantUser[:])
			passOK := subtle.ConstantTimeCompare(gotPass[:], wantPass[:])
			if !ok || userOK&passOK != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="planner-api", charset="UTF-8"`)
				writeError(w, http.StatusUnauthorized, "operator credentials required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Run serves the API on cfg.Listen until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// ResolveLocation loads an IANA zone, falling back to time.Local.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

// weekParam resolves ?date= to its week. Missing means today.
func (s *Server) weekParam(r *http.Request) (model.WeekWindow, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return model.WeekOf(model.DateOf(s.now().In(s.loc))), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.WeekWindow{}, err
	}
	return model.WeekOf(d), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
