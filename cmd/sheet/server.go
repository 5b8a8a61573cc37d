package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/pefman/w40k-cheatsheet/internal/config"
	"github.com/pefman/w40k-cheatsheet/internal/session"
)

type server struct {
	cfg      *config.Configuration
	svc      session.Service
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func newRouter(cfg *config.Configuration, svc session.Service, log *logrus.Logger) (http.Handler, error) {
	s := &server{cfg: cfg, svc: svc, log: log}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	ws := http.Handler(http.HandlerFunc(s.handleWS))
	if cfg.WSRateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.WSRateLimit)
		if err != nil {
			return nil, errors.Wrap(err, "ws rate limit")
		}
		ws = limiterhttp.NewMiddleware(limiter.New(memory.NewStore(), rate)).Handler(ws)
	}

	r := mux.NewRouter()
	r.Handle("/", gziphandler.GzipHandler(http.HandlerFunc(serveIndex))).Methods(http.MethodGet)
	r.Handle("/ws", ws)
	r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)

	// flat routes: a mux subrouter would turn method mismatches into 404s
	r.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": buildVersion, "buildTime": buildTime})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/today", handleStatsToday).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, r.Method+" not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r), nil
}

// checkOrigin applies CORS_ALLOWED_ORIGINS to websocket upgrades.
func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := strings.ReplaceAll(indexHTML, "{{BUILD_VERSION}}", buildVersion)
	fmt.Fprint(w, html)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}
