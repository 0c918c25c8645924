package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	clientBuffer      = 10
	heartbeatInterval = 25 * time.Second
)

type server struct {
	hub       *Hub
	logger    *zap.Logger
	jwtSecret []byte
	heartbeat time.Duration
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)

	// The stream stays open for the whole session, so it skips the request
	// logger and duration histogram.
	r.Get("/notifications/subscribe", s.subscribe)
	r.Get("/subscribe", s.subscribe)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestLogger(s.logger))
		r.Use(middleware.MetricsMiddleware)
		r.Get("/health", s.health)
		r.Handle("/metrics", middleware.GetMetricsHandler())
	})
	return r
}

func tokenFrom(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *server) subscribe(w http.ResponseWriter, r *http.Request) {
	log := middleware.WithTrace(s.logger, r)

	token := tokenFrom(r)
	if token == "" {
		response.Error(w, http.StatusUnauthorized, "Missing token", "")
		return
	}
	claims, err := middleware.ParseToken(token, s.jwtSecret)
	if err != nil {
		log.Warn("[WARN] Invalid token attempt", zap.Error(err))
		response.Error(w, http.StatusUnauthorized, "Invalid or expired token", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := newClient(claims, clientBuffer)
	if !s.hub.Register(client) {
		response.Error(w, http.StatusServiceUnavailable, "Service shutting down", "")
		return
	}
	defer s.hub.Unregister(client)

	fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case m, ok := <-client.Send:
			if !ok {
				return
			}
			data, err := json.Marshal(m)
			if err != nil {
				log.Error("[ERROR] Failed to encode event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Type, data)
			flusher.Flush()
		}
	}
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Notification service is healthy", map[string]int{
		"connected_clients": s.hub.ClientCount(),
	})
}
