// Package server exposes the coordinator over a local HTTP message API.
// The popup and settings CLI are its only intended clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bnema/linktint/internal/coordinator"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/logging"
)

// Message is a request envelope. Unknown actions are answered with a
// failure response, never an HTTP error.
type Message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Response is the uniform reply envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// injectRequest is the payload for the injectCSS action.
type injectRequest struct {
	TabID string `json:"tabId"`
}

// Server serves the message API.
type Server struct {
	coord *coordinator.Coordinator
	http  *http.Server
}

// New creates a server bound to addr (loopback by convention).
func New(coord *coordinator.Coordinator, addr string) *Server {
	s := &Server{coord: coord}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/api/v1/message", s.handleMessage)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	log := logging.FromContext(ctx).With().Str("component", "server").Logger()

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("message API listening")

	s.http.BaseContext = func(net.Listener) context.Context { return ctx }
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context()).With().Str("component", "server").Logger()

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeResponse(w, Response{Success: false, Error: "malformed request body"})
		return
	}

	log.Debug().Str("action", msg.Action).Msg("message received")

	switch msg.Action {
	case "getSettings":
		writeResponse(w, Response{Success: true, Data: s.coord.GetSettings()})

	case "updateSettings":
		var patch entity.SettingsPatch
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &patch); err != nil {
				writeResponse(w, Response{Success: false, Error: "malformed settings payload"})
				return
			}
		}
		if err := s.coord.UpdateSettings(r.Context(), patch); err != nil {
			writeResponse(w, Response{Success: false, Error: err.Error()})
			return
		}
		writeResponse(w, Response{Success: true, Data: s.coord.GetSettings()})

	case "injectCSS":
		var req injectRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				writeResponse(w, Response{Success: false, Error: "malformed inject payload"})
				return
			}
		}
		if req.TabID == "" {
			writeResponse(w, Response{Success: false, Error: "tabId is required"})
			return
		}
		ok := s.coord.InjectTab(r.Context(), req.TabID)
		writeResponse(w, Response{Success: ok})

	case "getActiveTab":
		tab, site := s.coord.ActiveTab()
		writeResponse(w, Response{Success: true, Data: map[string]string{
			"tabId": tab.ID,
			"url":   tab.URL,
			"site":  site,
		}})

	case "ping":
		writeResponse(w, Response{Success: true, Data: "pong"})

	default:
		writeResponse(w, Response{Success: false, Error: fmt.Sprintf("unknown action: %s", msg.Action)})
	}
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
