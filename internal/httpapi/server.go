package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/tripgenie/internal/audit"
	"github.com/antoniostano/tripgenie/internal/config"
	"github.com/antoniostano/tripgenie/internal/dialogue"
	"github.com/antoniostano/tripgenie/internal/observability"
	"github.com/antoniostano/tripgenie/internal/protocol"
	"github.com/antoniostano/tripgenie/internal/session"
)

const defaultTranscriptLimit = 20

type Server struct {
	cfg      config.Config
	router   *dialogue.Router
	sessions *session.Manager
	audit    audit.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// New wires the HTTP and websocket transports to router. auditStore may be
// nil, in which case the transcript endpoint reports 404.
func New(cfg config.Config, router *dialogue.Router, metrics *observability.Metrics, auditStore audit.Store) *Server {
	return &Server{
		cfg:      cfg,
		router:   router,
		sessions: router.Sessions(),
		audit:    auditStore,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients must come from the same origin unless
				// APP_ALLOW_ANY_ORIGIN is set.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("TripGenie backend is live!"))
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/message", s.handleMessage)
	r.Post("/location", s.handleLocation)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/sessions/{sender}", s.handleGetSession)
	r.Get("/v1/sessions/{sender}/turns", s.handleListTurns)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
		"audit_store":     s.auditMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"audit_store": s.auditMode(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var ev protocol.InboundEvent
	if err := decodeJSON(r, &ev); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := ev.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.reply(r.Context(), w, ev)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var req protocol.LocationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ev, err := req.Event()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_location", err.Error())
		return
	}
	s.reply(r.Context(), w, ev)
}

func (s *Server) reply(ctx context.Context, w http.ResponseWriter, ev protocol.InboundEvent) {
	text := s.router.Handle(ctx, ev)
	respondJSON(w, http.StatusOK, protocol.ReplyResponse{Reply: text})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sender := strings.TrimSpace(chi.URLParam(r, "sender"))
	if sender == "" {
		respondError(w, http.StatusBadRequest, "invalid_sender", "missing sender")
		return
	}
	sess, err := s.sessions.Get(sender)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, session.SnapshotResponse{
		Session:         sess,
		Allowed:         s.sessions.IsAllowed(sender),
		InactivityTTLMS: s.sessions.Timeout().Milliseconds(),
	})
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	sender := strings.TrimSpace(chi.URLParam(r, "sender"))
	if sender == "" {
		respondError(w, http.StatusBadRequest, "invalid_sender", "missing sender")
		return
	}
	if s.audit == nil {
		respondError(w, http.StatusNotFound, "audit_disabled", "audit store not configured")
		return
	}
	limit := defaultTranscriptLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	turns, err := s.audit.RecentTurns(r.Context(), sender, limit)
	if err != nil {
		log.Printf("httpapi: list turns sender=%s: %v", sender, err)
		respondError(w, http.StatusInternalServerError, "audit_unavailable", "could not load transcript")
		return
	}
	if turns == nil {
		turns = []audit.TurnRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sender": sender,
		"turns":  turns,
	})
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sender := strings.TrimSpace(r.URL.Query().Get("sender"))
	if sender == "" {
		respondError(w, http.StatusBadRequest, "missing_sender", "query parameter sender is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	s.metrics.SessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.InboundEvent, 64)
	outbound := make(chan any, 64)

	// Events are routed one at a time per connection; the router serializes
	// across connections of the same sender.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		for ev := range inbound {
			text := s.router.Handle(ctx, ev)
			select {
			case <-ctx.Done():
				return
			case outbound <- protocol.ChatReply{Type: protocol.TypeChatReply, Reply: text}:
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("httpapi: ws write conn=%s: %v", connID, err)
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessage("outbound", string(t))
				}
			}
		}
	}()

	outbound <- protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "connected", Detail: connID}

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err == nil {
			var ev protocol.InboundEvent
			ev, err = protocol.Event(sender, parsed)
			if err == nil {
				if t, ok := messageTypeOf(parsed); ok {
					s.metrics.WSMessage("inbound", string(t))
				}
				select {
				case <-ctx.Done():
					break readLoop
				case inbound <- ev:
				}
				continue
			}
		}

		errEvent := protocol.ErrorEvent{
			Type:   protocol.TypeErrorEvent,
			Code:   "invalid_client_message",
			Detail: err.Error(),
		}
		select {
		case outbound <- errEvent:
		default:
			// Writes stay single-threaded; drop when the queue is saturated.
			s.metrics.WSMessage("dropped", string(protocol.TypeErrorEvent))
		}
	}

	close(inbound)
	<-runDone
	cancel()
	<-writerDone
	s.metrics.SessionEvent("ws_disconnected")
}

func (s *Server) auditMode() string {
	switch s.audit.(type) {
	case nil:
		return "disabled"
	case *audit.PostgresStore:
		return "postgres"
	default:
		return "in-memory"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ChatMessage:
		return m.Type, true
	case protocol.ChatLocation:
		return m.Type, true
	case protocol.ChatReply:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
