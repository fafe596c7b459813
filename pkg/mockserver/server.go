package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/stream"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

const (
	saveMemoryTool   = "save_memory"
	searchMemoryTool = "search_memory"
)

// Options configure the mock backend.
type Options struct {
	// RequireAuth rejects chat and session calls without a valid bearer
	// token.
	RequireAuth bool
	// Users maps email to password. Nil accepts any non-empty credentials.
	Users map[string]string
	// Documents are the uploaded file names answers may cite.
	Documents []string
	// TokenDelay is slept between streamed tokens.
	TokenDelay time.Duration

	Model  llms.Model
	Logger zerolog.Logger
}

// Server is an in-memory stand-in for the dashboard backend.
type Server struct {
	opts     Options
	model    llms.Model
	agents   *agents.Registry
	sessions *sessionStore
	tokens   *tokenIssuer
	log      zerolog.Logger
	router   chi.Router
}

func New(opts Options) *Server {
	if opts.Model == nil {
		opts.Model = NewEchoModel()
	}
	if opts.Documents == nil {
		opts.Documents = []string{"cv.pdf"}
	}

	s := &Server{
		opts:     opts,
		model:    opts.Model,
		agents:   agents.NewRegistry(),
		sessions: newSessionStore(),
		tokens:   newTokenIssuer(opts.Users),
		log:      opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ExpireAccessTokens invalidates issued access tokens so clients must
// refresh.
func (s *Server) ExpireAccessTokens() {
	s.tokens.expireAccess()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/refresh", s.refresh)
		r.Post("/logout", s.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)

		r.Post("/agents/chat", s.chat)
		r.Get("/agents/sessions/stats", s.sessionStats)
		r.Delete("/agents/sessions/{sessionID}", s.clearSession)
		r.Post("/api/v1/agents/memory-chat/stream", s.memoryChatStream)
	})
	return r
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := s.tokens.authenticate(r); !ok {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.Health{Status: "ok"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	access, refresh, ok := s.tokens.login(req.Email, req.Password)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &api.User{ID: userID(req.Email), Email: req.Email},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	access, refresh, email, ok := s.tokens.rotate(req.RefreshToken)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	respondJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &api.User{ID: userID(email), Email: email},
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.tokens.revoke(bearerToken(r))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondJSON(w, http.StatusOK, api.ChatResponse{Success: false, Error: "query must not be empty"})
		return
	}
	agent, err := s.agents.Get(req.AgentType)
	if err != nil {
		respondJSON(w, http.StatusOK, api.ChatResponse{Success: false, Error: err.Error()})
		return
	}

	answer, err := s.generate(r.Context(), sessionKey(req.SessionID), agent.Name, req.Query, nil)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agent.Kind).Msg("generation failed")
		respondJSON(w, http.StatusOK, api.ChatResponse{Success: false, Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, api.ChatResponse{
		Success:   true,
		Output:    answer,
		Sources:   s.citations(req.Query, req.MaxResults),
		AgentType: agent.Kind,
	})
}

func (s *Server) memoryChatStream(w http.ResponseWriter, r *http.Request) {
	var req api.StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(ev stream.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	session := sessionKey(req.SessionID)
	ctx := r.Context()

	if err := s.runTools(session, req.Query, send); err != nil {
		s.log.Warn().Err(err).Msg("client went away during tool call")
		return
	}

	_, err := s.generate(ctx, session, s.agents.Name(agents.MemoryManager), req.Query, func(ctx context.Context, chunk []byte) error {
		if s.opts.TokenDelay > 0 {
			select {
			case <-time.After(s.opts.TokenDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return send(stream.Event{Type: stream.EventToken, Content: string(chunk)})
	})
	if err != nil {
		s.log.Warn().Err(err).Str("session", session).Msg("stream aborted")
		return
	}
	send(stream.Event{Type: stream.EventDone})
}

// runTools emits tool events for queries that ask the memory manager to
// save or look up something.
func (s *Server) runTools(session, query string, send func(stream.Event) error) error {
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, "remember") || strings.Contains(lower, "save"):
		if err := send(stream.Event{Type: stream.EventToolCallStart, Tool: saveMemoryTool}); err != nil {
			return err
		}
		count := s.sessions.remember(session, query)
		return send(stream.Event{
			Type:   stream.EventToolCallEnd,
			Tool:   saveMemoryTool,
			Result: fmt.Sprintf("%s Memory saved (%d total)", stream.DefaultSuccessMarker, count),
		})

	case strings.Contains(lower, "recall") || strings.Contains(lower, "what do you know"):
		if err := send(stream.Event{Type: stream.EventToolCallStart, Tool: searchMemoryTool}); err != nil {
			return err
		}
		found := s.sessions.recall(session)
		return send(stream.Event{
			Type:   stream.EventToolCallEnd,
			Tool:   searchMemoryTool,
			Result: fmt.Sprintf("%d memories found", len(found)),
		})
	}
	return nil
}

func (s *Server) generate(ctx context.Context, session, persona, query string, streamFn func(context.Context, []byte) error) (string, error) {
	msgs, err := s.sessions.prompt(ctx, session, persona, query)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	var opts []llms.CallOption
	if streamFn != nil {
		opts = append(opts, llms.WithStreamingFunc(streamFn))
	}
	resp, err := s.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	answer := resp.Choices[0].Content
	if err := s.sessions.record(ctx, session, query, answer); err != nil {
		return "", fmt.Errorf("failed to record turn: %w", err)
	}
	return answer, nil
}

// citations returns the documents whose base name appears in the query.
func (s *Server) citations(query string, max int) []api.ChatSource {
	lower := strings.ToLower(query)
	var sources []api.ChatSource
	for _, doc := range s.opts.Documents {
		stem := strings.TrimSuffix(strings.ToLower(doc), path.Ext(doc))
		if stem != "" && strings.Contains(lower, stem) {
			sources = append(sources, api.ChatSource{Filename: doc})
		}
		if max > 0 && len(sources) >= max {
			break
		}
	}
	return sources
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	sessions, messages := s.sessions.stats(r.Context())
	respondJSON(w, http.StatusOK, api.SessionStats{ActiveSessions: sessions, TotalMessages: messages})
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	existed := s.sessions.drop(id)
	s.log.Debug().Str("session", id).Bool("existed", existed).Msg("session cleared")
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "session_id": id})
}

func sessionKey(id string) string {
	if id == "" {
		return anonymousSession
	}
	return id
}

func userID(email string) string {
	return "user_" + strings.SplitN(email, "@", 2)[0]
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
