package api

// ChatRequest is the body of a request/response agent call.
type ChatRequest struct {
	Query              string `json:"query"`
	AgentType          string `json:"agent_type"`
	SessionID          string `json:"session_id,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	MaxResults         int    `json:"max_results,omitempty"`
}

// ChatSource names a document the answer drew on.
type ChatSource struct {
	Filename string `json:"filename"`
}

// ChatResponse is the backend's answer to a ChatRequest.
type ChatResponse struct {
	Success   bool         `json:"success"`
	Output    string       `json:"output"`
	Sources   []ChatSource `json:"sources,omitempty"`
	Error     string       `json:"error,omitempty"`
	AgentType string       `json:"agent_type,omitempty"`
}

// StreamRequest opens an event stream for a streaming agent.
type StreamRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// SessionStats summarises the conversations the backend keeps in memory.
type SessionStats struct {
	ActiveSessions int `json:"active_sessions"`
	TotalMessages  int `json:"total_messages"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type Health struct {
	Status string `json:"status"`
}

// errorBody covers the error shapes the backend uses.
type errorBody struct {
	Detail  string `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Error != "":
		return e.Error
	default:
		return e.Message
	}
}
