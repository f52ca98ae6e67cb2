package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// historyLimit caps how many past messages are replayed into each request,
// keeping the prompt within token bounds.
const historyLimit = 10

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResponse is the consultant's reply for one user message.
type ChatResponse struct {
	Message    string    `json:"message"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokens_used,omitempty"`
}

type session struct {
	id             string
	messages       []Message
	dataSummary    string
	metricsSummary string
}

// Conversations manages chat sessions in memory, keyed by session ID. Safe
// for concurrent use.
type Conversations struct {
	client *Client

	mu       sync.Mutex
	sessions map[string]*session
}

// NewConversations builds a session manager over one completion client.
func NewConversations(client *Client) *Conversations {
	return &Conversations{
		client:   client,
		sessions: make(map[string]*session),
	}
}

func (s *Conversations) getOrCreate(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{id: sessionID}
		s.sessions[sessionID] = sess
	}
	return sess
}

// UpdateContext replaces the data and metrics context of a session, creating
// the session if needed. Empty arguments leave the existing context in place.
func (s *Conversations) UpdateContext(sessionID, dataSummary, metricsSummary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreate(sessionID)
	if dataSummary != "" {
		sess.dataSummary = dataSummary
	}
	if metricsSummary != "" {
		sess.metricsSummary = metricsSummary
	}
}

// Chat sends a user message through the consultant and records both sides in
// the session history. An empty sessionID starts a fresh session.
func (s *Conversations) Chat(ctx context.Context, sessionID, userMessage, dataSummary, metricsSummary string) (ChatResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	sess := s.getOrCreate(sessionID)
	if dataSummary != "" {
		sess.dataSummary = dataSummary
	}
	if metricsSummary != "" {
		sess.metricsSummary = metricsSummary
	}
	messages := s.buildMessages(sess, userMessage)
	s.mu.Unlock()

	completion, err := s.client.Complete(ctx, messages)
	if err != nil {
		return ChatResponse{}, err
	}

	now := time.Now()
	s.mu.Lock()
	sess.messages = append(sess.messages,
		Message{Role: "user", Content: userMessage, Timestamp: now},
		Message{Role: "assistant", Content: completion.Content, Timestamp: now},
	)
	s.mu.Unlock()

	log.Debug().Str("session", sessionID).Int("tokens", completion.TokensUsed).Msg("Chat turn completed")

	return ChatResponse{
		Message:    completion.Content,
		SessionID:  sessionID,
		Timestamp:  now,
		TokensUsed: completion.TokensUsed,
	}, nil
}

// buildMessages assembles the system prompt plus recent history for one API
// call. Caller holds the mutex.
func (s *Conversations) buildMessages(sess *session, userMessage string) []ChatMessage {
	system := BuildSystemPrompt(sess.dataSummary, sess.metricsSummary, formatHistory(sess.messages))

	messages := []ChatMessage{{Role: "system", Content: system}}
	recent := sess.messages
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}
	for _, m := range recent {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return append(messages, ChatMessage{Role: "user", Content: userMessage})
}

// formatHistory renders recent turns as a transcript for the system prompt.
func formatHistory(messages []Message) string {
	if len(messages) == 0 {
		return "This is the start of the conversation."
	}
	recent := messages
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}
	lines := make([]string, len(recent))
	for i, m := range recent {
		speaker := "Echo"
		if m.Role == "user" {
			speaker = "User"
		}
		lines[i] = speaker + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// ClearSession removes a session and reports whether it existed.
func (s *Conversations) ClearSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

// SessionInfo summarizes one active session without exposing its content.
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	HasData      bool   `json:"has_data"`
	HasMetrics   bool   `json:"has_metrics"`
}

// Sessions lists all active sessions.
func (s *Conversations) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for id, sess := range s.sessions {
		out = append(out, SessionInfo{
			SessionID:    id,
			MessageCount: len(sess.messages),
			HasData:      sess.dataSummary != "",
			HasMetrics:   sess.metricsSummary != "",
		})
	}
	return out
}

// History returns a copy of a session's message history, oldest first.
func (s *Conversations) History(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}
