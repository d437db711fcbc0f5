package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/google/uuid"
)

// SessionManager keeps chat histories keyed by session handle and replays
// them on every turn. It implements app.AICollaborator.
type SessionManager struct {
	client ChatClient
	task   TaskType

	mu       sync.Mutex
	sessions map[app.SessionHandle][]Message
}

var _ app.AICollaborator = (*SessionManager)(nil)

// NewSessionManager creates a manager whose turns are sent as task.
func NewSessionManager(client ChatClient, task TaskType) *SessionManager {
	return &SessionManager{
		client:   client,
		task:     task,
		sessions: make(map[app.SessionHandle][]Message),
	}
}

// CreateSession starts a history seeded with preamble as the system message.
func (m *SessionManager) CreateSession(_ context.Context, preamble string) (app.SessionHandle, error) {
	h := app.SessionHandle(uuid.New().String())
	var history []Message
	if preamble != "" {
		history = append(history, Message{Role: RoleSystem, Content: preamble})
	}
	m.mu.Lock()
	m.sessions[h] = history
	m.mu.Unlock()
	return h, nil
}

// SendTurn sends userText with the session's history. The history only grows
// when the model answered, so a failed turn can be resent as is.
func (m *SessionManager) SendTurn(ctx context.Context, h app.SessionHandle, userText string) (string, error) {
	m.mu.Lock()
	history, ok := m.sessions[h]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, h)
	}

	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: userText})

	resp, err := m.client.Chat(ctx, ChatRequest{Task: m.task, Messages: msgs})
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[h] = append(msgs, Message{Role: RoleAssistant, Content: resp.Text})
	m.mu.Unlock()
	return resp.Text, nil
}

// Close forgets a session.
func (m *SessionManager) Close(h app.SessionHandle) {
	m.mu.Lock()
	delete(m.sessions, h)
	m.mu.Unlock()
}

// History returns a copy of the session's messages.
func (m *SessionManager) History(h app.SessionHandle) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sessions[h]...)
}
