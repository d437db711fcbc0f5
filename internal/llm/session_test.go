package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	replies []string
	errs    []error
	seen    [][]Message
}

func (c *scriptedClient) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	c.seen = append(c.seen, append([]Message(nil), req.Messages...))
	i := len(c.seen) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return &ChatResponse{Text: c.replies[i]}, nil
}

func (c *scriptedClient) Available(context.Context) bool { return true }

func TestSessionManager_ReplaysHistory(t *testing.T) {
	client := &scriptedClient{replies: []string{"first", "second"}}
	m := NewSessionManager(client, TaskDraft)
	ctx := context.Background()

	h, err := m.CreateSession(ctx, "You design coaching courses.")
	require.NoError(t, err)

	got, err := m.SendTurn(ctx, h, "hello")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = m.SendTurn(ctx, h, "more")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.Len(t, client.seen, 2)
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "You design coaching courses."},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "first"},
		{Role: RoleUser, Content: "more"},
	}, client.seen[1])
	assert.Len(t, m.History(h), 5)
}

func TestSessionManager_FailedTurnLeavesHistory(t *testing.T) {
	client := &scriptedClient{
		replies: []string{"", "recovered"},
		errs:    []error{ErrTimeout},
	}
	m := NewSessionManager(client, TaskDraft)
	ctx := context.Background()
	h, err := m.CreateSession(ctx, "")
	require.NoError(t, err)

	_, err = m.SendTurn(ctx, h, "hello")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, m.History(h))

	got, err := m.SendTurn(ctx, h, "hello")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Len(t, client.seen[1], 1)
}

func TestSessionManager_UnknownHandle(t *testing.T) {
	m := NewSessionManager(&scriptedClient{}, TaskDraft)

	_, err := m.SendTurn(context.Background(), app.SessionHandle("nope"), "hi")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionManager_Close(t *testing.T) {
	m := NewSessionManager(&scriptedClient{}, TaskDraft)
	h, err := m.CreateSession(context.Background(), "p")
	require.NoError(t, err)

	m.Close(h)
	_, err = m.SendTurn(context.Background(), h, "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
