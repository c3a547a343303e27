package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/memory"
	"github.com/randalmurphal/promptchain/provider"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AppendLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	session := memory.NewSessionID()

	msgs, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	call := provider.ToolCall{ID: "c1", Name: "weather", Arguments: json.RawMessage(`{"city":"Oslo"}`)}
	require.NoError(t, store.Append(ctx, session,
		provider.NewTextMessage(provider.RoleUser, "weather in Oslo?"),
		provider.Message{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{call}},
	))
	require.NoError(t, store.Append(ctx, session,
		provider.NewToolResult("c1", "city not found", true),
		provider.NewTextMessage(provider.RoleAssistant, "I could not find Oslo."),
	))

	msgs, err = store.Load(ctx, session)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "weather in Oslo?", msgs[0].Content)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "weather", msgs[1].ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, string(msgs[1].ToolCalls[0].Arguments))
	assert.Equal(t, provider.RoleTool, msgs[2].Role)
	assert.Equal(t, "c1", msgs[2].ToolCallID)
	assert.True(t, msgs[2].IsError)
	assert.Equal(t, "I could not find Oslo.", msgs[3].Content)
}

func TestStore_SessionsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Append(ctx, "a", provider.NewTextMessage(provider.RoleUser, "1")))
	require.NoError(t, store.Append(ctx, "b",
		provider.NewTextMessage(provider.RoleUser, "1"),
		provider.NewTextMessage(provider.RoleAssistant, "2"),
	))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	counts := map[string]int{}
	for _, s := range sessions {
		counts[s.ID] = s.Messages
		assert.False(t, s.CreatedAt.IsZero())
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, counts)

	require.NoError(t, store.Delete(ctx, "a"))
	assert.ErrorIs(t, store.Delete(ctx, "a"), memory.ErrSessionNotFound)

	msgs, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	sessions, err = store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "b", sessions[0].ID)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.db")

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s", provider.NewTextMessage(provider.RoleUser, "remember me")))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	h, err := memory.LoadHistory(ctx, store, "s")
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "remember me", h.Messages()[0].Content)
}

func TestStore_EmptySession(t *testing.T) {
	store := newStore(t)
	assert.Error(t, store.Append(context.Background(), "", provider.NewTextMessage(provider.RoleUser, "x")))
}
