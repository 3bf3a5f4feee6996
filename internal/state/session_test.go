package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragchat/internal/model"
	"ragchat/internal/state"
	"ragchat/internal/transport"
)

// mockSessionAPI is a hand-written testify mock for interfaces.SessionAPI.
type mockSessionAPI struct {
	mock.Mock
}

func (m *mockSessionAPI) Create(ctx context.Context, title string) transport.Envelope {
	args := m.Called(ctx, title)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) List(ctx context.Context) transport.Envelope {
	args := m.Called(ctx)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) Get(ctx context.Context, id string) transport.Envelope {
	args := m.Called(ctx, id)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) Delete(ctx context.Context, id string) transport.Envelope {
	args := m.Called(ctx, id)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) Update(ctx context.Context, id string, updates model.SessionUpdates) transport.Envelope {
	args := m.Called(ctx, id, updates)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) Rename(ctx context.Context, id, title string) transport.Envelope {
	args := m.Called(ctx, id, title)
	return args.Get(0).(transport.Envelope)
}

func (m *mockSessionAPI) ToggleFavorite(ctx context.Context, id string) transport.Envelope {
	args := m.Called(ctx, id)
	return args.Get(0).(transport.Envelope)
}

func TestSessionStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts at front and becomes current", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "existing", Title: "Old"})

		api.On("Create", mock.Anything, "Fresh").
			Return(ok(`{"id":"s-new","title":"Fresh","createdAt":"2024-06-01T00:00:00Z"}`)).Once()

		sess, err := store.Create(ctx, "Fresh")
		require.NoError(t, err)
		assert.Equal(t, "s-new", sess.ID)

		snap := store.Snapshot()
		require.Len(t, snap.Sessions, 2)
		assert.Equal(t, "s-new", snap.Sessions[0].ID)
		assert.Equal(t, "s-new", snap.CurrentSessionID)
		assert.False(t, snap.IsCreatingSession)
	})

	t.Run("missing timestamps default to now", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)

		api.On("Create", mock.Anything, "T").Return(ok(`{"id":"s1","title":"T"}`)).Once()

		before := time.Now()
		sess, err := store.Create(ctx, "T")
		require.NoError(t, err)
		assert.False(t, sess.CreatedAt.Before(before))
		assert.False(t, sess.UpdatedAt.Before(before))
	})

	t.Run("failure sets error and clears busy flag", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)

		api.On("Create", mock.Anything, "T").Return(transport.Fail("quota exceeded")).Once()

		_, err := store.Create(ctx, "T")
		require.Error(t, err)

		snap := store.Snapshot()
		assert.Equal(t, "quota exceeded", snap.Error)
		assert.False(t, snap.IsCreatingSession)
		assert.Empty(t, snap.Sessions)
		assert.Empty(t, snap.CurrentSessionID)
	})
}

func TestSessionStore_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("installs newest-first", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)

		api.On("List", mock.Anything).Return(ok(`[
			{"id":"old","title":"Old","createdAt":"2024-01-01T00:00:00Z"},
			{"id":"new","title":"New","createdAt":"2024-06-01T00:00:00Z"}
		]`)).Once()

		require.NoError(t, store.Fetch(ctx))

		snap := store.Snapshot()
		require.Len(t, snap.Sessions, 2)
		assert.Equal(t, "new", snap.Sessions[0].ID)
		assert.False(t, snap.IsLoading)
	})

	t.Run("failure sets error", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)

		api.On("List", mock.Anything).Return(transport.Fail("unreachable")).Once()

		require.Error(t, store.Fetch(ctx))
		snap := store.Snapshot()
		assert.Equal(t, "unreachable", snap.Error)
		assert.False(t, snap.IsLoading)
	})
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes entry and clears matching current", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "s2"})
		store.AddSession(model.ChatSession{ID: "s1"})
		store.SetCurrentSession("s1")

		api.On("Delete", mock.Anything, "s1").Return(ok(`{"status":"deleted"}`)).Once()

		require.NoError(t, store.Delete(ctx, "s1"))

		snap := store.Snapshot()
		require.Len(t, snap.Sessions, 1)
		assert.Equal(t, "s2", snap.Sessions[0].ID)
		assert.Empty(t, snap.CurrentSessionID)
		assert.False(t, snap.IsDeletingSession)
	})

	t.Run("keeps current when deleting another session", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "s2"})
		store.AddSession(model.ChatSession{ID: "s1"})
		store.SetCurrentSession("s1")

		api.On("Delete", mock.Anything, "s2").Return(ok(`{}`)).Once()

		require.NoError(t, store.Delete(ctx, "s2"))
		assert.Equal(t, "s1", store.Snapshot().CurrentSessionID)
	})

	t.Run("deleted id never re-introduced by fetch", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "s1"})

		api.On("Delete", mock.Anything, "s1").Return(ok(`{}`)).Once()
		// Backend confirms deletion, so the refreshed list omits s1.
		api.On("List", mock.Anything).Return(ok(`[{"id":"s2","title":"Other"}]`)).Once()

		require.NoError(t, store.Delete(ctx, "s1"))
		require.NoError(t, store.Fetch(ctx))

		for _, sess := range store.Snapshot().Sessions {
			assert.NotEqual(t, "s1", sess.ID)
		}
	})

	t.Run("failure sets error and clears busy flag", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "s1"})

		api.On("Delete", mock.Anything, "s1").Return(transport.Fail("nope")).Once()

		require.Error(t, store.Delete(ctx, "s1"))
		snap := store.Snapshot()
		assert.Equal(t, "nope", snap.Error)
		assert.False(t, snap.IsDeletingSession)
		assert.Len(t, snap.Sessions, 1)
	})
}

func TestSessionStore_MergeOperations(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed := func(api *mockSessionAPI) *state.SessionStore {
		store := state.NewSessionStore(api)
		store.AddSession(model.ChatSession{ID: "s1", Title: "Before", CreatedAt: created, Favorite: true})
		return store
	}

	t.Run("rename merges title, preserves id and createdAt", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := seed(api)

		api.On("Rename", mock.Anything, "s1", "X").
			Return(ok(`{"id":"s1","title":"X"}`)).Once()

		require.NoError(t, store.Rename(ctx, "s1", "X"))

		snap := store.Snapshot()
		sess := snap.Sessions[0]
		assert.Equal(t, "s1", sess.ID)
		assert.Equal(t, "X", sess.Title)
		assert.Equal(t, created, sess.CreatedAt)
		assert.True(t, sess.Favorite, "unspecified fields preserved")
		assert.True(t, sess.UpdatedAt.After(created))
		assert.False(t, snap.IsLoading)
	})

	t.Run("toggle favorite merges flag", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := seed(api)

		api.On("ToggleFavorite", mock.Anything, "s1").
			Return(ok(`{"id":"s1","favorite":false}`)).Once()

		require.NoError(t, store.ToggleFavorite(ctx, "s1"))
		assert.False(t, store.Snapshot().Sessions[0].Favorite)
	})

	t.Run("update merges returned fields", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := seed(api)
		title := "Updated"

		api.On("Update", mock.Anything, "s1", model.SessionUpdates{Title: &title}).
			Return(ok(`{"id":"s1","title":"Updated"}`)).Once()

		require.NoError(t, store.Update(ctx, "s1", model.SessionUpdates{Title: &title}))
		assert.Equal(t, "Updated", store.Snapshot().Sessions[0].Title)
	})

	t.Run("merge into missing session is a no-op", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := state.NewSessionStore(api)

		api.On("Rename", mock.Anything, "ghost", "X").
			Return(ok(`{"id":"ghost","title":"X"}`)).Once()

		require.NoError(t, store.Rename(ctx, "ghost", "X"))
		assert.Empty(t, store.Snapshot().Sessions)
	})

	t.Run("failure sets error", func(t *testing.T) {
		api := &mockSessionAPI{}
		store := seed(api)

		api.On("ToggleFavorite", mock.Anything, "s1").Return(transport.Fail("conflict")).Once()

		require.Error(t, store.ToggleFavorite(ctx, "s1"))
		snap := store.Snapshot()
		assert.Equal(t, "conflict", snap.Error)
		assert.Equal(t, "Before", snap.Sessions[0].Title)
	})
}

func TestSessionStore_ErrorClearsAllBusyFlags(t *testing.T) {
	store := state.NewSessionStore(nil)
	store.SetLoading(true)
	store.SetError("boom")

	snap := store.Snapshot()
	assert.Equal(t, "boom", snap.Error)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsCreatingSession)
	assert.False(t, snap.IsDeletingSession)

	store.ClearError()
	assert.Empty(t, store.Snapshot().Error)
}
