package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStores(t *testing.T) {
	stores := map[string]func(t *testing.T) TokenStore{
		"memory": func(t *testing.T) TokenStore {
			return NewMemoryTokenStore("")
		},
		"sqlite": func(t *testing.T) TokenStore {
			store, err := OpenSQLiteTokenStore(context.Background(), filepath.Join(t.TempDir(), "client.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			token, err := store.Token(ctx)
			require.NoError(t, err)
			assert.Empty(t, token)

			require.NoError(t, store.ClearToken(ctx))

			require.NoError(t, store.SetToken(ctx, "first"))
			require.NoError(t, store.SetToken(ctx, "second"))
			token, err = store.Token(ctx)
			require.NoError(t, err)
			assert.Equal(t, "second", token)

			require.NoError(t, store.ClearToken(ctx))
			token, err = store.Token(ctx)
			require.NoError(t, err)
			assert.Empty(t, token)
		})
	}
}

func TestSQLiteTokenStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	store, err := OpenSQLiteTokenStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken(ctx, "persisted"))
	require.NoError(t, store.Close())

	store, err = OpenSQLiteTokenStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
}
