package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "tok-1"))

	reopened := NewFileStore(path)
	token, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, reopened.Clear(ctx))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStoreKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	store := NewFileStore(path)
	require.NoError(t, store.Save(ctx, "tok"))
	require.NoError(t, store.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, json.Unmarshal(data, &values))
	assert.Equal(t, map[string]string{"theme": "dark"}, values)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "abc"))
	token, _ := store.Load(ctx)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear(ctx))
	token, _ = store.Load(ctx)
	assert.Empty(t, token)
}

func TestFileStoreCookies(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, "tok"))
	require.NoError(t, store.SaveCookies(ctx, `[{"name":"s","value":"v"}]`))

	cookies, err := NewFileStore(path).LoadCookies(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"s","value":"v"}]`, cookies)

	// Clear drops the whole session.
	require.NoError(t, store.Clear(ctx))
	cookies, err = store.LoadCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryStoreCookies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveCookies(ctx, "c"))
	cookies, _ := store.LoadCookies(ctx)
	assert.Equal(t, "c", cookies)

	require.NoError(t, store.Clear(ctx))
	cookies, _ = store.LoadCookies(ctx)
	assert.Empty(t, cookies)
}
