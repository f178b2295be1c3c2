package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupValkey(t *testing.T, deviceID string) (*ValkeyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewValkeyStore(ValkeyConfig{Addr: mr.Addr(), DeviceID: deviceID})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestValkeyStoreMissingToken(t *testing.T) {
	store, _ := setupValkey(t, "kiosk-1")
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	cookies, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestValkeyStoreRoundTrip(t *testing.T) {
	store, mr := setupValkey(t, "kiosk-1")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-1"))
	require.NoError(t, store.SaveCookies(ctx, `[{"name":"sportsbook_session","value":"c-1"}]`))

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	cookies, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	assert.Contains(t, cookies, "c-1")

	// One hash, field per device.
	assert.Equal(t, "tok-1", mr.HGet(TokenKey, "kiosk-1"))

	require.NoError(t, store.Clear(ctx))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	cookies, err = store.LoadCookies(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestValkeyStoreDevicesAreIsolated(t *testing.T) {
	first, mr := setupValkey(t, "kiosk-1")
	second, err := NewValkeyStore(ValkeyConfig{Addr: mr.Addr(), DeviceID: "kiosk-2"})
	require.NoError(t, err)
	defer second.Close()
	ctx := context.Background()

	require.NoError(t, first.Save(ctx, "tok-1"))
	require.NoError(t, second.Save(ctx, "tok-2"))
	require.NoError(t, first.Clear(ctx))

	token, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestValkeyStoreUnavailable(t *testing.T) {
	store, mr := setupValkey(t, "kiosk-1")
	mr.Close()

	_, err := store.Load(context.Background())
	assert.Error(t, err)

	_, err = NewValkeyStore(ValkeyConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
