package main

import (
	"bytes"
	"testing"
	"time"

	"sportsbook/internal/config"
	"sportsbook/internal/models"
	"sportsbook/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStart(t *testing.T) {
	got, err := parseStart("2030-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)))

	got, err = parseStart("2030-05-01 10:00")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = parseStart("tomorrow")
	assert.Error(t, err)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("1, 2,,3")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = parseIDs("1,x")
	assert.Error(t, err)
}

func TestNewTokenStore(t *testing.T) {
	store, cleanup, err := newTokenStore(config.SessionConfig{Store: "memory"})
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &session.MemoryStore{}, store)

	store, _, err = newTokenStore(config.SessionConfig{Store: "file", Path: t.TempDir() + "/s.json"})
	require.NoError(t, err)
	assert.IsType(t, &session.FileStore{}, store)

	_, _, err = newTokenStore(config.SessionConfig{Store: "etcd"})
	assert.Error(t, err)
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	printFields(&buf, nil)
	assert.Equal(t, "No sport fields\n", buf.String())

	buf.Reset()
	printFields(&buf, []models.SportField{{ID: 1, Name: "Court A", Price: 20, Sports: []int64{1, 3}}})
	assert.Contains(t, buf.String(), "Court A")
	assert.Contains(t, buf.String(), "20.00")
	assert.Contains(t, buf.String(), "1,3")
}
