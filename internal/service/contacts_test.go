package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/models"
	"sportsbook/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactsListAndAdd(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := env.login(t, "bruno@example.com", "secret")

	list := env.services.Contacts.List(ctx, user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].ContactID)

	created, err := env.services.Contacts.Add(ctx, user.ID, models.ContactSummary{ID: 1, Name: "Ana Admin", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ContactID)
	assert.Contains(t, env.publisher.Subjects(), models.EventContactAdded)

	assert.Len(t, env.services.Contacts.List(ctx, user.ID), 2)
}

func TestContactsRejectSelfAndDuplicate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := env.login(t, "bruno@example.com", "secret")
	env.services.Contacts.List(ctx, user.ID)

	_, err := env.services.Contacts.Add(ctx, user.ID, models.ContactSummary{ID: user.ID})
	require.Error(t, err)
	assert.True(t, apierrors.IsValidation(err))

	_, err = env.services.Contacts.Add(ctx, user.ID, models.ContactSummary{ID: 3})
	require.Error(t, err)
	assert.True(t, apierrors.IsValidation(err))
	assert.Empty(t, env.publisher.Subjects())
}

func TestContactsRemove(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := env.login(t, "bruno@example.com", "secret")
	env.services.Contacts.List(ctx, user.ID)

	_, err := env.services.Contacts.Remove(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, env.services.Contacts.List(ctx, user.ID))

	_, err = env.services.Contacts.Remove(ctx, user.ID, 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierrors.StatusCode(err))
}

func TestContactSearcherFiltersSelfAndContacts(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := env.login(t, "bruno@example.com", "secret")
	env.services.Contacts.List(ctx, user.ID)

	results := make(chan search.Result[[]models.ContactSummary], 1)
	searcher := env.services.Contacts.NewSearcher(user.ID, func(res search.Result[[]models.ContactSummary]) {
		results <- res
	})
	defer searcher.Stop()

	// "com" matches a@b.com and carla@example.com; Carla is already a contact.
	searcher.Input(ctx, "com")

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		require.Len(t, res.Value, 1)
		assert.Equal(t, int64(1), res.Value[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("search result not delivered")
	}
}

func TestContactSearcherShortQuery(t *testing.T) {
	env := setupServices(t)
	user := env.login(t, "bruno@example.com", "secret")

	searcher := env.services.Contacts.NewSearcher(user.ID, func(search.Result[[]models.ContactSummary]) {
		t.Error("short query must not search")
	})
	defer searcher.Stop()

	searcher.Input(context.Background(), "c")
	time.Sleep(50 * time.Millisecond)

	_, ok := searcher.Latest()
	assert.False(t, ok)
}
