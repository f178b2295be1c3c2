package service

import (
	"context"
	"net/http"
	"testing"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryOverview(t *testing.T) {
	env := setupServices(t)
	env.login(t, "a@b.com", "x")

	overview, err := env.services.Inventory.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.Admin.ID)
	assert.Len(t, overview.Sports, 3)
	require.Len(t, overview.Centers, 2)

	assert.Equal(t, int64(1), overview.Centers[0].Center.ID)
	assert.Len(t, overview.Centers[0].Fields, 2)

	// Riverside Club has no fields yet.
	assert.Equal(t, int64(2), overview.Centers[1].Center.ID)
	assert.NotNil(t, overview.Centers[1].Fields)
	assert.Empty(t, overview.Centers[1].Fields)
}

func TestInventoryRequiresAdmin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.services.Inventory.Overview(ctx)
	require.Error(t, err)
	assert.True(t, apierrors.IsAuth(err))

	env.login(t, "bruno@example.com", "secret")
	_, err = env.services.Inventory.Overview(ctx)
	assert.ErrorIs(t, err, apierrors.ErrForbidden)

	_, err = env.services.Inventory.AddSport(ctx, "Squash")
	assert.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestInventoryAddAndDeleteField(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.login(t, "a@b.com", "x")

	// Warm the field list so the invalidation is visible.
	assert.Empty(t, env.services.Catalog.FieldsByCenter(ctx, 2))

	field, err := env.services.Inventory.AddField(ctx, models.NewSportField{
		Name:           "Court 1",
		Price:          15,
		Sports:         []int64{3},
		SportsCenterID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Court 1", field.Name)
	assert.True(t, env.services.Cache.Peek(SportFieldsKey(2)).Invalidated)
	assert.Contains(t, env.publisher.Subjects(), models.EventSportFieldCreated)

	fields := env.services.Catalog.FieldsByCenter(ctx, 2)
	require.Len(t, fields, 1)
	assert.Equal(t, field.ID, fields[0].ID)

	_, err = env.services.Inventory.DeleteField(ctx, 2, field.ID)
	require.NoError(t, err)
	assert.Empty(t, env.services.Catalog.FieldsByCenter(ctx, 2))
	assert.Contains(t, env.publisher.Subjects(), models.EventSportFieldDeleted)
}

func TestInventoryAddFieldValidation(t *testing.T) {
	env := setupServices(t)
	env.login(t, "a@b.com", "x")

	_, err := env.services.Inventory.AddField(context.Background(), models.NewSportField{
		Name:           "No sports",
		Price:          10,
		SportsCenterID: 2,
	})
	require.Error(t, err)
	assert.True(t, apierrors.IsValidation(err))
}

func TestInventoryCentersLifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	admin := env.login(t, "a@b.com", "x")

	assert.Len(t, env.services.Catalog.CentersByUser(ctx, admin.ID), 2)

	center, err := env.services.Inventory.CreateCenter(ctx, models.SportsCenterInput{
		Name:        "Hilltop",
		Location:    "Hill 3",
		Attendance:  10,
		OpeningTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, center.OwnerID)
	assert.Len(t, env.services.Catalog.CentersByUser(ctx, admin.ID), 3)

	updated, err := env.services.Inventory.UpdateCenter(ctx, center.ID, models.SportsCenterInput{
		Name:        "Hilltop Arena",
		Location:    "Hill 3",
		OpeningTime: "07:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hilltop Arena", updated.Name)

	got, err := env.services.Catalog.Center(ctx, center.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hilltop Arena", got.Name)

	_, err = env.services.Inventory.DeleteCenter(ctx, center.ID)
	require.NoError(t, err)
	assert.Len(t, env.services.Catalog.CentersByUser(ctx, admin.ID), 2)
}

func TestInventorySports(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.login(t, "a@b.com", "x")

	sport, err := env.services.Inventory.AddSport(ctx, "Squash")
	require.NoError(t, err)
	assert.Len(t, env.services.Catalog.Sports(ctx), 4)

	_, err = env.services.Inventory.DeleteSport(ctx, sport.ID)
	require.NoError(t, err)
	assert.Len(t, env.services.Catalog.Sports(ctx), 3)

	// Tennis is used by Court A.
	_, err = env.services.Inventory.DeleteSport(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierrors.StatusCode(err))
}

func TestInventoryListings(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	env.login(t, "bruno@example.com", "secret")
	_, err := env.services.Inventory.Users(ctx)
	assert.ErrorIs(t, err, apierrors.ErrForbidden)

	require.NoError(t, env.services.Auth.Logout(ctx))
	env.login(t, "a@b.com", "x")

	users, err := env.services.Inventory.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	reservations, err := env.services.Inventory.Reservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, reservations)
}
