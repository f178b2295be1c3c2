package smoke

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"sportsbook/internal/external"
	"sportsbook/internal/stubserver"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupBackend(t *testing.T) string {
	t.Helper()
	stub, err := stubserver.NewServer(stubserver.Config{
		GinMode:    gin.TestMode,
		JWTSecret:  "smoke",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Seed:       true,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(stub.GetRouter())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestValidateAllAgainstStub(t *testing.T) {
	url := setupBackend(t)
	v := NewValidator(Config{
		API:      external.Config{BaseURL: url, Timeout: 5 * time.Second},
		Email:    "bruno@example.com",
		Password: "secret",
	})

	report, err := v.ValidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Sports)
	assert.Equal(t, 2, report.Centers)
	assert.Equal(t, int64(2), report.UserID)
	require.NotNil(t, report.Reservation)
	assert.Equal(t, 20.0, report.Reservation.Price)
	// example.com matches Carla, who is already a contact.
	assert.Zero(t, report.Candidates)
}

func TestValidateAllFindsFreeSlot(t *testing.T) {
	url := setupBackend(t)
	cfg := Config{
		API:      external.Config{BaseURL: url, Timeout: 5 * time.Second},
		Email:    "bruno@example.com",
		Password: "secret",
	}

	first, err := NewValidator(cfg).ValidateAll(context.Background())
	require.NoError(t, err)

	second, err := NewValidator(cfg).ValidateAll(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Reservation.StartDateTime.Add(time.Hour).Equal(second.Reservation.StartDateTime))
}

func TestValidateAllWrongPassword(t *testing.T) {
	url := setupBackend(t)
	v := NewValidator(Config{
		API:      external.Config{BaseURL: url, Timeout: 5 * time.Second},
		Email:    "bruno@example.com",
		Password: "nope",
	})

	_, err := v.ValidateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session validation failed")
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "example.com", searchQuery("bruno@example.com"))
	assert.Equal(t, "bruno", searchQuery("bruno"))
}
