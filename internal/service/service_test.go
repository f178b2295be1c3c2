package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"sportsbook/internal/external"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
	"sportsbook/internal/search"
	"sportsbook/internal/session"
	"sportsbook/internal/stubserver"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	services  *Services
	clients   *external.Clients
	stub      *stubserver.Server
	publisher *messaging.Recorder
	tokens    *session.MemoryStore
	baseURL   string
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	stub, err := stubserver.NewServer(stubserver.Config{
		GinMode:    gin.TestMode,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Seed:       true,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(stub.GetRouter())
	t.Cleanup(srv.Close)

	tokens := session.NewMemoryStore()
	publisher := &messaging.Recorder{}
	services, clients := newServices(srv.URL, tokens, publisher)

	return &testEnv{
		services:  services,
		clients:   clients,
		stub:      stub,
		publisher: publisher,
		tokens:    tokens,
		baseURL:   srv.URL,
	}
}

// newServices wires a fresh client stack, the way a new CLI process does.
func newServices(baseURL string, tokens session.TokenStore, publisher messaging.Publisher) (*Services, *external.Clients) {
	clients := external.NewClients(external.Config{BaseURL: baseURL, Timeout: 5 * time.Second}, tokens)
	cache := query.NewClient(query.Config{StaleTime: time.Minute})
	services := NewServices(clients, cache, publisher, Options{
		Search: search.Config{Delay: 10 * time.Millisecond, MinLength: 2},
	})
	return services, clients
}

func (e *testEnv) login(t *testing.T, email, password string) *models.User {
	t.Helper()
	user, token, err := e.services.Auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, user)
	return user
}

// nextSlot is a start time safely in the future, on the hour.
func nextSlot(hoursAhead int) time.Time {
	return time.Now().UTC().Truncate(time.Hour).Add(time.Duration(24+hoursAhead) * time.Hour)
}
