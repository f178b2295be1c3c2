package external

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/logger"
	"sportsbook/internal/models"
	"sportsbook/internal/session"
	"sportsbook/internal/stubserver"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupStub(t *testing.T) (*Clients, *session.MemoryStore) {
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
	return NewClients(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, tokens), tokens
}

func setupFake(t *testing.T, handler http.HandlerFunc) *Clients {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClients(Config{BaseURL: srv.URL}, session.NewMemoryStore())
}

func signIn(t *testing.T, clients *Clients, tokens *session.MemoryStore, email, password string) {
	t.Helper()
	resp, err := clients.Users.Login(context.Background(), models.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, tokens.Save(context.Background(), resp.MobileToken))
}

func TestListsAgainstStub(t *testing.T) {
	clients, _ := setupStub(t)
	ctx := context.Background()

	assert.Len(t, clients.Sports.List(ctx), 3)
	assert.Len(t, clients.SportsCenters.List(ctx), 2)
	assert.Len(t, clients.SportFields.List(ctx), 2)
	assert.Len(t, clients.SportFields.BySportsCenter(ctx, 1), 2)
	assert.Empty(t, clients.SportFields.BySportsCenter(ctx, 2))
	assert.Len(t, clients.Users.List(ctx), 3)

	tennis := clients.SportsCenters.BySport(ctx, "Tennis")
	require.Len(t, tennis, 1)
	assert.Equal(t, "Downtown Arena", tennis[0].Name)
}

func TestListDegradesToEmpty(t *testing.T) {
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})
	ctx := context.Background()

	sports := clients.Sports.List(ctx)
	assert.NotNil(t, sports)
	assert.Empty(t, sports)
	assert.Empty(t, clients.SportsCenters.List(ctx))
	assert.Empty(t, clients.Contacts.ByUser(ctx, 2))
	assert.Empty(t, clients.Reservations.ByUser(ctx, 2))
}

func TestNullBodyIsEmpty(t *testing.T) {
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "null")
	})

	fields := clients.SportFields.BySportsCenter(context.Background(), 7)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)

	user, err := clients.Users.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTransportErrorCarriesServerMessage(t *testing.T) {
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Conflict", Message: "Field is already booked"})
	})

	_, err := clients.Users.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "x"})
	require.Error(t, err)

	var te *apierrors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusConflict, te.Status)
	assert.Equal(t, "Field is already booked", te.Message)
	assert.Equal(t, "Field is already booked", apierrors.UserMessage(err))
}

func TestNetworkFailureHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	clients := NewClients(Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := clients.SportsCenters.Get(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apierrors.IsTransport(err))
	assert.Equal(t, 0, apierrors.StatusCode(err))
}

func TestGetCenterNotFound(t *testing.T) {
	clients, _ := setupStub(t)

	_, err := clients.SportsCenters.Get(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, apierrors.StatusCode(err))
}

func TestMutationWithoutTokenIsAuthError(t *testing.T) {
	var calls atomic.Int32
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := clients.Sports.Create(context.Background(), models.NewSport{Name: "Squash"})
	require.Error(t, err)
	assert.True(t, apierrors.IsAuth(err))
	assert.ErrorIs(t, err, apierrors.ErrUnauthorized)
	assert.Zero(t, calls.Load())
}

func TestValidationBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := clients.Reservations.Create(context.Background(), models.NewReservation{
		UserID: 2, SportsCenterID: 1, SportFieldID: 1, StartDateTime: time.Now().Add(time.Hour), Duration: 9,
	})
	require.Error(t, err)
	assert.True(t, apierrors.IsValidation(err))
	assert.Zero(t, calls.Load())
}

func TestReservationsAnonymousMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	list := clients.Reservations.ByUser(context.Background(), 0)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Zero(t, calls.Load())
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":9,"name":"Squash"}`)
	})
	require.NoError(t, clients.Transport.Tokens().Save(context.Background(), "tok-1"))

	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	sport, err := clients.Sports.Create(ctx, models.NewSport{Name: "Squash"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), sport.ID)

	assert.Equal(t, "tok-1", got.Get(MobileTokenHeader))
	assert.Equal(t, "req-42", got.Get(RequestIDHeader))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))
}

func TestSportFieldCreateSendsJSONUnderFormType(t *testing.T) {
	var contentType string
	var body models.NewSportField
	clients := setupFake(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"id":5,"name":"Court 9","price":12}`)
	})
	require.NoError(t, clients.Transport.Tokens().Save(context.Background(), "tok"))

	_, err := clients.SportFields.Create(context.Background(), models.NewSportField{
		Name: "Court 9", Price: 12, Sports: []int64{1}, SportsCenterID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "Court 9", body.Name)
	assert.Equal(t, int64(2), body.SportsCenterID)
}

func TestCookieSessionAndLogout(t *testing.T) {
	clients, tokens := setupStub(t)
	ctx := context.Background()
	signIn(t, clients, tokens, "a@b.com", "x")

	user, err := clients.Users.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)

	clients.Transport.ResetCookies()
	_, err = clients.Users.CurrentUser(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apierrors.StatusCode(err))
}

func TestCookieSessionPersistsAcrossClients(t *testing.T) {
	stub, err := stubserver.NewServer(stubserver.Config{
		GinMode:    gin.TestMode,
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Seed:       true,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(stub.GetRouter())
	defer srv.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	cfg := Config{BaseURL: srv.URL, Timeout: 5 * time.Second}

	first := NewClients(cfg, session.NewFileStore(path))
	resp, err := first.Users.Login(ctx, models.LoginRequest{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	require.NoError(t, first.Transport.Tokens().Save(ctx, resp.MobileToken))

	stored, err := session.NewFileStore(path).LoadCookies(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, "sportsbook_session")

	// Fresh jar, same file.
	second := NewClients(cfg, session.NewFileStore(path))
	user, err := second.Users.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)

	require.NoError(t, second.Transport.Tokens().Clear(ctx))
	third := NewClients(cfg, session.NewFileStore(path))
	_, err = third.Users.CurrentUser(ctx)
	assert.Equal(t, http.StatusUnauthorized, apierrors.StatusCode(err))
}

func TestMalformedStoredCookiesAreIgnored(t *testing.T) {
	clients, tokens := setupStub(t)
	ctx := context.Background()
	require.NoError(t, tokens.SaveCookies(ctx, "{not json"))

	assert.Len(t, clients.Sports.List(ctx), 3)
}

func TestReservationRoundTrip(t *testing.T) {
	clients, tokens := setupStub(t)
	ctx := context.Background()
	signIn(t, clients, tokens, "bruno@example.com", "secret")

	start := time.Now().UTC().Truncate(time.Hour).Add(48 * time.Hour)
	r, err := clients.Reservations.Create(ctx, models.NewReservation{
		UserID: 2, SportsCenterID: 1, SportFieldID: 2, StartDateTime: start, Duration: 2, Price: 1,
	})
	require.NoError(t, err)
	// The stored price is the backend's, not the one sent.
	assert.Equal(t, 91.0, r.Price)

	list := clients.Reservations.ByUser(ctx, 2)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
}

func TestContactsRoundTrip(t *testing.T) {
	clients, tokens := setupStub(t)
	ctx := context.Background()
	signIn(t, clients, tokens, "bruno@example.com", "secret")

	found, err := clients.Contacts.Search(ctx, models.SearchContactsRequest{Query: "ana", UserID: 2})
	require.NoError(t, err)
	require.Len(t, found, 1)

	c, err := clients.Contacts.Add(ctx, models.NewContact{UserID: 2, ContactID: found[0].ID, Contact: &found[0]})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ContactID)
	assert.Len(t, clients.Contacts.ByUser(ctx, 2), 2)

	_, err = clients.Contacts.Remove(ctx, models.RemoveContactRequest{UserID: 2, ContactID: 1})
	require.NoError(t, err)
	assert.Len(t, clients.Contacts.ByUser(ctx, 2), 1)
}
