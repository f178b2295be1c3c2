package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
	"sportsbook/internal/validation"
)

// AuthService implements the session contract: login, logout, registration, the
// cached current-user profile and profile editing.
type AuthService struct {
	users     *external.UsersClient
	transport *external.Transport
	cache     *query.Client
	publisher messaging.Publisher
	staleTime time.Duration
}

func NewAuthService(users *external.UsersClient, transport *external.Transport, cache *query.Client, publisher messaging.Publisher, staleTime time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		transport: transport,
		cache:     cache,
		publisher: publisher,
		staleTime: staleTime,
	}
}

// Login exchanges credentials for a session. The profile is read back through the
// cookie session, then the token is persisted and the profile placed in the cache.
// If either step fails the half-open session is discarded.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	resp, err := s.users.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		s.discardSession(ctx)
		return nil, "", fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		user = resp.User
	}

	if err := s.transport.Tokens().Save(ctx, resp.MobileToken); err != nil {
		s.discardSession(ctx)
		return nil, "", fmt.Errorf("failed to persist session token: %w", err)
	}

	s.cache.SetData(UserKey(), user)
	s.cache.Invalidate(UserKey())

	if user != nil {
		logger.WithContext(logger.ContextWithUserID(ctx, user.ID)).Info("Logged in")
	}
	return user, resp.MobileToken, nil
}

// Logout forgets the session and invalidates every cached query.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.transport.Tokens().Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	s.transport.ResetCookies()
	s.cache.InvalidateAll()
	return nil
}

// discardSession drops the cookies a failed login left behind.
func (s *AuthService) discardSession(ctx context.Context) {
	if err := s.transport.Tokens().Clear(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to clear session", "error", err)
	}
	s.transport.ResetCookies()
}

// Register creates a non-administrator account, caches its profile and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.users.Register(ctx, models.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	s.cache.SetData(UserKey(), user)
	s.cache.Invalidate(UserKey())

	if _, _, err := s.Login(ctx, email, password); err != nil {
		logger.WithContext(ctx).Warn("Account created but sign-in failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// CurrentUser returns the signed-in profile, or nil when there is no valid session.
// Only transport failures are returned as errors.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	return query.Fetch(ctx, s.cache, query.Query[*models.User]{
		Key:            UserKey(),
		StaleTime:      s.staleTime,
		RefetchOnFocus: true,
		Fn: func(ctx context.Context) (*models.User, error) {
			user, err := s.users.CurrentUser(ctx)
			if err != nil {
				switch apierrors.StatusCode(err) {
				case http.StatusUnauthorized, http.StatusForbidden:
					return nil, nil
				}
				return nil, err
			}
			return user, nil
		},
	})
}

// EditProfile applies update optimistically to the cached profile. On failure the
// previous profile is restored; either way the profile is refetched afterwards.
func (s *AuthService) EditProfile(ctx context.Context, update models.UpdateUserRequest) (*models.User, error) {
	token, err := s.transport.Tokens().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return nil, &apierrors.AuthError{Reason: "sign in to edit your profile"}
	}
	if err := validation.Struct(update); err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[models.UpdateUserRequest, *models.User]{
		Name: "editProfile",
		Fn:   s.users.Update,
		OnMutate: func(c *query.Client, vars models.UpdateUserRequest) func() {
			current, ok := query.GetData[*models.User](c, UserKey())
			if !ok || current == nil {
				return nil
			}
			next := vars.Apply(*current)
			return c.Optimistic(UserKey(), &next)
		},
		OnSuccess: func(c *query.Client, vars models.UpdateUserRequest, user *models.User) {
			publish(ctx, s.publisher, models.EventProfileUpdated, models.ProfileUpdatedEvent{
				UserID:    user.ID,
				Timestamp: time.Now(),
			})
		},
		OnSettled: func(c *query.Client, vars models.UpdateUserRequest) {
			c.Invalidate(UserKey())
		},
	}, update)
}

// DeleteAccount removes the signed-in account and ends the session.
func (s *AuthService) DeleteAccount(ctx context.Context) (*models.User, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	deleted, err := s.users.Delete(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Logout(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// requireUser returns the signed-in profile or an AuthError.
func (s *AuthService) requireUser(ctx context.Context) (*models.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apierrors.AuthError{Reason: "not signed in"}
	}
	return user, nil
}
