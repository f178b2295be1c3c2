package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/models"
	"sportsbook/internal/validation"
)

type UsersClient struct {
	t *Transport
}

// Login posts the credentials. The backend also sets the session cookie used by
// CurrentUser.
func (c *UsersClient) Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	_, err := c.t.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/login",
		form:   url.Values{"email": {in.Email}, "password": {in.Password}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.MobileToken == "" {
		return nil, &apierrors.AuthError{Reason: "login response has no token"}
	}
	return &resp, nil
}

// CurrentUser reads the profile of the cookie session.
func (c *UsersClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	found, err := c.t.do(ctx, call{method: http.MethodGet, path: "/api/users/getUser"}, &user)
	if err != nil {
		return nil, err
	}
	if !found || user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (c *UsersClient) Register(ctx context.Context, in models.RegisterRequest) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	form := url.Values{
		"name":          {in.Name},
		"email":         {in.Email},
		"password":      {in.Password},
		"administrator": {strconv.FormatBool(in.Administrator)},
	}

	var user models.User
	if _, err := c.t.do(ctx, call{method: http.MethodPost, path: "/api/users", form: form}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *UsersClient) Update(ctx context.Context, in models.UpdateUserRequest) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var user models.User
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/users/updateUser",
		jsonBody:      in,
		authenticated: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user; failures degrade to an empty list.
func (c *UsersClient) List(ctx context.Context) []models.User {
	users, err := fetchList[models.User](ctx, c.t, call{method: http.MethodGet, path: "/api/users"})
	return orDegrade(ctx, "users", users, err)
}

// Delete removes an account and returns it.
func (c *UsersClient) Delete(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	_, err := c.t.do(ctx, call{
		method:        http.MethodDelete,
		path:          idPath("/api/users", id),
		route:         "/api/users/{id}",
		authenticated: true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
