package external

import (
	"context"
	"net/http"
	"net/url"

	"sportsbook/internal/models"
	"sportsbook/internal/validation"
)

type SportsClient struct {
	t *Transport
}

// List returns every sport; failures degrade to an empty list.
func (c *SportsClient) List(ctx context.Context) []models.Sport {
	sports, err := c.Fetch(ctx)
	return orDegrade(ctx, "sports", sports, err)
}

// Fetch is List with the error returned.
func (c *SportsClient) Fetch(ctx context.Context) ([]models.Sport, error) {
	return fetchList[models.Sport](ctx, c.t, call{method: http.MethodGet, path: "/api/sports"})
}

func (c *SportsClient) Create(ctx context.Context, in models.NewSport) (*models.Sport, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var sport models.Sport
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/sports",
		form:          url.Values{"name": {in.Name}},
		authenticated: true,
	}, &sport)
	if err != nil {
		return nil, err
	}
	return &sport, nil
}

// Delete removes a sport and returns the deleted entity.
func (c *SportsClient) Delete(ctx context.Context, id int64) (*models.Sport, error) {
	var sport models.Sport
	_, err := c.t.do(ctx, call{
		method:        http.MethodDelete,
		path:          idPath("/api/sports", id),
		route:         "/api/sports/{id}",
		authenticated: true,
	}, &sport)
	if err != nil {
		return nil, err
	}
	return &sport, nil
}
