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

type SportsCentersClient struct {
	t *Transport
}

// List returns every sports center; failures degrade to an empty list.
func (c *SportsCentersClient) List(ctx context.Context) []models.SportsCenter {
	centers, err := c.FetchAll(ctx)
	return orDegrade(ctx, "sportsCenters", centers, err)
}

// BySport returns the centers offering sportName.
func (c *SportsCentersClient) BySport(ctx context.Context, sportName string) []models.SportsCenter {
	centers, err := c.FetchBySport(ctx, sportName)
	return orDegrade(ctx, "sportsCenters by sport", centers, err)
}

// ByUser returns the centers owned by userID. Centers that carry an ownerId for a
// different user are filtered out.
func (c *SportsCentersClient) ByUser(ctx context.Context, userID int64) []models.SportsCenter {
	centers, err := c.FetchByUser(ctx, userID)
	return orDegrade(ctx, "sportsCenters by user", centers, err)
}

// FetchAll, FetchBySport and FetchByUser return the error instead of degrading.
func (c *SportsCentersClient) FetchAll(ctx context.Context) ([]models.SportsCenter, error) {
	return fetchList[models.SportsCenter](ctx, c.t, call{method: http.MethodGet, path: "/api/sportscenters"})
}

func (c *SportsCentersClient) FetchBySport(ctx context.Context, sportName string) ([]models.SportsCenter, error) {
	return fetchList[models.SportsCenter](ctx, c.t, call{
		method:   http.MethodPost,
		path:     "/api/sportscenters/getBySport",
		jsonBody: models.SportNameRequest{SportName: sportName},
	})
}

func (c *SportsCentersClient) FetchByUser(ctx context.Context, userID int64) ([]models.SportsCenter, error) {
	centers, err := fetchList[models.SportsCenter](ctx, c.t, call{
		method:   http.MethodPost,
		path:     "/api/sportscenters/getByUserId",
		jsonBody: models.UserIDRequest{UserID: userID},
	})
	if err != nil {
		return nil, err
	}

	owned := centers[:0]
	for _, center := range centers {
		if center.OwnerID == 0 || center.OwnerID == userID {
			owned = append(owned, center)
		}
	}
	return owned, nil
}

// Get returns one center. A 404 or an empty body yields ErrNotFound.
func (c *SportsCentersClient) Get(ctx context.Context, id int64) (*models.SportsCenter, error) {
	var center models.SportsCenter
	found, err := c.t.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/sportscenters/getSportsCenter",
		jsonBody: models.IDRequest{ID: id},
	}, &center)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apierrors.ErrNotFound
	}
	return &center, nil
}

func (c *SportsCentersClient) Create(ctx context.Context, in models.SportsCenterInput) (*models.SportsCenter, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var center models.SportsCenter
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/sportscenters",
		form:          centerForm(in),
		authenticated: true,
	}, &center)
	if err != nil {
		return nil, err
	}
	return &center, nil
}

func (c *SportsCentersClient) Update(ctx context.Context, id int64, in models.SportsCenterInput) (*models.SportsCenter, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var center models.SportsCenter
	_, err := c.t.do(ctx, call{
		method:        http.MethodPut,
		path:          idPath("/api/sportscenters", id),
		route:         "/api/sportscenters/{id}",
		form:          centerForm(in),
		authenticated: true,
	}, &center)
	if err != nil {
		return nil, err
	}
	return &center, nil
}

func (c *SportsCentersClient) Delete(ctx context.Context, id int64) (*models.SportsCenter, error) {
	var center models.SportsCenter
	_, err := c.t.do(ctx, call{
		method:        http.MethodDelete,
		path:          idPath("/api/sportscenters", id),
		route:         "/api/sportscenters/{id}",
		authenticated: true,
	}, &center)
	if err != nil {
		return nil, err
	}
	return &center, nil
}

func centerForm(in models.SportsCenterInput) url.Values {
	form := url.Values{
		"name":        {in.Name},
		"location":    {in.Location},
		"attendance":  {strconv.Itoa(in.Attendance)},
		"openingTime": {in.OpeningTime},
		"ownerId":     {formatInt(in.OwnerID)},
	}
	for _, id := range in.SportFields {
		form.Add("sportFields", formatInt(id))
	}
	return form
}
