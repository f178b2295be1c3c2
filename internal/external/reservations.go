package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sportsbook/internal/models"
	"sportsbook/internal/validation"
)

type ReservationsClient struct {
	t *Transport
}

// List returns every reservation; failures degrade to an empty list.
func (c *ReservationsClient) List(ctx context.Context) []models.Reservation {
	reservations, err := fetchList[models.Reservation](ctx, c.t, call{method: http.MethodGet, path: "/api/reservations"})
	return orDegrade(ctx, "reservations", reservations, err)
}

// ByUser returns the reservations of userID. Anonymous callers (userID <= 0) get an
// empty list without a request.
func (c *ReservationsClient) ByUser(ctx context.Context, userID int64) []models.Reservation {
	reservations, err := c.FetchByUser(ctx, userID)
	return orDegrade(ctx, "reservations by user", reservations, err)
}

// FetchByUser is ByUser with the error returned.
func (c *ReservationsClient) FetchByUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	if userID <= 0 {
		return []models.Reservation{}, nil
	}
	return fetchList[models.Reservation](ctx, c.t, call{
		method:   http.MethodPost,
		path:     "/api/users/getReservations",
		jsonBody: models.UserIDRequest{UserID: userID},
	})
}

// Create books a field. The returned reservation carries the price the backend stored.
func (c *ReservationsClient) Create(ctx context.Context, in models.NewReservation) (*models.Reservation, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	form := url.Values{
		"userID":         {formatInt(in.UserID)},
		"sportsCenterID": {formatInt(in.SportsCenterID)},
		"sportFieldID":   {formatInt(in.SportFieldID)},
		"startDateTime":  {in.StartDateTime.UTC().Format(time.RFC3339)},
		"duration":       {strconv.Itoa(in.Duration)},
		"price":          {formatPrice(in.Price)},
	}

	var reservation models.Reservation
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/reservations",
		form:          form,
		authenticated: true,
	}, &reservation)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}
