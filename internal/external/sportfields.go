package external

import (
	"context"
	"net/http"

	"sportsbook/internal/models"
	"sportsbook/internal/validation"
)

type SportFieldsClient struct {
	t *Transport
}

// List returns every sport field; failures degrade to an empty list.
func (c *SportFieldsClient) List(ctx context.Context) []models.SportField {
	fields, err := fetchList[models.SportField](ctx, c.t, call{method: http.MethodGet, path: "/api/sportfields"})
	return orDegrade(ctx, "sportFields", fields, err)
}

// BySportsCenter returns the fields of one center; failures degrade to an empty list.
func (c *SportFieldsClient) BySportsCenter(ctx context.Context, centerID int64) []models.SportField {
	fields, err := c.FetchBySportsCenter(ctx, centerID)
	return orDegrade(ctx, "sportFields by center", fields, err)
}

// FetchBySportsCenter is BySportsCenter with the error returned.
func (c *SportFieldsClient) FetchBySportsCenter(ctx context.Context, centerID int64) ([]models.SportField, error) {
	return fetchList[models.SportField](ctx, c.t, call{
		method:   http.MethodPost,
		path:     "/api/sportfields/getBySportsCenter",
		jsonBody: models.SportsCenterIDRequest{SportsCenterID: centerID},
	})
}

// Create adds a field. The backend reads a JSON body on this endpoint even though it
// is declared form-encoded, so the legacy header is kept.
func (c *SportFieldsClient) Create(ctx context.Context, in models.NewSportField) (*models.SportField, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var field models.SportField
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/sportfields/post",
		jsonBody:      in,
		contentType:   contentTypeForm,
		authenticated: true,
	}, &field)
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (c *SportFieldsClient) Delete(ctx context.Context, id int64) (*models.SportField, error) {
	var field models.SportField
	_, err := c.t.do(ctx, call{
		method:        http.MethodDelete,
		path:          idPath("/api/sportfields", id),
		route:         "/api/sportfields/{id}",
		authenticated: true,
	}, &field)
	if err != nil {
		return nil, err
	}
	return &field, nil
}
