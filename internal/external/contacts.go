package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"sportsbook/internal/models"
	"sportsbook/internal/validation"
)

type ContactsClient struct {
	t *Transport
}

// ByUser returns the contacts of userID; failures degrade to an empty list.
func (c *ContactsClient) ByUser(ctx context.Context, userID int64) []models.Contact {
	contacts, err := c.FetchByUser(ctx, userID)
	return orDegrade(ctx, "contacts", contacts, err)
}

// FetchByUser is ByUser with the error returned.
func (c *ContactsClient) FetchByUser(ctx context.Context, userID int64) ([]models.Contact, error) {
	return fetchList[models.Contact](ctx, c.t, call{
		method:   http.MethodPost,
		path:     "/api/users/getContacts",
		jsonBody: models.UserIDRequest{UserID: userID},
	})
}

// Search looks up users matching query. Unlike list reads, errors propagate so the
// search box can show them.
func (c *ContactsClient) Search(ctx context.Context, in models.SearchContactsRequest) ([]models.ContactSummary, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var found []models.ContactSummary
	if _, err := c.t.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/users/searchContacts",
		jsonBody: in,
	}, &found); err != nil {
		return nil, err
	}
	if found == nil {
		found = []models.ContactSummary{}
	}
	return found, nil
}

func (c *ContactsClient) Add(ctx context.Context, in models.NewContact) (*models.Contact, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	form := url.Values{
		"userId":    {formatInt(in.UserID)},
		"contactId": {formatInt(in.ContactID)},
	}
	if in.Contact != nil {
		snapshot, err := json.Marshal(in.Contact)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal contact: %w", err)
		}
		form.Set("contact", string(snapshot))
	}

	var contact models.Contact
	_, err := c.t.do(ctx, call{
		method:        http.MethodPost,
		path:          "/api/contacts",
		form:          form,
		authenticated: true,
	}, &contact)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Remove deletes the edge userId -> contactId and returns it.
func (c *ContactsClient) Remove(ctx context.Context, in models.RemoveContactRequest) (*models.Contact, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var contact models.Contact
	_, err := c.t.do(ctx, call{
		method:        http.MethodDelete,
		path:          "/api/contacts/delete",
		jsonBody:      in,
		authenticated: true,
	}, &contact)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}
