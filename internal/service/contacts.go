package service

import (
	"context"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/external"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
	"sportsbook/internal/search"
)

type ContactService struct {
	contacts  *external.ContactsClient
	cache     *query.Client
	publisher messaging.Publisher
	search    search.Config
}

func NewContactService(contacts *external.ContactsClient, cache *query.Client, publisher messaging.Publisher, searchCfg search.Config) *ContactService {
	return &ContactService{
		contacts:  contacts,
		cache:     cache,
		publisher: publisher,
		search:    searchCfg,
	}
}

// List returns the contacts of userID, cached under ["contacts", userID].
func (s *ContactService) List(ctx context.Context, userID int64) []models.Contact {
	list, err := query.Fetch(ctx, s.cache, query.Query[[]models.Contact]{
		Key: ContactsKey(userID),
		Fn: func(ctx context.Context) ([]models.Contact, error) {
			return s.contacts.FetchByUser(ctx, userID)
		},
	})
	return settledList(ctx, "contacts", list, err)
}

// Add creates the edge userID -> contact.ID. Self edges and edges already present in
// the cached contact list are rejected before any request.
func (s *ContactService) Add(ctx context.Context, userID int64, contact models.ContactSummary) (*models.Contact, error) {
	if contact.ID == userID {
		return nil, apierrors.NewValidationError("contactId", "nefield=userId")
	}
	if s.isContact(userID, contact.ID) {
		return nil, apierrors.NewValidationError("contactId", "unique")
	}

	req := models.NewContact{UserID: userID, ContactID: contact.ID, Contact: &contact}
	return query.Mutate(ctx, s.cache, query.Mutation[models.NewContact, *models.Contact]{
		Name: "addContact",
		Fn:   s.contacts.Add,
		OnSuccess: func(c *query.Client, vars models.NewContact, created *models.Contact) {
			publish(ctx, s.publisher, models.EventContactAdded, models.ContactEvent{
				UserID:    vars.UserID,
				ContactID: vars.ContactID,
				Timestamp: time.Now(),
			})
		},
		Invalidates: []query.Key{ContactsKey(userID)},
	}, req)
}

func (s *ContactService) Remove(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	req := models.RemoveContactRequest{UserID: userID, ContactID: contactID}
	return query.Mutate(ctx, s.cache, query.Mutation[models.RemoveContactRequest, *models.Contact]{
		Name: "removeContact",
		Fn:   s.contacts.Remove,
		OnSuccess: func(c *query.Client, vars models.RemoveContactRequest, removed *models.Contact) {
			publish(ctx, s.publisher, models.EventContactRemoved, models.ContactEvent{
				UserID:    vars.UserID,
				ContactID: vars.ContactID,
				Timestamp: time.Now(),
			})
		},
		Invalidates: []query.Key{ContactsKey(userID)},
	}, req)
}

// NewSearcher returns a debounced user search for userID's "add contact" box. Results
// never include userID itself or users already in its cached contact list.
func (s *ContactService) NewSearcher(userID int64, onResult func(search.Result[[]models.ContactSummary])) *search.Debouncer[[]models.ContactSummary] {
	return search.NewDebouncer(s.search, func(ctx context.Context, q string) ([]models.ContactSummary, error) {
		found, err := s.contacts.Search(ctx, models.SearchContactsRequest{Query: q, UserID: userID})
		if err != nil {
			return nil, err
		}
		return s.filterCandidates(userID, found), nil
	}, onResult)
}

func (s *ContactService) filterCandidates(userID int64, found []models.ContactSummary) []models.ContactSummary {
	candidates := make([]models.ContactSummary, 0, len(found))
	for _, u := range found {
		if u.ID == userID || s.isContact(userID, u.ID) {
			continue
		}
		candidates = append(candidates, u)
	}
	return candidates
}

func (s *ContactService) isContact(userID, contactID int64) bool {
	existing, _ := query.GetData[[]models.Contact](s.cache, ContactsKey(userID))
	for _, c := range existing {
		if c.ContactID == contactID {
			return true
		}
	}
	return false
}
