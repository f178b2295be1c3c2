package service

import (
	"context"
	"time"

	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/query"
	"sportsbook/internal/search"
)

// Options tune the services; zero values fall back to defaults.
type Options struct {
	// UserStaleTime is how long the current-user profile stays fresh.
	UserStaleTime time.Duration
	Search        search.Config
	Now           func() time.Time
}

type Services struct {
	Auth         *AuthService
	Catalog      *CatalogService
	Reservations *ReservationService
	Contacts     *ContactService
	Inventory    *InventoryService

	Cache *query.Client
	now   func() time.Time
}

func NewServices(clients *external.Clients, cache *query.Client, publisher messaging.Publisher, opts Options) *Services {
	if opts.UserStaleTime <= 0 {
		opts.UserStaleTime = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = messaging.Noop{}
	}

	authService := NewAuthService(clients.Users, clients.Transport, cache, publisher, opts.UserStaleTime)
	catalogService := NewCatalogService(clients.Sports, clients.SportsCenters, clients.SportFields, cache)
	reservationService := NewReservationService(clients.Reservations, cache, publisher)
	contactService := NewContactService(clients.Contacts, cache, publisher, opts.Search)
	inventoryService := NewInventoryService(authService, catalogService, clients, cache, publisher)

	return &Services{
		Auth:         authService,
		Catalog:      catalogService,
		Reservations: reservationService,
		Contacts:     contactService,
		Inventory:    inventoryService,
		Cache:        cache,
		now:          opts.Now,
	}
}

// NewBooking starts a booking workflow for userID.
func (s *Services) NewBooking(userID int64) *Booking {
	return NewBooking(userID, s.Catalog, s.Reservations, s.now)
}

// publish sends an event; failures are logged and never fail the operation.
func publish(ctx context.Context, p messaging.Publisher, subject string, data any) {
	if err := p.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
