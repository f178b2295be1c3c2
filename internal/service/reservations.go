package service

import (
	"context"
	"time"

	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/metrics"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
)

type ReservationService struct {
	reservations *external.ReservationsClient
	cache        *query.Client
	publisher    messaging.Publisher
}

func NewReservationService(reservations *external.ReservationsClient, cache *query.Client, publisher messaging.Publisher) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		cache:        cache,
		publisher:    publisher,
	}
}

// ListByUser returns the user's reservations, cached under ["reservations", userID].
func (s *ReservationService) ListByUser(ctx context.Context, userID int64) []models.Reservation {
	list, err := query.Fetch(ctx, s.cache, query.Query[[]models.Reservation]{
		Key:            ReservationsKey(userID),
		RefetchOnFocus: true,
		Fn: func(ctx context.Context) ([]models.Reservation, error) {
			return s.reservations.FetchByUser(ctx, userID)
		},
	})
	return settledList(ctx, "reservations", list, err)
}

// Create books a field and invalidates the user's reservation list on success.
func (s *ReservationService) Create(ctx context.Context, req models.NewReservation) (*models.Reservation, error) {
	return query.Mutate(ctx, s.cache, query.Mutation[models.NewReservation, *models.Reservation]{
		Name: "createReservation",
		Fn:   s.reservations.Create,
		OnSuccess: func(c *query.Client, vars models.NewReservation, r *models.Reservation) {
			metrics.ReservationsSubmitted.WithLabelValues("success").Inc()
			logger.WithContext(ctx).Info("Reservation created",
				"reservation_id", r.ID,
				"sport_field_id", r.SportFieldID,
				"price", r.Price)

			publish(ctx, s.publisher, models.EventReservationCreated, models.ReservationCreatedEvent{
				ReservationID:  r.ID,
				UserID:         r.UserID,
				SportsCenterID: r.SportsCenterID,
				SportFieldID:   r.SportFieldID,
				StartDateTime:  r.StartDateTime,
				Duration:       r.Duration,
				Price:          r.Price,
				Timestamp:      time.Now(),
			})
		},
		OnError: func(c *query.Client, vars models.NewReservation, err error) {
			metrics.ReservationsSubmitted.WithLabelValues("failure").Inc()
		},
		Invalidates: []query.Key{ReservationsKey(req.UserID)},
	}, req)
}
