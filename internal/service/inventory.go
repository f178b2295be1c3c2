package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/external"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
	"sportsbook/internal/validation"

	"golang.org/x/sync/errgroup"
)

// InventoryService manages centers, fields and sports. Every operation requires a
// signed-in administrator.
type InventoryService struct {
	auth      *AuthService
	catalog   *CatalogService
	clients   *external.Clients
	cache     *query.Client
	publisher messaging.Publisher
}

func NewInventoryService(auth *AuthService, catalog *CatalogService, clients *external.Clients, cache *query.Client, publisher messaging.Publisher) *InventoryService {
	return &InventoryService{
		auth:      auth,
		catalog:   catalog,
		clients:   clients,
		cache:     cache,
		publisher: publisher,
	}
}

// CenterInventory is one owned center with its fields.
type CenterInventory struct {
	Center models.SportsCenter
	Fields []models.SportField
}

// Overview is the administrator's inventory screen.
type Overview struct {
	Admin   *models.User
	Sports  []models.Sport
	Centers []CenterInventory
}

func (s *InventoryService) requireAdmin(ctx context.Context) (*models.User, error) {
	user, err := s.auth.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.Administrator.Bool() {
		return nil, apierrors.ErrForbidden
	}
	return user, nil
}

// Overview loads the admin's centers and, concurrently, the fields of each center.
// A center with no fields has an empty, non-nil field list.
func (s *InventoryService) Overview(ctx context.Context) (*Overview, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	centers := s.catalog.CentersByUser(ctx, admin.ID)
	out := &Overview{Admin: admin, Centers: make([]CenterInventory, len(centers))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sports := s.catalog.Sports(gctx)
		mu.Lock()
		out.Sports = sports
		mu.Unlock()
		return nil
	})
	for i, center := range centers {
		g.Go(func() error {
			fields := s.catalog.FieldsByCenter(gctx, center.ID)
			mu.Lock()
			out.Centers[i] = CenterInventory{Center: center, Fields: fields}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return out, nil
}

// AddField creates a field in one of the admin's centers.
func (s *InventoryService) AddField(ctx context.Context, in models.NewSportField) (*models.SportField, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[models.NewSportField, *models.SportField]{
		Name: "addSportField",
		Fn:   s.clients.SportFields.Create,
		OnSuccess: func(c *query.Client, vars models.NewSportField, field *models.SportField) {
			publish(ctx, s.publisher, models.EventSportFieldCreated, models.SportFieldEvent{
				SportFieldID:   field.ID,
				SportsCenterID: vars.SportsCenterID,
				AdminID:        admin.ID,
				Timestamp:      time.Now(),
			})
		},
		Invalidates: []query.Key{SportFieldsKey(in.SportsCenterID), SportsCenterKey(in.SportsCenterID)},
	}, in)
}

func (s *InventoryService) DeleteField(ctx context.Context, centerID, fieldID int64) (*models.SportField, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[int64, *models.SportField]{
		Name: "deleteSportField",
		Fn:   s.clients.SportFields.Delete,
		OnSuccess: func(c *query.Client, id int64, field *models.SportField) {
			publish(ctx, s.publisher, models.EventSportFieldDeleted, models.SportFieldEvent{
				SportFieldID:   id,
				SportsCenterID: centerID,
				AdminID:        admin.ID,
				Timestamp:      time.Now(),
			})
		},
		Invalidates: []query.Key{SportFieldsKey(centerID), SportsCenterKey(centerID)},
	}, fieldID)
}

// CreateCenter creates a center owned by the admin when in.OwnerID is unset.
func (s *InventoryService) CreateCenter(ctx context.Context, in models.SportsCenterInput) (*models.SportsCenter, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if in.OwnerID == 0 {
		in.OwnerID = admin.ID
	}

	return query.Mutate(ctx, s.cache, query.Mutation[models.SportsCenterInput, *models.SportsCenter]{
		Name:        "createSportsCenter",
		Fn:          s.clients.SportsCenters.Create,
		Invalidates: []query.Key{SportsCentersKey()},
	}, in)
}

func (s *InventoryService) UpdateCenter(ctx context.Context, id int64, in models.SportsCenterInput) (*models.SportsCenter, error) {
	admin, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if in.OwnerID == 0 {
		in.OwnerID = admin.ID
	}

	return query.Mutate(ctx, s.cache, query.Mutation[models.SportsCenterInput, *models.SportsCenter]{
		Name: "updateSportsCenter",
		Fn: func(ctx context.Context, vars models.SportsCenterInput) (*models.SportsCenter, error) {
			return s.clients.SportsCenters.Update(ctx, id, vars)
		},
		Invalidates: []query.Key{SportsCentersKey(), SportsCenterKey(id)},
	}, in)
}

func (s *InventoryService) DeleteCenter(ctx context.Context, id int64) (*models.SportsCenter, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[int64, *models.SportsCenter]{
		Name:        "deleteSportsCenter",
		Fn:          s.clients.SportsCenters.Delete,
		Invalidates: []query.Key{SportsCentersKey(), SportsCenterKey(id), SportFieldsKey(id)},
	}, id)
}

func (s *InventoryService) AddSport(ctx context.Context, name string) (*models.Sport, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[models.NewSport, *models.Sport]{
		Name:        "addSport",
		Fn:          s.clients.Sports.Create,
		Invalidates: []query.Key{SportsKey()},
	}, models.NewSport{Name: name})
}

func (s *InventoryService) DeleteSport(ctx context.Context, id int64) (*models.Sport, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	return query.Mutate(ctx, s.cache, query.Mutation[int64, *models.Sport]{
		Name:        "deleteSport",
		Fn:          s.clients.Sports.Delete,
		Invalidates: []query.Key{SportsKey()},
	}, id)
}

// Users lists every account.
func (s *InventoryService) Users(ctx context.Context) ([]models.User, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.clients.Users.List(ctx), nil
}

// Reservations lists the reservations of every user.
func (s *InventoryService) Reservations(ctx context.Context) ([]models.Reservation, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.clients.Reservations.List(ctx), nil
}
