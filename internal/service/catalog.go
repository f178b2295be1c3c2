package service

import (
	"context"

	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
)

// CatalogService - кешируемые чтения каталога
type CatalogService struct {
	sports  *external.SportsClient
	centers *external.SportsCentersClient
	fields  *external.SportFieldsClient
	cache   *query.Client
}

func NewCatalogService(sports *external.SportsClient, centers *external.SportsCentersClient, fields *external.SportFieldsClient, cache *query.Client) *CatalogService {
	return &CatalogService{
		sports:  sports,
		centers: centers,
		fields:  fields,
		cache:   cache,
	}
}

func (s *CatalogService) Sports(ctx context.Context) []models.Sport {
	sports, err := query.Fetch(ctx, s.cache, query.Query[[]models.Sport]{
		Key: SportsKey(),
		Fn:  s.sports.Fetch,
	})
	return settledList(ctx, "sports", sports, err)
}

func (s *CatalogService) Centers(ctx context.Context) []models.SportsCenter {
	centers, err := query.Fetch(ctx, s.cache, query.Query[[]models.SportsCenter]{
		Key: SportsCentersKey(),
		Fn:  s.centers.FetchAll,
	})
	return settledList(ctx, "sportsCenters", centers, err)
}

func (s *CatalogService) CentersBySport(ctx context.Context, sportName string) []models.SportsCenter {
	centers, err := query.Fetch(ctx, s.cache, query.Query[[]models.SportsCenter]{
		Key: CentersBySportKey(sportName),
		Fn: func(ctx context.Context) ([]models.SportsCenter, error) {
			return s.centers.FetchBySport(ctx, sportName)
		},
	})
	return settledList(ctx, "sportsCenters by sport", centers, err)
}

func (s *CatalogService) CentersByUser(ctx context.Context, userID int64) []models.SportsCenter {
	centers, err := query.Fetch(ctx, s.cache, query.Query[[]models.SportsCenter]{
		Key: CentersByUserKey(userID),
		Fn: func(ctx context.Context) ([]models.SportsCenter, error) {
			return s.centers.FetchByUser(ctx, userID)
		},
	})
	return settledList(ctx, "sportsCenters by user", centers, err)
}

// Center returns one sports center; errors.ErrNotFound when it does not exist.
func (s *CatalogService) Center(ctx context.Context, id int64) (*models.SportsCenter, error) {
	return query.Fetch(ctx, s.cache, query.Query[*models.SportsCenter]{
		Key: SportsCenterKey(id),
		Fn: func(ctx context.Context) (*models.SportsCenter, error) {
			return s.centers.Get(ctx, id)
		},
	})
}

func (s *CatalogService) FieldsByCenter(ctx context.Context, centerID int64) []models.SportField {
	fields, err := query.Fetch(ctx, s.cache, query.Query[[]models.SportField]{
		Key: SportFieldsKey(centerID),
		Fn: func(ctx context.Context) ([]models.SportField, error) {
			return s.fields.FetchBySportsCenter(ctx, centerID)
		},
	})
	return settledList(ctx, "sportFields", fields, err)
}

// settledList is what a list read shows: after a failed refetch the list already
// cached, otherwise an empty one. The failure stays recorded in the cache entry.
func settledList[T any](ctx context.Context, what string, list []T, err error) []T {
	if err != nil {
		logger.WithContext(ctx).Warn("List read failed, showing cached list", "list", what, "cached", len(list), "error", err)
	}
	return orEmpty(list)
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
