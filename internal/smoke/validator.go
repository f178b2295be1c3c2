package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/query"
	"sportsbook/internal/search"
	"sportsbook/internal/service"
	"sportsbook/internal/session"
)

// maxSlotAttempts bounds the search for a free slot when earlier runs booked the
// first candidates.
const maxSlotAttempts = 24

// Config - параметры прогона
type Config struct {
	API      external.Config
	Email    string
	Password string
}

// Validator runs the end-to-end client flows against a live backend: catalog reads,
// sign-in, a booking and a contact search.
type Validator struct {
	cfg      Config
	services *service.Services
	now      func() time.Time
}

// NewValidator создает валидатор с отдельной сессией в памяти
func NewValidator(cfg Config) *Validator {
	clients := external.NewClients(cfg.API, session.NewMemoryStore())
	cache := query.NewClient(query.Config{StaleTime: time.Minute})
	return &Validator{
		cfg:      cfg,
		services: service.NewServices(clients, cache, messaging.Noop{}, service.Options{}),
		now:      time.Now,
	}
}

// Report summarizes a successful run.
type Report struct {
	Sports      int
	Centers     int
	UserID      int64
	Reservation *models.Reservation
	Candidates  int
}

// ValidateAll проверяет все сценарии по очереди и останавливается на первой ошибке
func (v *Validator) ValidateAll(ctx context.Context) (*Report, error) {
	log := logger.WithContext(ctx)
	log.Info("Начинаю проверку backend", "base_url", v.cfg.API.BaseURL)

	report := &Report{}

	if err := v.validateCatalog(ctx, report); err != nil {
		return report, fmt.Errorf("catalog validation failed: %w", err)
	}
	if err := v.validateSession(ctx, report); err != nil {
		return report, fmt.Errorf("session validation failed: %w", err)
	}
	defer func() {
		if err := v.services.Auth.Logout(ctx); err != nil {
			log.Warn("Failed to sign out", "error", err)
		}
	}()

	if err := v.validateBooking(ctx, report); err != nil {
		return report, fmt.Errorf("booking validation failed: %w", err)
	}
	if err := v.validateContacts(ctx, report); err != nil {
		return report, fmt.Errorf("contacts validation failed: %w", err)
	}

	log.Info("✅ Все сценарии прошли проверку")
	return report, nil
}

func (v *Validator) validateCatalog(ctx context.Context, report *Report) error {
	sports := v.services.Catalog.Sports(ctx)
	if len(sports) == 0 {
		return errors.New("GET /api/sports: expected non-empty list")
	}
	centers := v.services.Catalog.Centers(ctx)
	if len(centers) == 0 {
		return errors.New("GET /api/sportscenters: expected non-empty list")
	}
	report.Sports = len(sports)
	report.Centers = len(centers)

	logger.WithContext(ctx).Info("✅ Каталог доступен", "sports", len(sports), "centers", len(centers))
	return nil
}

func (v *Validator) validateSession(ctx context.Context, report *Report) error {
	user, _, err := v.services.Auth.Login(ctx, v.cfg.Email, v.cfg.Password)
	if err != nil {
		return err
	}

	current, err := v.services.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if current == nil || current.ID != user.ID {
		return errors.New("GET /api/users/getUser: session does not identify the signed-in user")
	}
	report.UserID = current.ID

	logger.WithContext(ctx).Info("✅ Сессия работает", "user_id", current.ID)
	return nil
}

func (v *Validator) validateBooking(ctx context.Context, report *Report) error {
	center, field, err := v.pickField(ctx)
	if err != nil {
		return err
	}

	b := v.services.NewBooking(report.UserID)
	if err := b.SelectCenter(ctx, center.ID); err != nil {
		return err
	}
	if err := b.SelectField(field.ID); err != nil {
		return err
	}

	start := v.now().UTC().Truncate(time.Hour).Add(7 * 24 * time.Hour)
	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		if err := b.SetStart(start); err != nil {
			return err
		}
		r, err := b.Submit(ctx)
		if err == nil {
			report.Reservation = r
			break
		}
		if apierrors.StatusCode(err) != http.StatusConflict {
			return err
		}
		start = start.Add(time.Hour)
	}
	if report.Reservation == nil {
		return fmt.Errorf("POST /api/reservations: no free slot on field %d", field.ID)
	}

	listed := false
	for _, r := range v.services.Reservations.ListByUser(ctx, report.UserID) {
		if r.ID == report.Reservation.ID {
			listed = true
			break
		}
	}
	if !listed {
		return fmt.Errorf("reservation %d is missing from the user's list", report.Reservation.ID)
	}

	logger.WithContext(ctx).Info("✅ Бронирование создано",
		"reservation_id", report.Reservation.ID,
		"sport_field_id", field.ID,
		"price", report.Reservation.Price)
	return nil
}

func (v *Validator) pickField(ctx context.Context) (models.SportsCenter, models.SportField, error) {
	for _, center := range v.services.Catalog.Centers(ctx) {
		fields := v.services.Catalog.FieldsByCenter(ctx, center.ID)
		if len(fields) > 0 {
			return center, fields[0], nil
		}
	}
	return models.SportsCenter{}, models.SportField{}, errors.New("no sports center has a bookable field")
}

func (v *Validator) validateContacts(ctx context.Context, report *Report) error {
	v.services.Contacts.List(ctx, report.UserID)

	results := make(chan search.Result[[]models.ContactSummary], 1)
	searcher := v.services.Contacts.NewSearcher(report.UserID, func(res search.Result[[]models.ContactSummary]) {
		select {
		case results <- res:
		default:
		}
	})
	defer searcher.Stop()

	searcher.Input(ctx, searchQuery(v.cfg.Email))

	select {
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		report.Candidates = len(res.Value)
	case <-time.After(5 * time.Second):
		return errors.New("search result not delivered in time")
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.WithContext(ctx).Info("✅ Поиск контактов работает", "candidates", report.Candidates)
	return nil
}

// searchQuery ищет по домену почты
func searchQuery(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok && domain != "" {
		return domain
	}
	return email
}
