package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/logger"
	"sportsbook/internal/models"
	"sportsbook/internal/validation"

	"golang.org/x/sync/errgroup"
)

type BookingState int

const (
	StateIdle BookingState = iota
	StateCenterSelected
	StateFieldsLoaded
	StateSlotConfigured
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s BookingState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCenterSelected:
		return "CenterSelected"
	case StateFieldsLoaded:
		return "FieldsLoaded"
	case StateSlotConfigured:
		return "SlotConfigured"
	case StateSubmitting:
		return "Submitting"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("BookingState(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("booking: action not allowed in current state")
	ErrSubmitting        = errors.New("booking: a submission is in progress")
)

// EstimatePrice is the displayed price of booking field for duration hours. With no
// field selected the estimate is 0.
func EstimatePrice(field *models.SportField, duration int) float64 {
	if field == nil {
		return 0
	}
	return field.Price * float64(duration)
}

// BookingSnapshot is a read-only view of the workflow.
type BookingSnapshot struct {
	State          BookingState
	CenterID       int64
	Center         *models.SportsCenter
	Fields         []models.SportField
	CenterLoading  bool
	FieldsLoading  bool
	FieldID        int64
	Start          time.Time
	Duration       int
	EstimatedPrice float64
	// Error is the message of the last failed step, e.g. the server's reason for
	// rejecting a submission.
	Error       string
	Reservation *models.Reservation
}

// Booking is the reservation workflow of one user:
// Idle -> CenterSelected -> FieldsLoaded -> SlotConfigured -> Submitting -> Success | Failed.
// A failed submission keeps every input so the user can edit and retry.
type Booking struct {
	userID       int64
	catalog      *CatalogService
	reservations *ReservationService
	now          func() time.Time

	mu            sync.Mutex
	state         BookingState
	generation    uint64
	centerID      int64
	center        *models.SportsCenter
	fields        []models.SportField
	centerLoading bool
	fieldsLoading bool
	fieldID       int64
	start         time.Time
	duration      int
	price         float64
	errMsg        string
	result        *models.Reservation
}

func NewBooking(userID int64, catalog *CatalogService, reservations *ReservationService, now func() time.Time) *Booking {
	if now == nil {
		now = time.Now
	}
	b := &Booking{
		userID:       userID,
		catalog:      catalog,
		reservations: reservations,
		now:          now,
	}
	b.resetLocked()
	return b
}

func (b *Booking) resetLocked() {
	b.state = StateIdle
	b.generation++
	b.centerID = 0
	b.center = nil
	b.fields = nil
	b.centerLoading = false
	b.fieldsLoading = false
	b.fieldID = models.NoField
	b.start = time.Time{}
	b.duration = models.MinDuration
	b.price = 0
	b.errMsg = ""
	b.result = nil
}

// SelectCenter picks a facility and loads its details and field list in parallel.
// It returns once both reads settle; FieldsLoaded is reached only if both succeed.
func (b *Booking) SelectCenter(ctx context.Context, centerID int64) error {
	b.mu.Lock()
	switch b.state {
	case StateSubmitting:
		b.mu.Unlock()
		return ErrSubmitting
	case StateSuccess:
		b.mu.Unlock()
		return ErrInvalidTransition
	}
	b.resetLocked()
	b.state = StateCenterSelected
	b.centerID = centerID
	b.centerLoading = true
	b.fieldsLoading = true
	gen := b.generation
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		center, err := b.catalog.Center(gctx, centerID)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.generation != gen {
			return nil
		}
		b.centerLoading = false
		if err != nil {
			b.errMsg = apierrors.UserMessage(err)
			return fmt.Errorf("failed to load sports center %d: %w", centerID, err)
		}
		b.center = center
		return nil
	})
	g.Go(func() error {
		fields := b.catalog.FieldsByCenter(gctx, centerID)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.generation != gen {
			return nil
		}
		b.fieldsLoading = false
		b.fields = fields
		return nil
	})
	err := g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generation != gen {
		// Cancelled or superseded while loading.
		return err
	}
	if err != nil {
		return err
	}
	b.state = StateFieldsLoaded
	return nil
}

// SelectField picks a field of the loaded center, or clears the selection with
// models.NoField. The estimate is recomputed either way.
func (b *Booking) SelectField(fieldID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.editableLocked(); err != nil {
		return err
	}
	if b.state == StateCenterSelected {
		return ErrInvalidTransition
	}

	if fieldID != models.NoField && b.fieldLocked(fieldID) == nil {
		return apierrors.NewValidationError("sportFieldId", "oneof")
	}
	b.fieldID = fieldID
	b.updateLocked()
	return nil
}

// SetStart sets the start of the slot; it cannot be in the past.
func (b *Booking) SetStart(start time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.editableLocked(); err != nil {
		return err
	}
	if start.IsZero() || start.Before(b.now()) {
		return apierrors.NewValidationError("startDateTime", "gtenow")
	}
	b.start = start
	b.updateLocked()
	return nil
}

// SetDuration sets the length in whole hours, 1 to 4.
func (b *Booking) SetDuration(hours int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.editableLocked(); err != nil {
		return err
	}
	if err := validation.Duration(hours); err != nil {
		return err
	}
	b.duration = hours
	b.updateLocked()
	return nil
}

func (b *Booking) editableLocked() error {
	switch b.state {
	case StateSubmitting:
		return ErrSubmitting
	case StateIdle, StateSuccess:
		return ErrInvalidTransition
	}
	return nil
}

func (b *Booking) fieldLocked(id int64) *models.SportField {
	for i := range b.fields {
		if b.fields[i].ID == id {
			return &b.fields[i]
		}
	}
	return nil
}

// updateLocked recomputes the estimate and moves between FieldsLoaded and
// SlotConfigured as the inputs become complete or incomplete.
func (b *Booking) updateLocked() {
	b.price = EstimatePrice(b.fieldLocked(b.fieldID), b.duration)

	if b.state == StateCenterSelected {
		return
	}
	if b.configuredLocked() {
		b.state = StateSlotConfigured
	} else {
		b.state = StateFieldsLoaded
	}
}

func (b *Booking) configuredLocked() bool {
	return b.fieldID != models.NoField &&
		b.fieldLocked(b.fieldID) != nil &&
		!b.start.IsZero() &&
		!b.start.Before(b.now()) &&
		b.duration >= models.MinDuration && b.duration <= models.MaxDuration
}

// Submit creates the reservation. On success the workflow ends in Success and the
// user's reservation list is invalidated. On failure it moves to Failed with the
// server's message and keeps the inputs; Submit may be called again.
func (b *Booking) Submit(ctx context.Context) (*models.Reservation, error) {
	b.mu.Lock()
	if b.state == StateSubmitting {
		b.mu.Unlock()
		return nil, ErrSubmitting
	}
	if b.state != StateSlotConfigured && b.state != StateFailed {
		b.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if !b.start.IsZero() && b.start.Before(b.now()) {
		b.mu.Unlock()
		return nil, apierrors.NewValidationError("startDateTime", "gtenow")
	}
	if !b.configuredLocked() {
		b.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	req := models.NewReservation{
		UserID:         b.userID,
		SportsCenterID: b.centerID,
		SportFieldID:   b.fieldID,
		StartDateTime:  b.start,
		Duration:       b.duration,
		Price:          b.price,
	}
	b.state = StateSubmitting
	b.errMsg = ""
	b.mu.Unlock()

	log := logger.WithContext(logger.ContextWithUserID(ctx, b.userID))
	r, err := b.reservations.Create(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = StateFailed
		b.errMsg = apierrors.UserMessage(err)
		log.Warn("Reservation submission failed", "sport_field_id", req.SportFieldID, "error", err)
		return nil, err
	}

	if r.Price != req.Price {
		log.Warn("Server price differs from estimate",
			"estimate", req.Price,
			"price", r.Price,
			"sport_field_id", req.SportFieldID)
	}
	b.state = StateSuccess
	b.result = r
	return r, nil
}

// Cancel discards the workflow. It is refused while a submission is in flight.
func (b *Booking) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateSubmitting {
		return ErrSubmitting
	}
	b.resetLocked()
	return nil
}

func (b *Booking) State() BookingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Booking) Snapshot() BookingSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BookingSnapshot{
		State:          b.state,
		CenterID:       b.centerID,
		Center:         b.center,
		Fields:         append([]models.SportField(nil), b.fields...),
		CenterLoading:  b.centerLoading,
		FieldsLoading:  b.fieldsLoading,
		FieldID:        b.fieldID,
		Start:          b.start,
		Duration:       b.duration,
		EstimatedPrice: b.price,
		Error:          b.errMsg,
		Reservation:    b.result,
	}
	return snap
}
