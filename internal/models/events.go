package models

import "time"

// Event subjects published by the client after a successful mutation
const (
	EventReservationCreated = "reservation.created"
	EventContactAdded       = "contact.added"
	EventContactRemoved     = "contact.removed"
	EventSportFieldCreated  = "sportfield.created"
	EventSportFieldDeleted  = "sportfield.deleted"
	EventProfileUpdated     = "profile.updated"
)

// ReservationCreatedEvent represents a reservation creation
type ReservationCreatedEvent struct {
	ReservationID  int64     `json:"reservation_id"`
	UserID         int64     `json:"user_id"`
	SportsCenterID int64     `json:"sports_center_id"`
	SportFieldID   int64     `json:"sport_field_id"`
	StartDateTime  time.Time `json:"start_date_time"`
	Duration       int       `json:"duration"`
	Price          float64   `json:"price"`
	Timestamp      time.Time `json:"timestamp"`
}

// ContactEvent represents a contact being added or removed
type ContactEvent struct {
	UserID    int64     `json:"user_id"`
	ContactID int64     `json:"contact_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SportFieldEvent represents an inventory change made by an administrator
type SportFieldEvent struct {
	SportFieldID   int64     `json:"sport_field_id"`
	SportsCenterID int64     `json:"sports_center_id"`
	AdminID        int64     `json:"admin_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProfileUpdatedEvent represents a confirmed profile edit
type ProfileUpdatedEvent struct {
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
