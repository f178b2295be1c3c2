package models

import (
	"time"
)

// User is the profile of an account as returned by the backend.
// The credential hash never leaves the server.
type User struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Email         string                `json:"email"`
	Administrator FlexibleBool          `json:"administrator"`
	Reservations  []ReservationSummary  `json:"reservations,omitempty"`
	Contacts      []Contact             `json:"contacts,omitempty"`
	ContactOf     []Contact             `json:"contactOf,omitempty"`
	SportsCenters []SportsCenterSummary `json:"sportsCenters,omitempty"`
}

// Sport is a lookup entity.
type Sport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SportsCenter is a facility hosting one or more sport fields.
type SportsCenter struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Attendance  int     `json:"attendance"`
	OpeningTime string  `json:"openingTime"`
	SportFields []int64 `json:"sportFields"`
	OwnerID     int64   `json:"ownerId,omitempty"`
}

// SportField is a bookable unit within a sports center.
type SportField struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Sports         []int64 `json:"sports"`
	SportsCenterID int64   `json:"sportsCenterId"`
}

// SupportsSport reports whether the field lists sportID.
func (f SportField) SupportsSport(sportID int64) bool {
	for _, id := range f.Sports {
		if id == sportID {
			return true
		}
	}
	return false
}

// Reservation is a booking of a sport field for a start time and a whole number of hours.
type Reservation struct {
	ID             int64     `json:"id,omitempty"`
	UserID         int64     `json:"userId"`
	SportsCenterID int64     `json:"sportsCenterId"`
	SportFieldID   int64     `json:"sportFieldId"`
	StartDateTime  time.Time `json:"startDateTime"`
	Duration       int       `json:"duration"`
	Price          float64   `json:"price"`
}

// End returns the time the reservation frees the field.
func (r Reservation) End() time.Time {
	return r.StartDateTime.Add(time.Duration(r.Duration) * time.Hour)
}

// Contact is a directed edge userId -> contactId with a snapshot of the contact's
// public profile.
type Contact struct {
	ID        int64           `json:"id,omitempty"`
	UserID    int64           `json:"userId"`
	ContactID int64           `json:"contactId"`
	Contact   *ContactSummary `json:"contact,omitempty"`
}

// ContactSummary is the public part of a user profile.
type ContactSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReservationSummary is the reservation relation embedded in a user profile.
type ReservationSummary struct {
	ID             int64     `json:"id"`
	SportsCenterID int64     `json:"sportsCenterId"`
	SportFieldID   int64     `json:"sportFieldId"`
	StartDateTime  time.Time `json:"startDateTime"`
	Duration       int       `json:"duration"`
	Price          float64   `json:"price"`
}

// SportsCenterSummary is the owned-centers relation embedded in a user profile.
type SportsCenterSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
