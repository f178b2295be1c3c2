package models

import (
	"fmt"
	"strings"
	"time"
)

// FlexibleBool - boolean that also accepts strings and numbers
type FlexibleBool bool

// UnmarshalJSON accepts true/false, "true"/"false", 1/0, "yes"/"no", "on"/"off"
func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	str := string(data)
	str = strings.Trim(str, `"`)

	switch strings.ToLower(str) {
	case "true", "1", "yes", "on":
		*fb = true
	case "false", "0", "no", "off", "null", "":
		*fb = false
	default:
		return fmt.Errorf("invalid boolean value: %s", str)
	}
	return nil
}

// Bool returns the plain bool value
func (fb FlexibleBool) Bool() bool {
	return bool(fb)
}

// NoField is the "unselected" sport field sentinel.
const NoField int64 = -1

const (
	MinDuration = 1
	MaxDuration = 4
)

// LoginRequest - credentials for POST /api/login
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email" binding:"required,email"`
	Password string `json:"password" form:"password" validate:"required" binding:"required"`
}

// LoginResponse - body of a successful login
type LoginResponse struct {
	MobileToken string `json:"mobileToken"`
	User        *User  `json:"user,omitempty"`
}

// RegisterRequest - new account
type RegisterRequest struct {
	Name          string `json:"name" form:"name" validate:"required" binding:"required"`
	Email         string `json:"email" form:"email" validate:"required,email" binding:"required,email"`
	Password      string `json:"password" form:"password" validate:"required" binding:"required"`
	Administrator bool   `json:"administrator" form:"administrator"`
}

// UpdateUserRequest - profile edit; password fields are optional but must match
type UpdateUserRequest struct {
	ID              int64  `json:"id" validate:"required,gt=0" binding:"required"`
	Name            string `json:"name" validate:"required" binding:"required"`
	Email           string `json:"email" validate:"required,email" binding:"required,email"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"eqfield=Password"`
}

// Apply returns profile with the edited fields of req.
func (req UpdateUserRequest) Apply(profile User) User {
	profile.Name = req.Name
	profile.Email = req.Email
	return profile
}

// NewSport - POST /api/sports
type NewSport struct {
	Name string `json:"name" form:"name" validate:"required" binding:"required"`
}

// NewSportField - POST /api/sportfields/post
type NewSportField struct {
	Name           string  `json:"name" validate:"required" binding:"required"`
	Price          float64 `json:"price" validate:"gte=0" binding:"gte=0"`
	Sports         []int64 `json:"sports" validate:"min=1,dive,gt=0" binding:"required,min=1"`
	SportsCenterID int64   `json:"sportsCenterId" validate:"required,gt=0" binding:"required"`
}

// SportsCenterInput - create/update payload for a sports center
type SportsCenterInput struct {
	Name        string  `json:"name" form:"name" validate:"required" binding:"required"`
	Location    string  `json:"location" form:"location" validate:"required" binding:"required"`
	Attendance  int     `json:"attendance" form:"attendance" validate:"gte=0"`
	OpeningTime string  `json:"openingTime" form:"openingTime" validate:"required" binding:"required"`
	SportFields []int64 `json:"sportFields" form:"sportFields" validate:"dive,gt=0"`
	OwnerID     int64   `json:"ownerId" form:"ownerId" validate:"required,gt=0"`
}

// NewReservation - POST /api/reservations
type NewReservation struct {
	UserID         int64     `json:"userId" validate:"required,gt=0"`
	SportsCenterID int64     `json:"sportsCenterId" validate:"required,gt=0"`
	SportFieldID   int64     `json:"sportFieldId" validate:"required,gt=0"`
	StartDateTime  time.Time `json:"startDateTime" validate:"required"`
	Duration       int       `json:"duration" validate:"min=1,max=4"`
	Price          float64   `json:"price" validate:"gte=0"`
}

// NewContact - POST /api/contacts; a user cannot be its own contact
type NewContact struct {
	UserID    int64           `json:"userId" validate:"required,gt=0"`
	ContactID int64           `json:"contactId" validate:"required,gt=0,nefield=UserID"`
	Contact   *ContactSummary `json:"contact,omitempty"`
}

// RemoveContactRequest - DELETE /api/contacts/delete
type RemoveContactRequest struct {
	UserID    int64 `json:"userId" validate:"required,gt=0" binding:"required"`
	ContactID int64 `json:"contactId" validate:"required,gt=0" binding:"required"`
}

// SearchContactsRequest - POST /api/users/searchContacts
type SearchContactsRequest struct {
	Query  string `json:"query" validate:"required"`
	UserID int64  `json:"userId,omitempty"`
}

// UserIDRequest is the {userId} body shared by the by-user reads.
type UserIDRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// IDRequest is the {id} body of POST /api/sportscenters/getSportsCenter.
type IDRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// SportsCenterIDRequest is the body of POST /api/sportfields/getBySportsCenter.
type SportsCenterIDRequest struct {
	SportsCenterID int64 `json:"sportsCenterId" binding:"required"`
}

// SportNameRequest is the body of POST /api/sportscenters/getBySport.
type SportNameRequest struct {
	SportName string `json:"sportName" binding:"required"`
}

// ErrorResponse is the error body used by the backend.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
