package stubserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sportsbook/internal/logger"
	"sportsbook/internal/middleware"
	"sportsbook/internal/models"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	store     *Store
	tokens    *Tokens
	passwords Passwords
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status), "message": message})
}

func storeError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, ErrDuplicate):
		fail(c, http.StatusConflict, what+" already exists")
	case errors.Is(err, ErrConflict):
		fail(c, http.StatusConflict, what+" conflicts with existing data")
	default:
		logger.WithContext(c.Request.Context()).Error("Store operation failed", "error", err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func callerID(c *gin.Context) int64 {
	id, _ := middleware.UserIDFromContext(c.Request.Context())
	return id
}

func (h *handlers) requireAdmin(c *gin.Context) {
	user, ok := h.store.User(callerID(c))
	if !ok || !user.Administrator.Bool() {
		fail(c, http.StatusForbidden, "Administrator rights required")
		return
	}
	c.Next()
}

// Auth and users

// Login - POST /api/login
func (h *handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, hash, ok := h.store.Credentials(req.Email)
	if !ok || !h.passwords.Verify(hash, req.Password) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Administrator.Bool())
	if err != nil {
		storeError(c, err, "token")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.tokens.ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, models.LoginResponse{MobileToken: token, User: &user})
}

// Register - POST /api/users
func (h *handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	user, err := h.store.AddUser(models.User{
		Name:          req.Name,
		Email:         req.Email,
		Administrator: models.FlexibleBool(req.Administrator),
	}, hash)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser - GET /api/users/getUser (cookie session)
func (h *handlers) GetUser(c *gin.Context) {
	user, ok := h.store.User(callerID(c))
	if !ok {
		fail(c, http.StatusUnauthorized, "Session user no longer exists")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser - POST /api/users/updateUser
func (h *handlers) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != callerID(c) {
		fail(c, http.StatusForbidden, "Cannot edit another user's profile")
		return
	}
	if req.Password != req.ConfirmPassword {
		fail(c, http.StatusBadRequest, "Passwords do not match")
		return
	}

	var hash string
	if req.Password != "" {
		var err error
		if hash, err = h.passwords.Hash(req.Password); err != nil {
			storeError(c, err, "user")
			return
		}
	}

	user, err := h.store.UpdateUser(req.ID, req.Name, req.Email, hash)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers - GET /api/users
func (h *handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Users())
}

// DeleteUser - DELETE /api/users/:id
func (h *handlers) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id != callerID(c) {
		caller, _ := h.store.User(callerID(c))
		if !caller.Administrator.Bool() {
			fail(c, http.StatusForbidden, "Cannot delete another user")
			return
		}
	}
	user, err := h.store.DeleteUser(id)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Sports

func (h *handlers) ListSports(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Sports())
}

func (h *handlers) CreateSport(c *gin.Context) {
	var req models.NewSport
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	sport, err := h.store.AddSport(req.Name)
	if err != nil {
		storeError(c, err, "sport")
		return
	}
	c.JSON(http.StatusCreated, sport)
}

func (h *handlers) DeleteSport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sport, err := h.store.DeleteSport(id)
	if err != nil {
		storeError(c, err, "sport")
		return
	}
	c.JSON(http.StatusOK, sport)
}

// Sport fields

func (h *handlers) ListFields(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Fields())
}

func (h *handlers) FieldsByCenter(c *gin.Context) {
	var req models.SportsCenterIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.FieldsByCenter(req.SportsCenterID))
}

// CreateField - POST /api/sportfields/post. Clients send JSON under a form
// content type here, so the body is always decoded as JSON.
func (h *handlers) CreateField(c *gin.Context) {
	var req models.NewSportField
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	center, ok := h.store.Center(req.SportsCenterID)
	if !ok {
		fail(c, http.StatusNotFound, "sports center not found")
		return
	}
	if center.OwnerID != callerID(c) {
		fail(c, http.StatusForbidden, "Sports center belongs to another administrator")
		return
	}

	field, err := h.store.AddField(req)
	if err != nil {
		storeError(c, err, "sport field")
		return
	}
	c.JSON(http.StatusCreated, field)
}

func (h *handlers) DeleteField(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if field, found := h.store.Field(id); found {
		if center, ok := h.store.Center(field.SportsCenterID); ok && center.OwnerID != callerID(c) {
			fail(c, http.StatusForbidden, "Sports center belongs to another administrator")
			return
		}
	}
	field, err := h.store.DeleteField(id)
	if err != nil {
		storeError(c, err, "sport field")
		return
	}
	c.JSON(http.StatusOK, field)
}

// Sports centers

func (h *handlers) ListCenters(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Centers())
}

func (h *handlers) GetCenter(c *gin.Context) {
	var req models.IDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	center, ok := h.store.Center(req.ID)
	if !ok {
		fail(c, http.StatusNotFound, "sports center not found")
		return
	}
	c.JSON(http.StatusOK, center)
}

func (h *handlers) CentersBySport(c *gin.Context) {
	var req models.SportNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.CentersBySport(req.SportName))
}

func (h *handlers) CentersByUser(c *gin.Context) {
	var req models.UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.CentersByOwner(req.UserID))
}

func (h *handlers) CreateCenter(c *gin.Context) {
	var req models.SportsCenterInput
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.OwnerID != callerID(c) {
		fail(c, http.StatusForbidden, "Centers can only be created for yourself")
		return
	}
	center, err := h.store.SaveCenter(0, req)
	if err != nil {
		storeError(c, err, "sports center")
		return
	}
	c.JSON(http.StatusCreated, center)
}

func (h *handlers) UpdateCenter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.SportsCenterInput
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if existing, found := h.store.Center(id); found && existing.OwnerID != callerID(c) {
		fail(c, http.StatusForbidden, "Sports center belongs to another administrator")
		return
	}
	center, err := h.store.SaveCenter(id, req)
	if err != nil {
		storeError(c, err, "sports center")
		return
	}
	c.JSON(http.StatusOK, center)
}

func (h *handlers) DeleteCenter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if existing, found := h.store.Center(id); found && existing.OwnerID != callerID(c) {
		fail(c, http.StatusForbidden, "Sports center belongs to another administrator")
		return
	}
	center, err := h.store.DeleteCenter(id)
	if err != nil {
		storeError(c, err, "sports center")
		return
	}
	c.JSON(http.StatusOK, center)
}

// Reservations

func (h *handlers) ListReservations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Reservations())
}

func (h *handlers) ReservationsByUser(c *gin.Context) {
	var req models.UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.ReservationsByUser(req.UserID))
}

type reservationForm struct {
	UserID         int64   `form:"userID" binding:"required"`
	SportsCenterID int64   `form:"sportsCenterID" binding:"required"`
	SportFieldID   int64   `form:"sportFieldID" binding:"required"`
	StartDateTime  string  `form:"startDateTime" binding:"required"`
	Duration       int     `form:"duration" binding:"required,min=1,max=4"`
	Price          float64 `form:"price"`
}

// CreateReservation - POST /api/reservations
func (h *handlers) CreateReservation(c *gin.Context) {
	var form reservationForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if form.UserID != callerID(c) {
		fail(c, http.StatusForbidden, "Cannot book for another user")
		return
	}
	start, err := time.Parse(time.RFC3339, form.StartDateTime)
	if err != nil {
		fail(c, http.StatusBadRequest, "startDateTime must be ISO-8601")
		return
	}
	if start.Before(time.Now().Add(-time.Minute)) {
		fail(c, http.StatusBadRequest, "startDateTime is in the past")
		return
	}

	r, err := h.store.AddReservation(models.NewReservation{
		UserID:         form.UserID,
		SportsCenterID: form.SportsCenterID,
		SportFieldID:   form.SportFieldID,
		StartDateTime:  start,
		Duration:       form.Duration,
		Price:          form.Price,
	})
	if errors.Is(err, ErrConflict) {
		fail(c, http.StatusConflict, "Field is already booked for this time")
		return
	}
	if err != nil {
		storeError(c, err, "sport field")
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Contacts

func (h *handlers) ContactsByUser(c *gin.Context) {
	var req models.UserIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.ContactsByUser(req.UserID))
}

func (h *handlers) SearchContacts(c *gin.Context) {
	var req models.SearchContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		fail(c, http.StatusBadRequest, "query is required")
		return
	}
	c.JSON(http.StatusOK, h.store.SearchUsers(req.Query, req.UserID))
}

type contactForm struct {
	UserID    int64  `form:"userId" binding:"required"`
	ContactID int64  `form:"contactId" binding:"required"`
	Contact   string `form:"contact"`
}

func (h *handlers) AddContact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if form.UserID != callerID(c) {
		fail(c, http.StatusForbidden, "Cannot edit another user's contacts")
		return
	}
	if form.UserID == form.ContactID {
		fail(c, http.StatusBadRequest, "A user cannot be their own contact")
		return
	}

	contact, err := h.store.AddContact(form.UserID, form.ContactID)
	if err != nil {
		storeError(c, err, "contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *handlers) RemoveContact(c *gin.Context) {
	var req models.RemoveContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID != callerID(c) {
		fail(c, http.StatusForbidden, "Cannot edit another user's contacts")
		return
	}
	contact, err := h.store.RemoveContact(req.UserID, req.ContactID)
	if err != nil {
		storeError(c, err, "contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}
