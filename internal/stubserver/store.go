package stubserver

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"sportsbook/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrDuplicate = errors.New("duplicate")
)

type userRecord struct {
	user         models.User
	passwordHash string
}

// Store - хранилище стаб-сервера в памяти
type Store struct {
	mu sync.RWMutex

	nextID map[string]int64

	users        map[int64]*userRecord
	sports       map[int64]models.Sport
	centers      map[int64]models.SportsCenter
	fields       map[int64]models.SportField
	reservations map[int64]models.Reservation
	contacts     map[int64]models.Contact
}

func NewStore() *Store {
	return &Store{
		nextID:       make(map[string]int64),
		users:        make(map[int64]*userRecord),
		sports:       make(map[int64]models.Sport),
		centers:      make(map[int64]models.SportsCenter),
		fields:       make(map[int64]models.SportField),
		reservations: make(map[int64]models.Reservation),
		contacts:     make(map[int64]models.Contact),
	}
}

func (s *Store) id(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

// Users

func (s *Store) AddUser(u models.User, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, u.Email) {
			return models.User{}, ErrDuplicate
		}
	}
	u.ID = s.id("user")
	s.users[u.ID] = &userRecord{user: u, passwordHash: passwordHash}
	return u, nil
}

// Credentials returns the user with email and its password hash.
func (s *Store) Credentials(email string) (models.User, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, email) {
			return rec.user, rec.passwordHash, true
		}
	}
	return models.User{}, "", false
}

// User returns the profile of id with its relations filled in.
func (s *Store) User(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	u := rec.user

	u.Reservations = []models.ReservationSummary{}
	for _, r := range sortedValues(s.reservations) {
		if r.UserID == id {
			u.Reservations = append(u.Reservations, models.ReservationSummary{
				ID:             r.ID,
				SportsCenterID: r.SportsCenterID,
				SportFieldID:   r.SportFieldID,
				StartDateTime:  r.StartDateTime,
				Duration:       r.Duration,
				Price:          r.Price,
			})
		}
	}
	u.Contacts = s.contactsOfLocked(func(c models.Contact) bool { return c.UserID == id })
	u.ContactOf = s.contactsOfLocked(func(c models.Contact) bool { return c.ContactID == id })

	u.SportsCenters = []models.SportsCenterSummary{}
	for _, c := range sortedValues(s.centers) {
		if c.OwnerID == id {
			u.SportsCenters = append(u.SportsCenters, models.SportsCenterSummary{ID: c.ID, Name: c.Name})
		}
	}
	return u, true
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, rec := range s.users {
		users = append(users, rec.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *Store) UpdateUser(id int64, name, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && strings.EqualFold(other.user.Email, email) {
			return models.User{}, ErrDuplicate
		}
	}
	rec.user.Name = name
	rec.user.Email = email
	if passwordHash != "" {
		rec.passwordHash = passwordHash
	}
	return rec.user, nil
}

func (s *Store) DeleteUser(id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	delete(s.users, id)
	for cid, c := range s.contacts {
		if c.UserID == id || c.ContactID == id {
			delete(s.contacts, cid)
		}
	}
	return rec.user, nil
}

// SearchUsers matches name or email, case-insensitive, excluding exceptID.
func (s *Store) SearchUsers(query string, exceptID int64) []models.ContactSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	found := []models.ContactSummary{}
	for _, rec := range s.users {
		u := rec.user
		if u.ID == exceptID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			found = append(found, models.ContactSummary{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found
}

// Sports

func (s *Store) Sports() []models.Sport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.sports)
}

func (s *Store) AddSport(name string) (models.Sport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.sports {
		if strings.EqualFold(sp.Name, name) {
			return models.Sport{}, ErrDuplicate
		}
	}
	sport := models.Sport{ID: s.id("sport"), Name: name}
	s.sports[sport.ID] = sport
	return sport, nil
}

func (s *Store) DeleteSport(id int64) (models.Sport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sport, ok := s.sports[id]
	if !ok {
		return models.Sport{}, ErrNotFound
	}
	for _, f := range s.fields {
		if f.SupportsSport(id) {
			return models.Sport{}, ErrConflict
		}
	}
	delete(s.sports, id)
	return sport, nil
}

// Sports centers

func (s *Store) Centers() []models.SportsCenter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.centers)
}

func (s *Store) Center(id int64) (models.SportsCenter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.centers[id]
	return c, ok
}

func (s *Store) CentersByOwner(ownerID int64) []models.SportsCenter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	centers := []models.SportsCenter{}
	for _, c := range sortedValues(s.centers) {
		if c.OwnerID == ownerID {
			centers = append(centers, c)
		}
	}
	return centers
}

// CentersBySport returns centers with at least one field supporting the named sport.
func (s *Store) CentersBySport(sportName string) []models.SportsCenter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	centers := []models.SportsCenter{}
	var sportID int64
	for _, sp := range s.sports {
		if strings.EqualFold(sp.Name, sportName) {
			sportID = sp.ID
		}
	}
	if sportID == 0 {
		return centers
	}

	for _, c := range sortedValues(s.centers) {
		for _, fid := range c.SportFields {
			if f, ok := s.fields[fid]; ok && f.SupportsSport(sportID) {
				centers = append(centers, c)
				break
			}
		}
	}
	return centers
}

func (s *Store) SaveCenter(id int64, in models.SportsCenterInput) (models.SportsCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.OwnerID]; !ok {
		return models.SportsCenter{}, ErrNotFound
	}

	center := models.SportsCenter{
		Name:        in.Name,
		Location:    in.Location,
		Attendance:  in.Attendance,
		OpeningTime: in.OpeningTime,
		OwnerID:     in.OwnerID,
		SportFields: []int64{},
	}
	if id == 0 {
		center.ID = s.id("center")
	} else {
		existing, ok := s.centers[id]
		if !ok {
			return models.SportsCenter{}, ErrNotFound
		}
		center.ID = id
		center.SportFields = existing.SportFields
	}
	s.centers[center.ID] = center
	return center, nil
}

// DeleteCenter removes the center together with its fields.
func (s *Store) DeleteCenter(id int64) (models.SportsCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	center, ok := s.centers[id]
	if !ok {
		return models.SportsCenter{}, ErrNotFound
	}
	for _, fid := range center.SportFields {
		delete(s.fields, fid)
	}
	delete(s.centers, id)
	return center, nil
}

// Sport fields

func (s *Store) Fields() []models.SportField {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.fields)
}

func (s *Store) Field(id int64) (models.SportField, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[id]
	return f, ok
}

func (s *Store) FieldsByCenter(centerID int64) []models.SportField {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := []models.SportField{}
	for _, f := range sortedValues(s.fields) {
		if f.SportsCenterID == centerID {
			fields = append(fields, f)
		}
	}
	return fields
}

func (s *Store) AddField(in models.NewSportField) (models.SportField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	center, ok := s.centers[in.SportsCenterID]
	if !ok {
		return models.SportField{}, ErrNotFound
	}
	for _, sid := range in.Sports {
		if _, ok := s.sports[sid]; !ok {
			return models.SportField{}, ErrNotFound
		}
	}

	field := models.SportField{
		ID:             s.id("field"),
		Name:           in.Name,
		Price:          in.Price,
		Sports:         append([]int64(nil), in.Sports...),
		SportsCenterID: in.SportsCenterID,
	}
	s.fields[field.ID] = field
	center.SportFields = append(append([]int64(nil), center.SportFields...), field.ID)
	s.centers[center.ID] = center
	return field, nil
}

func (s *Store) DeleteField(id int64) (models.SportField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	field, ok := s.fields[id]
	if !ok {
		return models.SportField{}, ErrNotFound
	}
	delete(s.fields, id)

	if center, ok := s.centers[field.SportsCenterID]; ok {
		kept := make([]int64, 0, len(center.SportFields))
		for _, fid := range center.SportFields {
			if fid != id {
				kept = append(kept, fid)
			}
		}
		center.SportFields = kept
		s.centers[center.ID] = center
	}
	return field, nil
}

// Reservations

func (s *Store) Reservations() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.reservations)
}

func (s *Store) ReservationsByUser(userID int64) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := []models.Reservation{}
	for _, r := range sortedValues(s.reservations) {
		if r.UserID == userID {
			list = append(list, r)
		}
	}
	return list
}

// AddReservation books a field. The stored price is computed from the field's hourly
// price; the price sent by the client is ignored. Overlapping bookings of the same field
// are rejected with ErrConflict.
func (s *Store) AddReservation(in models.NewReservation) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.UserID]; !ok {
		return models.Reservation{}, ErrNotFound
	}
	field, ok := s.fields[in.SportFieldID]
	if !ok || field.SportsCenterID != in.SportsCenterID {
		return models.Reservation{}, ErrNotFound
	}

	r := models.Reservation{
		UserID:         in.UserID,
		SportsCenterID: in.SportsCenterID,
		SportFieldID:   in.SportFieldID,
		StartDateTime:  in.StartDateTime.UTC(),
		Duration:       in.Duration,
		Price:          field.Price * float64(in.Duration),
	}
	for _, other := range s.reservations {
		if other.SportFieldID == r.SportFieldID && overlaps(other, r) {
			return models.Reservation{}, ErrConflict
		}
	}

	r.ID = s.id("reservation")
	s.reservations[r.ID] = r
	return r, nil
}

func overlaps(a, b models.Reservation) bool {
	return a.StartDateTime.Before(b.End()) && b.StartDateTime.Before(a.End())
}

// Contacts

func (s *Store) ContactsByUser(userID int64) []models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contactsOfLocked(func(c models.Contact) bool { return c.UserID == userID })
}

func (s *Store) contactsOfLocked(match func(models.Contact) bool) []models.Contact {
	list := []models.Contact{}
	for _, c := range sortedValues(s.contacts) {
		if !match(c) {
			continue
		}
		if rec, ok := s.users[c.ContactID]; ok {
			c.Contact = &models.ContactSummary{ID: rec.user.ID, Name: rec.user.Name, Email: rec.user.Email}
		}
		list = append(list, c)
	}
	return list
}

func (s *Store) AddContact(userID, contactID int64) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return models.Contact{}, ErrNotFound
	}
	rec, ok := s.users[contactID]
	if !ok {
		return models.Contact{}, ErrNotFound
	}
	for _, c := range s.contacts {
		if c.UserID == userID && c.ContactID == contactID {
			return models.Contact{}, ErrDuplicate
		}
	}

	c := models.Contact{
		ID:        s.id("contact"),
		UserID:    userID,
		ContactID: contactID,
	}
	s.contacts[c.ID] = c
	c.Contact = &models.ContactSummary{ID: rec.user.ID, Name: rec.user.Name, Email: rec.user.Email}
	return c, nil
}

func (s *Store) RemoveContact(userID, contactID int64) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.contacts {
		if c.UserID == userID && c.ContactID == contactID {
			delete(s.contacts, id)
			return c, nil
		}
	}
	return models.Contact{}, ErrNotFound
}

type identified interface {
	models.Sport | models.SportsCenter | models.SportField | models.Reservation | models.Contact
}

func sortedValues[T identified](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Seed fills the store with demo data. The first user (id 1) is an administrator
// owning both centers; the second center has no fields.
func (s *Store) Seed(hash func(string) (string, error)) error {
	users := []struct {
		name, email, password string
		admin                 bool
	}{
		{"Ana Admin", "a@b.com", "x", true},
		{"Bruno", "bruno@example.com", "secret", false},
		{"Carla", "carla@example.com", "secret", false},
	}
	for _, u := range users {
		h, err := hash(u.password)
		if err != nil {
			return err
		}
		if _, err := s.AddUser(models.User{Name: u.name, Email: u.email, Administrator: models.FlexibleBool(u.admin)}, h); err != nil {
			return err
		}
	}

	tennis, _ := s.AddSport("Tennis")
	football, _ := s.AddSport("Football")
	_, _ = s.AddSport("Padel")

	downtown, err := s.SaveCenter(0, models.SportsCenterInput{
		Name: "Downtown Arena", Location: "Main St 1", Attendance: 120, OpeningTime: "08:00", OwnerID: 1,
	})
	if err != nil {
		return err
	}
	if _, err := s.SaveCenter(0, models.SportsCenterInput{
		Name: "Riverside Club", Location: "River Rd 5", Attendance: 40, OpeningTime: "10:00", OwnerID: 1,
	}); err != nil {
		return err
	}

	if _, err := s.AddField(models.NewSportField{Name: "Court A", Price: 20, Sports: []int64{tennis.ID}, SportsCenterID: downtown.ID}); err != nil {
		return err
	}
	if _, err := s.AddField(models.NewSportField{Name: "Pitch 1", Price: 45.5, Sports: []int64{football.ID}, SportsCenterID: downtown.ID}); err != nil {
		return err
	}

	_, err = s.AddContact(2, 3)
	return err
}
