package external

import "sportsbook/internal/session"

// Clients - все клиенты ресурсов поверх одного транспорта
type Clients struct {
	Transport     *Transport
	Sports        *SportsClient
	SportFields   *SportFieldsClient
	SportsCenters *SportsCentersClient
	Reservations  *ReservationsClient
	Contacts      *ContactsClient
	Users         *UsersClient
}

func NewClients(cfg Config, tokens session.TokenStore) *Clients {
	t := NewTransport(cfg, tokens)
	return &Clients{
		Transport:     t,
		Sports:        &SportsClient{t: t},
		SportFields:   &SportFieldsClient{t: t},
		SportsCenters: &SportsCentersClient{t: t},
		Reservations:  &ReservationsClient{t: t},
		Contacts:      &ContactsClient{t: t},
		Users:         &UsersClient{t: t},
	}
}
