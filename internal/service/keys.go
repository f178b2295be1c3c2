package service

import "sportsbook/internal/query"

// Query keys shared by the services. Mutations invalidate by these keys or their
// prefixes.

func UserKey() query.Key { return query.Key{"getUser"} }

func SportsKey() query.Key { return query.Key{"sports"} }

func SportsCentersKey() query.Key { return query.Key{"sportsCenters"} }

func CentersBySportKey(sportName string) query.Key {
	return query.Key{"sportsCenters", "bySport", sportName}
}

func CentersByUserKey(userID int64) query.Key {
	return query.Key{"sportsCenters", "byUser", userID}
}

func SportsCenterKey(id int64) query.Key { return query.Key{"sportsCenter", id} }

func SportFieldsKey(centerID int64) query.Key { return query.Key{"sportFields", centerID} }

func ReservationsKey(userID int64) query.Key { return query.Key{"reservations", userID} }

func ContactsKey(userID int64) query.Key { return query.Key{"contacts", userID} }
