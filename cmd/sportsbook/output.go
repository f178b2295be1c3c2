package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sportsbook/internal/models"
	"sportsbook/internal/service"
)

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func printUser(w io.Writer, u *models.User) {
	role := "user"
	if u.Administrator.Bool() {
		role = "administrator"
	}
	fmt.Fprintf(w, "%d  %s <%s>  %s\n", u.ID, u.Name, u.Email, role)
}

func printUsers(w io.Writer, users []models.User) {
	tw := table(w, "ID", "NAME", "EMAIL", "ADMIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Administrator.Bool())
	}
	tw.Flush()
}

func printSports(w io.Writer, sports []models.Sport) {
	tw := table(w, "ID", "NAME")
	for _, s := range sports {
		fmt.Fprintf(tw, "%d\t%s\n", s.ID, s.Name)
	}
	tw.Flush()
}

func printCenters(w io.Writer, centers []models.SportsCenter) {
	tw := table(w, "ID", "NAME", "LOCATION", "OPENS", "ATTENDANCE", "OWNER")
	for _, c := range centers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", c.ID, c.Name, c.Location, c.OpeningTime, c.Attendance, c.OwnerID)
	}
	tw.Flush()
}

func printFields(w io.Writer, fields []models.SportField) {
	if len(fields) == 0 {
		fmt.Fprintln(w, "No sport fields")
		return
	}
	tw := table(w, "ID", "NAME", "PRICE/H", "SPORTS")
	for _, f := range fields {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.Name, formatMoney(f.Price), joinIDs(f.Sports))
	}
	tw.Flush()
}

func printReservations(w io.Writer, list []models.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No reservations")
		return
	}
	tw := table(w, "ID", "USER", "CENTER", "FIELD", "START", "HOURS", "PRICE")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%d\t%s\n",
			r.ID, r.UserID, r.SportsCenterID, r.SportFieldID,
			r.StartDateTime.Local().Format(time.DateTime), r.Duration, formatMoney(r.Price))
	}
	tw.Flush()
}

func printContacts(w io.Writer, contacts []models.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "No contacts")
		return
	}
	tw := table(w, "USER", "NAME", "EMAIL")
	for _, c := range contacts {
		name, email := "", ""
		if c.Contact != nil {
			name, email = c.Contact.Name, c.Contact.Email
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ContactID, name, email)
	}
	tw.Flush()
}

func printCandidates(w io.Writer, users []models.ContactSummary) {
	if len(users) == 0 {
		fmt.Fprintln(w, "  no matches")
		return
	}
	for _, u := range users {
		fmt.Fprintf(w, "  %d  %s <%s>\n", u.ID, u.Name, u.Email)
	}
}

func printOverview(w io.Writer, o *service.Overview) {
	fmt.Fprintf(w, "Administrator: %s <%s>\n\n", o.Admin.Name, o.Admin.Email)
	printSports(w, o.Sports)
	for _, ci := range o.Centers {
		fmt.Fprintf(w, "\n%s (#%d), %s\n", ci.Center.Name, ci.Center.ID, ci.Center.Location)
		printFields(w, ci.Fields)
	}
}
