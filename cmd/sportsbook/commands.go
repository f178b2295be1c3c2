package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/models"
	"sportsbook/internal/search"
	"sportsbook/internal/smoke"

	"github.com/nats-io/stan.go"
)

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, _, err := a.services.Auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.services.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.services.Auth.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %d created for %s\n", user.ID, user.Email)
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	user, err := a.services.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	printUser(a.out, user)
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	me, err := currentUser(ctx, a)
	if err != nil {
		return err
	}

	fs := newFlags("profile")
	name := fs.String("name", me.Name, "display name")
	email := fs.String("email", me.Email, "account email")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.services.Auth.EditProfile(ctx, models.UpdateUserRequest{
		ID:              me.ID,
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *password,
	})
	if err != nil {
		return err
	}
	printUser(a.out, user)
	return nil
}

func cmdDeleteAccount(ctx context.Context, a *app, _ []string) error {
	user, err := a.services.Auth.DeleteAccount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %d deleted\n", user.ID)
	return nil
}

func cmdSports(ctx context.Context, a *app, _ []string) error {
	printSports(a.out, a.services.Catalog.Sports(ctx))
	return nil
}

func cmdCenters(ctx context.Context, a *app, args []string) error {
	fs := newFlags("centers")
	sport := fs.String("sport", "", "only centers offering this sport")
	mine := fs.Bool("mine", false, "only centers owned by the signed-in user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *mine:
		me, err := currentUser(ctx, a)
		if err != nil {
			return err
		}
		printCenters(a.out, a.services.Catalog.CentersByUser(ctx, me.ID))
	case *sport != "":
		printCenters(a.out, a.services.Catalog.CentersBySport(ctx, *sport))
	default:
		printCenters(a.out, a.services.Catalog.Centers(ctx))
	}
	return nil
}

func cmdCenter(ctx context.Context, a *app, args []string) error {
	fs := newFlags("center")
	id := fs.Int64("id", 0, "sports center id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	center, err := a.services.Catalog.Center(ctx, *id)
	if err != nil {
		return err
	}
	printCenters(a.out, []models.SportsCenter{*center})
	fmt.Fprintln(a.out)
	printFields(a.out, a.services.Catalog.FieldsByCenter(ctx, *id))
	return nil
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	fs := newFlags("book")
	centerID := fs.Int64("center", 0, "sports center id")
	fieldID := fs.Int64("field", models.NoField, "sport field id")
	start := fs.String("start", "", "start time, RFC 3339 or YYYY-MM-DD HH:MM")
	duration := fs.Int("duration", models.MinDuration, "hours, 1-4")
	if err := fs.Parse(args); err != nil {
		return err
	}

	me, err := currentUser(ctx, a)
	if err != nil {
		return err
	}
	startAt, err := parseStart(*start)
	if err != nil {
		return err
	}

	b := a.services.NewBooking(me.ID)
	if err := b.SelectCenter(ctx, *centerID); err != nil {
		return err
	}
	if err := b.SelectField(*fieldID); err != nil {
		return err
	}
	if err := b.SetDuration(*duration); err != nil {
		return err
	}
	if err := b.SetStart(startAt); err != nil {
		return err
	}

	snap := b.Snapshot()
	fmt.Fprintf(a.out, "Booking %s for %dh at %s, estimated %s\n",
		snap.Center.Name, snap.Duration, snap.Start.Local().Format(time.DateTime), formatMoney(snap.EstimatedPrice))

	r, err := b.Submit(ctx)
	if err != nil {
		return fmt.Errorf("reservation rejected: %s", b.Snapshot().Error)
	}
	fmt.Fprintf(a.out, "Reservation %d confirmed, price %s\n", r.ID, formatMoney(r.Price))
	return nil
}

func cmdReservations(ctx context.Context, a *app, _ []string) error {
	me, err := currentUser(ctx, a)
	if err != nil {
		return err
	}
	printReservations(a.out, a.services.Reservations.ListByUser(ctx, me.ID))
	return nil
}

func cmdContacts(ctx context.Context, a *app, args []string) error {
	me, err := currentUser(ctx, a)
	if err != nil {
		return err
	}

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		printContacts(a.out, a.services.Contacts.List(ctx, me.ID))
		return nil

	case "add", "remove":
		fs := newFlags("contacts " + sub)
		id := fs.Int64("id", 0, "user id of the contact")
		if err := fs.Parse(args); err != nil {
			return err
		}
		// The list backs the duplicate check.
		a.services.Contacts.List(ctx, me.ID)
		if sub == "add" {
			_, err = a.services.Contacts.Add(ctx, me.ID, models.ContactSummary{ID: *id})
		} else {
			_, err = a.services.Contacts.Remove(ctx, me.ID, *id)
		}
		if err != nil {
			return err
		}
		printContacts(a.out, a.services.Contacts.List(ctx, me.ID))
		return nil

	case "search":
		fs := newFlags("contacts search")
		q := fs.String("q", "", "search once for this text; without it, read queries from stdin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return searchContacts(ctx, a, me.ID, *q)
	}
	return fmt.Errorf("unknown contacts command %q", sub)
}

// searchContacts feeds queries to the debounced searcher. Each stdin line is one
// state of the search box.
func searchContacts(ctx context.Context, a *app, userID int64, q string) error {
	a.services.Contacts.List(ctx, userID)

	delivered := make(chan search.Result[[]models.ContactSummary], 16)
	searcher := a.services.Contacts.NewSearcher(userID, func(res search.Result[[]models.ContactSummary]) {
		delivered <- res
	})
	defer searcher.Stop()

	printResult := func(res search.Result[[]models.ContactSummary]) {
		if res.Err != nil {
			fmt.Fprintf(a.out, "%q: %s\n", res.Query, apierrors.UserMessage(res.Err))
			return
		}
		fmt.Fprintf(a.out, "%q:\n", res.Query)
		printCandidates(a.out, res.Value)
	}

	wait := a.cfg.Search.Delay + a.cfg.API.Timeout

	if q != "" {
		searcher.Input(ctx, q)
		select {
		case res := <-delivered:
			printResult(res)
			return nil
		case <-time.After(wait):
			return errors.New("search timed out")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Let the last query settle.
				select {
				case res := <-delivered:
					printResult(res)
				case <-time.After(wait):
				}
				return nil
			}
			searcher.Input(ctx, line)
		case res := <-delivered:
			printResult(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func cmdAdmin(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("admin: missing subcommand")
	}
	sub, args := args[0], args[1:]
	inv := a.services.Inventory

	switch sub {
	case "overview":
		overview, err := inv.Overview(ctx)
		if err != nil {
			return err
		}
		printOverview(a.out, overview)
		return nil

	case "users":
		users, err := inv.Users(ctx)
		if err != nil {
			return err
		}
		printUsers(a.out, users)
		return nil

	case "reservations":
		list, err := inv.Reservations(ctx)
		if err != nil {
			return err
		}
		printReservations(a.out, list)
		return nil

	case "add-field":
		fs := newFlags("admin add-field")
		center := fs.Int64("center", 0, "sports center id")
		name := fs.String("name", "", "field name")
		price := fs.Float64("price", 0, "price per hour")
		sports := fs.String("sports", "", "comma-separated sport ids")
		if err := fs.Parse(args); err != nil {
			return err
		}
		ids, err := parseIDs(*sports)
		if err != nil {
			return err
		}
		field, err := inv.AddField(ctx, models.NewSportField{
			Name:           *name,
			Price:          *price,
			Sports:         ids,
			SportsCenterID: *center,
		})
		if err != nil {
			return err
		}
		printFields(a.out, []models.SportField{*field})
		return nil

	case "delete-field":
		fs := newFlags("admin delete-field")
		center := fs.Int64("center", 0, "sports center id")
		id := fs.Int64("id", 0, "sport field id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if _, err := inv.DeleteField(ctx, *center, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Sport field %d deleted\n", *id)
		return nil

	case "add-center", "update-center":
		fs := newFlags("admin " + sub)
		id := fs.Int64("id", 0, "sports center id (update only)")
		name := fs.String("name", "", "center name")
		location := fs.String("location", "", "address")
		attendance := fs.Int("attendance", 0, "capacity")
		opening := fs.String("opening", "", "opening time, e.g. 08:00")
		if err := fs.Parse(args); err != nil {
			return err
		}
		in := models.SportsCenterInput{
			Name:        *name,
			Location:    *location,
			Attendance:  *attendance,
			OpeningTime: *opening,
		}
		var center *models.SportsCenter
		var err error
		if sub == "add-center" {
			center, err = inv.CreateCenter(ctx, in)
		} else {
			center, err = inv.UpdateCenter(ctx, *id, in)
		}
		if err != nil {
			return err
		}
		printCenters(a.out, []models.SportsCenter{*center})
		return nil

	case "delete-center":
		fs := newFlags("admin delete-center")
		id := fs.Int64("id", 0, "sports center id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if _, err := inv.DeleteCenter(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Sports center %d deleted\n", *id)
		return nil

	case "add-sport":
		fs := newFlags("admin add-sport")
		name := fs.String("name", "", "sport name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sport, err := inv.AddSport(ctx, *name)
		if err != nil {
			return err
		}
		printSports(a.out, []models.Sport{*sport})
		return nil

	case "delete-sport":
		fs := newFlags("admin delete-sport")
		id := fs.Int64("id", 0, "sport id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if _, err := inv.DeleteSport(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Sport %d deleted\n", *id)
		return nil
	}
	return fmt.Errorf("unknown admin command %q", sub)
}

func cmdValidate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("validate")
	email := fs.String("email", "a@b.com", "account used for the run")
	password := fs.String("password", "x", "password of that account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := smoke.NewValidator(smoke.Config{API: a.cfg.API, Email: *email, Password: *password})
	report, err := v.ValidateAll(ctx)
	if err != nil {
		return fmt.Errorf("❌ validation failed: %w", err)
	}
	fmt.Fprintf(a.out, "✅ %d sports, %d centers, reservation %d at %s\n",
		report.Sports, report.Centers, report.Reservation.ID, formatMoney(report.Reservation.Price))
	return nil
}

type subjects []string

func (s *subjects) String() string     { return strings.Join(*s, ",") }
func (s *subjects) Set(v string) error { *s = append(*s, v); return nil }

func cmdEvents(ctx context.Context, a *app, args []string) error {
	var subs subjects
	fs := newFlags("events")
	fs.Var(&subs, "subject", "subject to follow (repeatable); defaults to every client event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(subs) == 0 {
		subs = subjects{
			models.EventReservationCreated,
			models.EventContactAdded,
			models.EventContactRemoved,
			models.EventSportFieldCreated,
			models.EventSportFieldDeleted,
			models.EventProfileUpdated,
		}
	}

	cfg := a.cfg.NATS
	cfg.ClientID += "-events"
	nc, err := messaging.NewNATSClient(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	for _, subject := range subs {
		sub, err := nc.Subscribe(subject, func(msg *stan.Msg) {
			fmt.Fprintf(a.out, "%s %s %s\n", time.Unix(0, msg.Timestamp).Format(time.RFC3339), msg.Subject, msg.Data)
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	logger.WithContext(ctx).Info("Following events", "subjects", subs.String())
	<-ctx.Done()
	return nil
}

func currentUser(ctx context.Context, a *app) (*models.User, error) {
	user, err := a.services.Auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apierrors.AuthError{Reason: "not signed in, run `sportsbook login`"}
	}
	return user, nil
}

func parseIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
