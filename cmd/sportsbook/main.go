package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"sportsbook/internal/config"
	"sportsbook/internal/external"
	"sportsbook/internal/logger"
	"sportsbook/internal/messaging"
	"sportsbook/internal/metrics"
	"sportsbook/internal/query"
	"sportsbook/internal/service"
	"sportsbook/internal/session"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":          {"login -email E -password P", cmdLogin},
	"logout":         {"logout", cmdLogout},
	"register":       {"register -name N -email E -password P", cmdRegister},
	"whoami":         {"whoami", cmdWhoami},
	"profile":        {"profile -name N -email E [-password P]", cmdProfile},
	"delete-account": {"delete-account", cmdDeleteAccount},
	"sports":         {"sports", cmdSports},
	"centers":        {"centers [-sport NAME] [-mine]", cmdCenters},
	"center":         {"center -id ID", cmdCenter},
	"book":           {"book -center ID -field ID -start TIME [-duration H]", cmdBook},
	"reservations":   {"reservations", cmdReservations},
	"contacts":       {"contacts [list | add -id ID | remove -id ID | search [-q TEXT]]", cmdContacts},
	"admin":          {"admin overview | users | reservations | add-field | delete-field | add-center | update-center | delete-center | add-sport | delete-sport", cmdAdmin},
	"validate":       {"validate [-email E -password P]", cmdValidate},
	"events":         {"events [-subject S]...", cmdEvents},
}

type app struct {
	cfg       *config.Config
	services  *service.Services
	publisher messaging.Publisher
	out       io.Writer
}

func main() {
	dumpMetrics := flag.Bool("metrics", false, "print collected metrics to stderr on exit")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	// Загружаем конфигурацию
	cfg := config.Load()
	logger.InitWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics.Register(nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ContextWithRequestID(ctx, logger.NewRequestID())

	a, cleanup, err := newApp(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize", "error", err)
	}

	err = cmd.run(ctx, a, flag.Args()[1:])
	cleanup()

	if *dumpMetrics {
		writeMetrics(os.Stderr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) (*app, func(), error) {
	tokens, closeTokens, err := newTokenStore(cfg.Session)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := messaging.NewPublisher(cfg.NATS)
	if err != nil {
		// События не обязательны, работаем без них
		logger.Get().Warn("NATS unavailable, events disabled", "error", err)
		publisher = messaging.Noop{}
	}

	clients := external.NewClients(cfg.API, tokens)
	cache := query.NewClient(query.Config{StaleTime: cfg.Query.StaleTime})
	services := service.NewServices(clients, cache, publisher, service.Options{
		UserStaleTime: cfg.Query.UserStaleTime,
		Search:        cfg.Search,
	})

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Get().Error("Failed to close publisher", "error", err)
		}
		closeTokens()
	}

	return &app{
		cfg:       cfg,
		services:  services,
		publisher: publisher,
		out:       os.Stdout,
	}, cleanup, nil
}

func newTokenStore(cfg config.SessionConfig) (session.TokenStore, func(), error) {
	switch cfg.Store {
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "valkey":
		store, err := session.NewValkeyStore(cfg.Valkey)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Get().Error("Failed to close Valkey", "error", err)
			}
		}, nil
	case "file", "":
		return session.NewFileStore(cfg.Path), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
}

// writeMetrics renders the default registry in the Prometheus text format.
func writeMetrics(w io.Writer) {
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	metrics.Handler().ServeHTTP(rec, req)
	_, _ = io.Copy(w, rec.Body)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sportsbook [-metrics] <command> [flags]")
	fmt.Fprintln(os.Stderr)

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(os.Stderr, "  "+commands[name].usage)
	}
}

// newFlags returns a flag set that reports errors instead of exiting.
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// parseStart accepts RFC 3339 or "2006-01-02 15:04" in local time.
func parseStart(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("start must be RFC 3339 or YYYY-MM-DD HH:MM: %w", err)
	}
	return t, nil
}
