package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fitsync/internal/api"
	"fitsync/internal/auth"
	"fitsync/internal/config"
	"fitsync/internal/docstore"
	"fitsync/internal/service"
	"fitsync/internal/store"
	"fitsync/internal/strava"
	"fitsync/internal/withings"
	"fitsync/internal/workouts"
)

// app is the fully wired object graph shared by every command.
type app struct {
	cfg    *config.Config
	db     *store.Store
	logger *slog.Logger

	stravaBroker   *auth.Broker
	withingsBroker *auth.Broker
	stravaAuth     *auth.StravaExchanger
	withingsAuth   *auth.WithingsExchanger

	workouts     *workouts.Store
	coordinator  *service.Coordinator
	measurements *service.Measurements
	workoutLog   *service.Workouts
	summary      *service.Summary
}

// loadConfig reads the config file and environment overrides. A missing
// file is fine when the environment carries the credentials.
func loadConfig(out io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		dir, _ := config.GetConfigDir()
		fmt.Fprintf(out, "Edit %s/config.json or run `fitsync config init`.\n", dir)
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Commands log text to stderr, the
// server logs JSON.
func newLogger(cfg *config.Config, w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newApp opens the local database and wires clients, repositories and
// services according to cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	path := cfg.Storage.DBPath
	if dbPath != "" {
		path = dbPath
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: db, logger: logger}
	timeout := cfg.Timeout()
	tokens := db.Tokens()
	httpClient := &http.Client{Timeout: timeout}

	a.stravaAuth = &auth.StravaExchanger{
		OAuth: auth.NewStravaOAuthConfig(auth.Config{
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
			RedirectURL:  auth.CallbackURL(auth.CallbackPort),
		}, ""),
		HTTPClient: httpClient,
	}
	a.withingsAuth = &auth.WithingsExchanger{
		Config: auth.Config{
			ClientID:     cfg.Withings.ClientID,
			ClientSecret: cfg.Withings.ClientSecret,
			RedirectURL:  auth.CallbackURL(auth.CallbackPort),
		},
		BaseURL:    cfg.Withings.APIURL,
		HTTPClient: httpClient,
	}
	a.stravaBroker = auth.NewBroker("strava", tokens, a.stravaAuth, logger)
	a.withingsBroker = auth.NewBroker("withings", tokens, a.withingsAuth, logger)

	if err := a.stravaBroker.Seed(ctx, cfg.Strava.RefreshToken); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding strava token: %w", err)
	}
	if err := a.withingsBroker.Seed(ctx, cfg.Withings.RefreshToken); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding withings token: %w", err)
	}

	var docs docstore.Documents
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		docs = db.Pages()
	default:
		docs = &docstore.NotionClient{Secret: cfg.Notion.Secret, HTTPClient: httpClient}
	}

	stravaClient := strava.NewClient(a.stravaBroker, timeout)
	withingsClient := withings.NewClient(a.withingsBroker, cfg.Withings.APIURL, timeout)

	a.workouts = workouts.New(docs, cfg.Notion.WorkoutDatabaseID, cfg.Notion.AthleteProfileDatabaseID, logger)
	a.coordinator = service.NewCoordinator(stravaClient, a.workouts, logger)
	a.measurements = service.NewMeasurements(withingsClient)
	a.workoutLog = service.NewWorkouts(a.workouts, logger)
	a.summary = service.NewSummary(withingsClient, a.workouts)
	return a, nil
}

// handler builds the HTTP API over the wired services.
func (a *app) handler() *api.Handler {
	return api.NewHandler(api.Config{
		APIKey:        a.cfg.Server.APIKey,
		WebhookSecret: a.cfg.Strava.ClientSecret,
		VerifyToken:   a.cfg.Strava.VerifyToken,
	}, api.Services{
		Activities:   a.coordinator,
		Measurements: a.measurements,
		Workouts:     a.workoutLog,
		Summary:      a.summary,
	}, a.logger)
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp loads config, wires the app, runs fn and closes the database.
func withApp(ctx context.Context, out, logOut io.Writer, fn func(*app) error) error {
	cfg, err := loadConfig(out)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, newLogger(cfg, logOut, false))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
