// Package cli implements the worldwise command line front-end. Commands are
// thin: they wire configuration, session gate, store, and clients together
// and render store snapshots — all state behaviour lives in the internal
// packages they consume.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jfenske/worldwise/internal/config"
	"github.com/jfenske/worldwise/internal/form"
	"github.com/jfenske/worldwise/internal/geocode"
	"github.com/jfenske/worldwise/internal/remote"
	"github.com/jfenske/worldwise/internal/session"
	"github.com/jfenske/worldwise/internal/store"
)

// App bundles the long-lived objects every command needs. One App is built
// per invocation; the store instance inside it is the single shared state
// container of the session.
type App struct {
	Cfg      config.Config
	Log      *slog.Logger
	Session  *session.Session
	Gate     *session.Gate
	Store    *store.Store
	Form     *form.Form
	Registry *prometheus.Registry
}

// newApp loads configuration and wires the dependency graph. The session is
// logged in from configured credentials when present; commands behind the
// gate fail with guidance otherwise.
func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	httpClient := &http.Client{Timeout: cfg.Client.Timeout}

	reg := prometheus.NewRegistry()
	st := store.New(remote.NewClient(cfg.API.BaseURL, httpClient, log), store.NewMetrics(reg))
	geo := geocode.NewClient(cfg.Geocode.BaseURL, httpClient, log)

	sess := session.New()
	sess.OnLogout(st.Reset)
	if cfg.Auth.Email != "" {
		if err := sess.Login(cfg.Auth.Email, cfg.Auth.Password); err != nil {
			return nil, fmt.Errorf("login with configured credentials: %w", err)
		}
	}

	return &App{
		Cfg:      cfg,
		Log:      log,
		Session:  sess,
		Gate:     session.NewGate(sess),
		Store:    st,
		Form:     form.New(geo, st),
		Registry: reg,
	}, nil
}

// requireAuth is the route gate for protected commands: pass-through when
// authenticated, otherwise an error pointing the user at the login entry
// point (the demo credentials in config).
func (a *App) requireAuth() error {
	if err := a.Gate.Require(); err != nil {
		return fmt.Errorf("%w: set WORLDWISE_AUTH_EMAIL and WORLDWISE_AUTH_PASSWORD to log in", err)
	}
	return nil
}
