// Command wildlens is a terminal client for the WildLens backend.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/wildlens/internal/client"
	"github.com/samirrijal/wildlens/internal/core/proximity"
	"github.com/samirrijal/wildlens/internal/pkg/config"
	"github.com/samirrijal/wildlens/internal/pkg/logging"
	"github.com/samirrijal/wildlens/internal/session"
)

// app is the state every subcommand shares. Fields left nil are filled from
// configuration before the first command runs.
type app struct {
	api     *client.Client
	session *session.Context
	matcher proximity.Matcher
	out     io.Writer

	host    string
	port    int
	jsonOut bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wildlens",
		Short: "Record and explore wildlife sightings",
		Long: `wildlens talks to a WildLens backend.

Sign in with a Google access token, submit photos of what you find,
browse recent and nearby sightings, and watch your position for sightings
of your favourite species.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.host, "host", "", "backend host (overrides config)")
	root.PersistentFlags().IntVar(&a.port, "port", 0, "backend port (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newFavoritesCmd(a),
		newSightingsCmd(a),
		newNearbyCmd(a),
		newAnalyzeCmd(a),
		newSubmitCmd(a),
		newSpeciesCmd(a),
		newSearchCmd(a),
		newReportCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads configuration and the stored session.
func (a *app) setup(ctx context.Context) error {
	if a.api != nil && a.session != nil {
		_, err := a.session.Load(ctx)
		return err
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.host != "" {
		cfg.Host = a.host
	}
	if a.port != 0 {
		cfg.Port = a.port
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	a.matcher, err = cfg.Proximity.Matcher()
	if err != nil {
		return err
	}
	a.api = client.New(cfg.BaseURL(), &http.Client{Timeout: cfg.Timeout})

	var store session.Store
	if cfg.Passphrase == "" {
		slog.Warn("no passphrase configured, session will not be saved")
		store = session.NewMemoryStore()
	} else {
		fileStore, err := session.NewFileStore(cfg.StateDir, cfg.Passphrase)
		if err != nil {
			return err
		}
		store = fileStore
	}
	a.session = session.New(store)
	_, err = a.session.Load(ctx)
	return err
}

// requireSession returns the stored token or client.ErrNoSession.
func (a *app) requireSession() (string, error) {
	if !a.session.Authenticated() {
		return "", fmt.Errorf("%w: run `wildlens login` first", client.ErrNoSession)
	}
	return a.session.Token(), nil
}

// email is the signed-in user's address, or "" when signed out.
func (a *app) email() string {
	if p := a.session.Profile(); p != nil {
		return p.Email
	}
	return ""
}
