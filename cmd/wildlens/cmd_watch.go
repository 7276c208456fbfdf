package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/core/proximity"
	"github.com/samirrijal/wildlens/internal/location"
)

type watchOptions struct {
	file     string
	interval float64
	refresh  time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Alert when favourite species are sighted near you",
		Long: `Read position fixes ("lat,lon" per line) from stdin or --file and
print an alert whenever recent sightings include one of your favourite
species. In radius mode only sightings within the configured radius of
the latest fix count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if opts.file != "" {
				f, err := os.Open(opts.file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return a.watch(cmd.Context(), location.NewReaderSource(in), opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "read fixes from a file instead of stdin")
	cmd.Flags().Float64Var(&opts.interval, "interval", location.DefaultDistanceIntervalMeters, "minimum movement in metres between fixes")
	cmd.Flags().DurationVar(&opts.refresh, "refresh", time.Minute, "how often to refetch sightings")
	return cmd
}

// watch runs until src is exhausted or ctx is cancelled.
func (a *app) watch(ctx context.Context, src location.Source, opts watchOptions) error {
	token, err := a.requireSession()
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		printed string
	)
	monitor := proximity.NewMonitor(a.matcher, func(m proximity.Match) {
		msg := m.Message()
		mu.Lock()
		defer mu.Unlock()
		if msg == printed {
			return
		}
		printed = msg
		fmt.Fprintln(a.out, msg)
	})

	// Profile and sightings are independent; fetch them together.
	var (
		profile   *domain.UserProfile
		sightings []domain.Sighting
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.api.Me(gctx, token)
		if err != nil {
			slog.Warn("could not refresh profile, using stored one", "error", err)
			profile = a.session.Profile()
			return nil
		}
		profile = p
		return a.session.SetProfile(*p)
	})
	g.Go(func() error {
		s, err := a.api.GetSightings(gctx)
		if err != nil {
			return fmt.Errorf("load sightings: %w", err)
		}
		sightings = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if profile == nil || len(profile.FavoriteSpecies) == 0 {
		fmt.Fprintln(a.out, "no favourite species set; use `wildlens favorites set`")
	}
	monitor.SetProfile(profile)
	monitor.SetSightings(sightings)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := location.Watch(ctx, src, location.Options{DistanceIntervalMeters: opts.interval}, monitor.SetLocation)
	if err != nil {
		return err
	}
	defer sub.Stop()

	g, gctx = errgroup.WithContext(ctx)
	if opts.refresh > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(opts.refresh)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s, err := a.api.GetSightings(gctx)
					if err != nil {
						slog.Warn("refresh sightings failed", "error", err)
						continue
					}
					monitor.SetSightings(s)
				}
			}
		})
	}
	g.Go(func() error {
		select {
		case <-sub.Done():
			cancel()
			return sub.Err()
		case <-gctx.Done():
			return nil
		}
	})
	return g.Wait()
}
