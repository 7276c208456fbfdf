package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/wildlens/internal/client"
	"github.com/samirrijal/wildlens/internal/core/domain"
)

func newSightingsCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "sightings",
		Short: "List recent sightings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sightings, err := a.api.GetSightings(cmd.Context())
			if err != nil {
				return err
			}
			if category != "" {
				c, err := domain.ParseCategory(category)
				if err != nil {
					return err
				}
				filtered := sightings[:0]
				for _, s := range sightings {
					if s.Type == c {
						filtered = append(filtered, s)
					}
				}
				sightings = filtered
			}
			return a.printSightings(sightings)
		},
	}
	cmd.Flags().StringVar(&category, "type", "", "only show one category (animal, bird, plant, insect)")
	return cmd
}

func newNearbyCmd(a *app) *cobra.Command {
	var (
		at       string
		radiusKm float64
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "nearby --at LAT,LON",
		Short: "List sightings near a point, closest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := parseAt(at)
			if err != nil {
				return err
			}
			if origin == nil {
				return client.ErrNoLocation
			}
			sightings, err := a.api.NearbySightings(cmd.Context(), origin, radiusKm, limit)
			if err != nil {
				return err
			}
			return a.printSightings(sightings)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "origin as \"lat,lon\"")
	cmd.Flags().Float64Var(&radiusKm, "radius", 10, "search radius in km")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	return cmd
}

func newSpeciesCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "species TYPE --at LAT,LON",
		Short: "Summarise the species of one category sighted nearby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			loc, err := parseAt(at)
			if err != nil {
				return err
			}
			items, err := a.api.SpeciesByType(cmd.Context(), c, loc)
			if err != nil {
				return err
			}
			return a.printSpecies(items)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "location as \"lat,lon\"")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY...",
		Short: "Semantic search over sightings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query is empty")
			}
			results, err := a.api.VectorSearch(cmd.Context(), query)
			if err != nil {
				return err
			}
			return a.printSearch(results)
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "report TYPE --at LAT,LON",
		Short: "Report a hazard or issue at a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(); err != nil {
				return err
			}
			loc, err := parseAt(at)
			if err != nil {
				return err
			}
			if err := a.api.SubmitReport(cmd.Context(), args[0], loc, a.email()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "report submitted")
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "location as \"lat,lon\"")
	return cmd
}
