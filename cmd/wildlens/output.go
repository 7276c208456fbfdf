package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/location"
)

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printSightings(sightings []domain.Sighting) error {
	if a.jsonOut {
		return a.printJSON(sightings)
	}
	if len(sightings) == 0 {
		fmt.Fprintln(a.out, "no sightings")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPECIES\tTYPE\tLOCATION\tDISTANCE\tWHEN")
	for _, s := range sightings {
		dist := "-"
		if s.Distance != nil {
			dist = fmt.Sprintf("%.2f km", *s.Distance)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Species, s.Type, s.Location.Label(), dist, s.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) printSpecies(items []domain.SpeciesItem) error {
	if a.jsonOut {
		return a.printJSON(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no species sighted nearby")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPECIES\tSIGHTINGS\tLATEST\tLOCATION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.Species, it.Frequency, it.LatestTime, it.Location)
	}
	return tw.Flush()
}

func (a *app) printSearch(results []domain.SearchResult) error {
	if a.jsonOut {
		return a.printJSON(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(a.out, "no matches")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tSPECIES\tTYPE\tLOCATION")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", r.Score, r.Species, r.Type, r.LocationName)
	}
	return tw.Flush()
}

func (a *app) printProfile(p *domain.UserProfile) error {
	if a.jsonOut {
		return a.printJSON(p)
	}
	fmt.Fprintf(a.out, "%s <%s>\n", p.Name, p.Email)
	fmt.Fprintf(a.out, "contributions: %d\n", p.ContributionNumber)
	favs := "none"
	if len(p.FavoriteSpecies) > 0 {
		favs = strings.Join(p.FavoriteSpecies, ", ")
	}
	fmt.Fprintf(a.out, "favourites:    %s\n", favs)
	return nil
}

// parseAt reads a --at "lat,lon" flag.
func parseAt(v string) (*domain.Coordinate, error) {
	if v == "" {
		return nil, nil
	}
	c, err := location.ParseFix(v)
	if err != nil {
		return nil, fmt.Errorf("--at: %w", err)
	}
	return &c, nil
}
