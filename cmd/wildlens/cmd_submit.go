package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/wildlens/internal/client"
	"github.com/samirrijal/wildlens/internal/core/domain"
)

// readImage base64-encodes a photo for the JSON API.
func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s is empty", path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Identify the species in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}
			res, err := a.api.AnalyzeImage(cmd.Context(), img)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			fmt.Fprintf(a.out, "%s (%s)\n", res.Species, res.Type)
			if res.Description != "" {
				fmt.Fprintln(a.out, res.Description)
			}
			return nil
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var (
		at          string
		category    string
		species     string
		description string
	)
	cmd := &cobra.Command{
		Use:   "submit IMAGE --at LAT,LON",
		Short: "Record a sighting",
		Long: `Upload a photo as a new sighting at the given location.

When --type or --species is omitted the photo is identified first and the
missing fields are taken from the analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(); err != nil {
				return err
			}
			loc, err := parseAt(at)
			if err != nil {
				return err
			}
			if loc == nil {
				return client.ErrNoLocation
			}
			img, err := readImage(args[0])
			if err != nil {
				return err
			}

			var cat domain.Category
			if category != "" {
				if cat, err = domain.ParseCategory(category); err != nil {
					return err
				}
			}
			if cat == "" || species == "" {
				res, err := a.api.AnalyzeImage(cmd.Context(), img)
				if err != nil {
					return fmt.Errorf("identify photo: %w", err)
				}
				if cat == "" {
					cat = res.Type
				}
				if species == "" {
					species = res.Species
				}
				if description == "" {
					description = res.Description
				}
			}

			s, err := a.api.SubmitSighting(cmd.Context(), client.NewSighting{
				Image:       img,
				Location:    loc,
				Email:       a.email(),
				Type:        cat,
				Species:     species,
				Description: description,
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(s)
			}
			fmt.Fprintf(a.out, "recorded %s (%s) at %s\n", s.Species, s.Type, s.Location.Label())
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "location as \"lat,lon\"")
	cmd.Flags().StringVar(&category, "type", "", "category (animal, bird, plant, insect)")
	cmd.Flags().StringVar(&species, "species", "", "species name")
	cmd.Flags().StringVar(&description, "description", "", "free-text note")
	return cmd
}
