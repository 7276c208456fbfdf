package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samirrijal/wildlens/internal/client"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [google-access-token]",
		Short: "Sign in with a Google access token",
		Long: `Exchange a Google OAuth access token for a WildLens session.

The token may be given as an argument or in WILDLENS_GOOGLE_TOKEN.
The session and profile are sealed into the state directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := os.Getenv("WILDLENS_GOOGLE_TOKEN")
			if len(args) == 1 {
				token = args[0]
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("a Google access token is required")
			}

			res, err := a.api.AuthGoogle(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.session.Login(res.SessionToken, res.User); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signed in as %s\n", res.User.Email)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := a.session.Token()
			if token == "" {
				fmt.Fprintln(a.out, "not signed in")
				return nil
			}
			// The local session is dropped even if the backend is unreachable.
			if err := a.api.Logout(cmd.Context(), token); err != nil {
				fmt.Fprintln(os.Stderr, "warning: server logout failed:", err)
			}
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.requireSession()
			if err != nil {
				return err
			}
			if offline {
				if p := a.session.Profile(); p != nil {
					return a.printProfile(p)
				}
				return errors.New("no stored profile")
			}

			p, err := a.api.Me(cmd.Context(), token)
			if client.IsStatus(err, http.StatusUnauthorized) {
				_ = a.session.Logout()
				return fmt.Errorf("%w: session expired, sign in again", client.ErrNoSession)
			}
			if err != nil {
				return err
			}
			if err := a.session.SetProfile(*p); err != nil {
				return err
			}
			return a.printProfile(p)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "print the stored profile without contacting the server")
	return cmd
}

func newFavoritesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Show or replace favourite species",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(); err != nil {
				return err
			}
			p := a.session.Profile()
			if p == nil {
				return errors.New("no stored profile, run `wildlens whoami`")
			}
			if a.jsonOut {
				return a.printJSON(p.FavoriteSpecies)
			}
			for _, s := range p.FavoriteSpecies {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [species...]",
		Short: "Replace the favourite species list",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.requireSession()
			if err != nil {
				return err
			}
			p, err := a.api.UpdateFavorites(cmd.Context(), token, args)
			if err != nil {
				return err
			}
			if err := a.session.SetProfile(*p); err != nil {
				return err
			}
			return a.printProfile(p)
		},
	})
	return cmd
}
