package cli

import (
	"fmt"

	"kibaro-cli/internal/logger"

	"github.com/spf13/cobra"
)

func newLoginCmd(d *deps) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = d.prompt.line("email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = d.prompt.line("password"); err != nil {
					return err
				}
			}
			user, err := d.session.Login(cmd.Context(), email, password)
			if err != nil {
				return failure(err, "login failed")
			}
			fmt.Fprintf(d.out, "signed in as %s (%d points)\n", user.Username, user.Points)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(d *deps) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			for _, f := range []struct {
				label string
				dst   *string
			}{{"username", &username}, {"email", &email}, {"password", &password}} {
				if *f.dst != "" {
					continue
				}
				if *f.dst, err = d.prompt.line(f.label); err != nil {
					return err
				}
			}
			user, err := d.session.Register(cmd.Context(), username, email, password)
			if err != nil {
				return failure(err, "registration failed")
			}
			fmt.Fprintf(d.out, "welcome %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := d.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(d.out, "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(d *deps) *cobra.Command {
	var noRefresh bool
	cmd := guarded(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noRefresh {
				if err := d.session.RefreshPoints(cmd.Context()); err != nil {
					logger.FromContext(cmd.Context()).WithError(err).Warn("points refresh failed, showing stored points")
				}
			}
			user, ok := d.session.User()
			if !ok {
				fmt.Fprintf(d.out, "signed in (user %s)\n", d.session.UserID())
				return nil
			}
			fmt.Fprintf(d.out, "%s <%s>\nrole: %s\npoints: %d\nlevel: %d\n",
				user.Username, user.Email, user.Role, user.Points, user.Level)
			return nil
		},
	}, guardAuth)
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "show the stored points without asking the backend")
	return cmd
}
