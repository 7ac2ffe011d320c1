package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/internal/apiclient"
)

type LoginOptions struct {
	*RootOptions
	Email    string
	Password string
}

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Long: `Sign in and remember the session in the state file.

The password may also come from QUOTECTL_PASSWORD.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("QUOTECTL_PASSWORD"); env != "" {
		return env, nil
	}
	return "", errors.New("password is required (--password or QUOTECTL_PASSWORD)")
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	password, err := passwordFrom(opts.Password)
	if err != nil {
		return err
	}
	return withSession(opts.RootOptions, func(s *session) error {
		res, err := s.client.Login(cmd.Context(), strings.TrimSpace(opts.Email), password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		s.state.Email = res.User.Email
		s.state.IsAdmin = res.IsAdmin
		return render(cmd, opts.RootOptions, res, func(w io.Writer) {
			role := "client"
			if res.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(w, "signed in as %s (%s)\n", res.User.Email, role)
		})
	})
}

type RegisterOptions struct {
	*RootOptions
	Email    string
	Password string
	Name     string
	Company  string
	Contact  string
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "register",
		Short:        "Create a client account",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFrom(opts.Password)
			if err != nil {
				return err
			}
			in := apiclient.RegisterInput{Email: opts.Email, Password: password, Name: opts.Name}
			if opts.Company != "" {
				in.CompanyName = &opts.Company
			}
			if opts.Contact != "" {
				in.ContactInfo = &opts.Contact
			}
			return withSession(opts.RootOptions, func(s *session) error {
				u, err := s.client.Register(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				return render(cmd, opts.RootOptions, u, func(w io.Writer) {
					fmt.Fprintf(w, "registered %s, run quotectl login to sign in\n", u.Email)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	cmd.Flags().StringVar(&opts.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company name")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "contact details")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "logout",
		Short:        "End the session, the basket is kept",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				// local state is cleared even if the server call fails
				err := s.client.Logout(cmd.Context())
				s.state.ClearSession()
				s.client = apiclient.New(s.state.BaseURL, nil)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "whoami",
		Short:        "Show the signed-in account",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				u, err := s.client.Me(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd, opts, u, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.Email, u.Name, u.Role)
				})
			})
		},
	}
}
