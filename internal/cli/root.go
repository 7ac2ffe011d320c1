// Package cli implements the quotectl commands.
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/internal/apiclient"
	"github.com/Skotchmaster/veranda/internal/state"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	StatePath string
	BaseURL   string
	Format    string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quotectl",
		Short: "Browse the catalog, build a basket and follow quote requests",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.StatePath, "state", state.DefaultPath(), "state file")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "gateway API root (default from state file)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewBasketCommand(opts))
	cmd.AddCommand(NewRequestsCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewMessagesCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// session ties the state file to an API client built from it.
type session struct {
	path   string
	state  *state.State
	client *apiclient.Client
}

func openSession(opts *RootOptions) (*session, error) {
	st, err := state.Load(opts.StatePath)
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		st.BaseURL = opts.BaseURL
	}
	return &session{
		path:   opts.StatePath,
		state:  st,
		client: apiclient.New(st.BaseURL, st.HTTPCookies(time.Now())),
	}, nil
}

// save writes back whatever cookies the server rotated.
func (s *session) save() error {
	s.state.SetCookies(s.client.Cookies())
	if err := s.state.Save(s.path); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// withSession runs fn and persists the session even when fn fails, so a
// refreshed token is never lost.
func withSession(opts *RootOptions, fn func(*session) error) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.save(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
