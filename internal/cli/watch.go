package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/internal/apiclient"
)

const seenCapacity = 1024

// seenSet remembers the last N ids. The relay and a reconnect can deliver
// the same notification twice; anything already seen is dropped.
type seenSet struct {
	limit int
	order []string
	ids   map[string]struct{}
}

func newSeenSet(limit int) *seenSet {
	return &seenSet{limit: limit, ids: make(map[string]struct{}, limit)}
}

// Add reports false when id was already present.
func (s *seenSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) == s.limit {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}
	s.order = append(s.order, id)
	s.ids[id] = struct{}{}
	return true
}

type WatchOptions struct {
	*RootOptions
	Request    string
	Once       bool
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow new messages and status changes live",
		Long: `Follow new messages and status changes live.

Admins receive events for every request, clients for their own. The
stream is reopened with backoff when it drops.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts.RootOptions, func(s *session) error {
				return watch(cmd.Context(), s.client, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	cmd.Flags().StringVar(&opts.Request, "request", "", "only show events for this request id")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "exit when the stream closes instead of reconnecting")
	cmd.Flags().DurationVar(&opts.MinBackoff, "min-backoff", time.Second, "first reconnect delay")
	cmd.Flags().DurationVar(&opts.MaxBackoff, "max-backoff", 30*time.Second, "longest reconnect delay")

	return cmd
}

type eventPrinter struct {
	opts *WatchOptions
	seen *seenSet
	out  io.Writer
}

func (p *eventPrinter) handle(env apiclient.Envelope) error {
	if env.ID != "" && !p.seen.Add("env:"+env.ID) {
		return nil
	}

	switch env.Event {
	case "new-message":
		var pl apiclient.NewMessagePayload
		if err := json.Unmarshal(env.Payload, &pl); err != nil {
			return fmt.Errorf("decode new-message: %w", err)
		}
		if p.opts.Request != "" && pl.QuoteRequestID != p.opts.Request {
			return nil
		}
		// same message under a fresh envelope id
		if pl.Message.ID != "" && !p.seen.Add("msg:"+pl.Message.ID) {
			return nil
		}
		if p.opts.Format == "json" {
			return json.NewEncoder(p.out).Encode(env)
		}
		fmt.Fprintf(p.out, "%s ", pl.QuoteRequestID)
		writeMessage(p.out, pl.Message)

	case "status-update":
		var pl apiclient.StatusUpdatePayload
		if err := json.Unmarshal(env.Payload, &pl); err != nil {
			return fmt.Errorf("decode status-update: %w", err)
		}
		if p.opts.Request != "" && pl.QuoteRequestID != p.opts.Request {
			return nil
		}
		if p.opts.Format == "json" {
			return json.NewEncoder(p.out).Encode(env)
		}
		fmt.Fprintf(p.out, "%s status -> %s\n", pl.QuoteRequestID, pl.Status)
	}
	return nil
}

func watch(ctx context.Context, client *apiclient.Client, opts *WatchOptions, out, errOut io.Writer) error {
	p := &eventPrinter{opts: opts, seen: newSeenSet(seenCapacity), out: out}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.MinBackoff
	b.MaxInterval = opts.MaxBackoff
	b.MaxElapsedTime = 0

	for {
		err := client.Stream(ctx, func(env apiclient.Envelope) error {
			b.Reset()
			return p.handle(env)
		})
		if ctx.Err() != nil {
			return nil
		}
		if opts.Once {
			return err
		}

		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return fmt.Errorf("watch: %w", err)
		}

		wait := b.NextBackOff()
		if err == nil {
			err = errors.New("stream closed")
		}
		fmt.Fprintf(errOut, "%v, reconnecting in %s\n", err, wait.Round(time.Millisecond))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
