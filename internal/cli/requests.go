package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func NewRequestsCommand(opts *RootOptions) *cobra.Command {
	var status, since string

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List quote requests",
		Long: `List quote requests. Clients see their own, admins see all.

--since accepts any common date format, e.g. 2026-01-31 or "Jan 31 2026".`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				reqs, err := s.client.Requests(cmd.Context(), strings.ToUpper(status), since)
				if err != nil {
					return err
				}
				return render(cmd, opts, reqs, func(w io.Writer) {
					writeRequestSummary(w, reqs)
				})
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "PENDING, QUOTED, APPROVED or REJECTED")
	cmd.Flags().StringVar(&since, "since", "", "only requests created since this date")

	cmd.AddCommand(newRequestShowCommand(opts))
	cmd.AddCommand(newRequestExportCommand(opts))

	return cmd
}

func newRequestShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show <id>",
		Short:        "Show one request with its items and conversation",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				r, err := s.client.Request(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd, opts, r, func(w io.Writer) {
					fmt.Fprintf(w, "request\t%s\n", r.ID)
					fmt.Fprintf(w, "status\t%s\n", r.Status)
					fmt.Fprintf(w, "client\t%s <%s>\n", r.User.Name, r.User.Email)
					fmt.Fprintf(w, "created\t%s\n", stamp(r.CreatedAt))
					if r.Notes != nil {
						fmt.Fprintf(w, "notes\t%s\n", *r.Notes)
					}
					fmt.Fprintln(w)
					fmt.Fprintln(w, "PRODUCT\tQTY\tPRICE\tSPECS")
					for _, it := range r.Items {
						specs := "-"
						if len(it.CustomSpecs) > 0 && string(it.CustomSpecs) != "null" {
							specs = string(it.CustomSpecs)
						}
						fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.Product.Name, it.Quantity, it.Product.PriceRange, specs)
					}
					if len(r.Messages) > 0 {
						fmt.Fprintln(w)
						for _, m := range r.Messages {
							writeMessage(w, m)
						}
					}
				})
			})
		},
	}
}

func newRequestExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Download all requests as CSV (admin)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return s.client.ExportCSV(cmd.Context(), w)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")

	return cmd
}

func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status <id> <status>",
		Short:        "Move a request to a new status (admin)",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				r, err := s.client.UpdateStatus(cmd.Context(), args[0], strings.ToUpper(args[1]))
				if err != nil {
					return err
				}
				return render(cmd, opts, r, func(w io.Writer) {
					fmt.Fprintf(w, "%s is now %s\n", r.ID, r.Status)
				})
			})
		},
	}
}

func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "stats",
		Short:        "Show dashboard counters (admin)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				st, err := s.client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd, opts, st, func(w io.Writer) {
					fmt.Fprintf(w, "total requests\t%d\n", st.TotalRequests)
					fmt.Fprintf(w, "pending\t%d\n", st.PendingRequests)
					fmt.Fprintf(w, "products\t%d\n", st.TotalProducts)
					fmt.Fprintf(w, "clients\t%d\n", st.UniqueClients)
				})
			})
		},
	}
}

func NewMessagesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "messages <request-id>",
		Short:        "Show the conversation on a request",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				msgs, err := s.client.Messages(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd, opts, msgs, func(w io.Writer) {
					for _, m := range msgs {
						writeMessage(w, m)
					}
				})
			})
		},
	}
}

func NewSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "send <request-id> <text...>",
		Short:        "Post a message on a request",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args[1:], " ")
			return withSession(opts, func(s *session) error {
				m, err := s.client.PostMessage(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return render(cmd, opts, m, func(w io.Writer) {
					writeMessage(w, *m)
				})
			})
		},
	}
}
