package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/internal/apiclient"
)

// render writes v as indented JSON, or hands a tab writer to text.
func render(cmd *cobra.Command, opts *RootOptions, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func refName(r *apiclient.Ref) string {
	if r == nil {
		return "-"
	}
	return r.Name
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func writeRequestSummary(w io.Writer, reqs []apiclient.QuoteRequest) {
	fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tCLIENT\tCREATED\tUPDATED")
	for _, r := range reqs {
		client := r.User.Email
		if r.User.CompanyName != nil && *r.User.CompanyName != "" {
			client = *r.User.CompanyName
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", r.ID, r.Status, len(r.Items), client, stamp(r.CreatedAt), stamp(r.UpdatedAt))
	}
}

func writeMessage(w io.Writer, m apiclient.Message) {
	who := m.FromUser.Name
	if m.FromUser.Role == "ADMIN" {
		who += " (admin)"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", stamp(m.CreatedAt), who, strings.TrimSpace(m.Content))
}
