package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/pkg/basket"
)

func NewBasketCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "basket",
		Short: "Manage the local basket",
		Long: `Manage the local basket. The basket lives in the state file and is
sent as a single quote request by "basket submit".`,
	}

	cmd.AddCommand(newBasketAddCommand(opts))
	cmd.AddCommand(newBasketRemoveCommand(opts))
	cmd.AddCommand(newBasketSetCommand(opts))
	cmd.AddCommand(newBasketListCommand(opts))
	cmd.AddCommand(newBasketClearCommand(opts))
	cmd.AddCommand(newBasketSubmitCommand(opts))

	return cmd
}

// parseSpecs turns repeated key=value flags into a map.
func parseSpecs(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --spec %q: want key=value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func newBasketAddCommand(opts *RootOptions) *cobra.Command {
	var (
		qty   int
		specs []string
	)

	cmd := &cobra.Command{
		Use:          "add <product-id>",
		Short:        "Add a product, merging with an existing line",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			custom, err := parseSpecs(specs)
			if err != nil {
				return err
			}
			return withSession(opts, func(s *session) error {
				p, err := s.client.Product(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("look up product: %w", err)
				}
				line := basket.Line{
					ProductID:   p.ID,
					Quantity:    qty,
					Name:        p.Name,
					PriceRange:  p.PriceRange,
					CustomSpecs: custom,
				}
				if p.ImageURI != nil {
					line.ImageURI = *p.ImageURI
				}
				if err := s.state.Basket.Add(line); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d x %s, basket holds %d items\n", qty, p.Name, s.state.Basket.TotalQuantity())
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	cmd.Flags().StringArrayVar(&specs, "spec", nil, "custom spec as key=value, repeatable")

	return cmd
}

func newBasketRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "rm <product-id>",
		Short:        "Remove a product",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				if !s.state.Basket.Remove(args[0]) {
					return fmt.Errorf("product %s is not in the basket", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "removed")
				return nil
			})
		},
	}
}

func newBasketSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "set <product-id> <quantity>",
		Short:        "Set a line quantity, zero removes it",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withSession(opts, func(s *session) error {
				if !s.state.Basket.SetQuantity(args[0], qty) {
					return fmt.Errorf("product %s is not in the basket", args[0])
				}
				return nil
			})
		},
	}
}

func newBasketListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "Show the basket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			items := s.state.Basket.Items()
			return render(cmd, opts, items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "basket is empty")
					return
				}
				fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tSPECS")
				for _, l := range items {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.PriceRange, formatSpecs(l.CustomSpecs))
				}
			})
		},
	}
}

func formatSpecs(m map[string]string) string {
	if len(m) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, k+"="+v)
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

func newBasketClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "clear",
		Short:        "Empty the basket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				s.state.Basket.Clear()
				return nil
			})
		},
	}
}

func newBasketSubmitCommand(opts *RootOptions) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:          "submit",
		Short:        "Send the basket as one quote request",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				id, err := s.state.Basket.Submit(cmd.Context(), s.client, notes)
				if err != nil {
					return err
				}
				return render(cmd, opts, map[string]string{"id": id}, func(w io.Writer) {
					fmt.Fprintf(w, "submitted quote request %s\n", id)
				})
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "notes for the sales team")

	return cmd
}
