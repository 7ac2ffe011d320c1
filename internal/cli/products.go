package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/veranda/internal/apiclient"
)

type ProductsOptions struct {
	*RootOptions
	Query  apiclient.ProductQuery
	Search string
}

func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "products [id]",
		Short: "List catalog products, or show one",
		Long: `List catalog products, or show one when an id is given.

Only available products are listed unless --all is set.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return showProduct(cmd, opts.RootOptions, args[0])
			}
			return listProducts(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query.CategoryID, "category", "", "filter by category id")
	cmd.Flags().StringVar(&opts.Query.MaterialID, "material", "", "filter by material id")
	cmd.Flags().BoolVar(&opts.Query.All, "all", false, "include unavailable products")
	cmd.Flags().IntVar(&opts.Query.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Query.Size, "size", 20, "page size")
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "full-text search")

	return cmd
}

func listProducts(cmd *cobra.Command, opts *ProductsOptions) error {
	return withSession(opts.RootOptions, func(s *session) error {
		var (
			list *apiclient.ProductList
			err  error
		)
		if opts.Search != "" {
			list, err = s.client.SearchProducts(cmd.Context(), opts.Search)
		} else {
			list, err = s.client.Products(cmd.Context(), opts.Query)
		}
		if err != nil {
			return err
		}
		return render(cmd, opts.RootOptions, list, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tMATERIAL\tPRICE\tSTOCK")
			for _, p := range list.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, refName(p.Category), refName(p.Material), p.PriceRange, p.Stock)
			}
			fmt.Fprintf(w, "page %d of %d, %d products\n", list.Meta.Page, list.Meta.TotalPages, list.Meta.Total)
		})
	})
}

func showProduct(cmd *cobra.Command, opts *RootOptions, id string) error {
	return withSession(opts, func(s *session) error {
		p, err := s.client.Product(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd, opts, p, func(w io.Writer) {
			fmt.Fprintf(w, "id\t%s\n", p.ID)
			fmt.Fprintf(w, "name\t%s\n", p.Name)
			fmt.Fprintf(w, "category\t%s\n", refName(p.Category))
			fmt.Fprintf(w, "material\t%s\n", refName(p.Material))
			fmt.Fprintf(w, "price\t%s\n", p.PriceRange)
			fmt.Fprintf(w, "stock\t%d\n", p.Stock)
			fmt.Fprintf(w, "available\t%t\n", p.Availability)
			if len(p.Specs) > 0 {
				fmt.Fprintf(w, "specs\t%s\n", p.Specs)
			}
			if p.Description != "" {
				fmt.Fprintf(w, "\n%s\n", p.Description)
			}
		})
	})
}
