// ABOUTME: Terminal renderers for the product grid, cart drawer, and admin table
// ABOUTME: Pure-ish functions from server/cart data to writer output

package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/vegshop/shopfront/internal/api"
	"github.com/vegshop/shopfront/internal/cart"
)

// Products writes the catalog as a table.
func Products(w io.Writer, products []api.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, fmtPrice(p.Price), p.Stock, p.Category)
	}
	tw.Flush()
}

// ProductDetail writes a single product with its description.
func ProductDetail(w io.Writer, p *api.Product) {
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "  %s", p.Name)
	fmt.Fprintf(w, "  (id: %s)\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintf(w, "  Price:     %s\n", fmtPrice(p.Price))
	fmt.Fprintf(w, "  Stock:     %d\n", p.Stock)
	if p.Category != "" {
		fmt.Fprintf(w, "  Category:  %s\n", p.Category)
	}
	if p.Image != "" {
		fmt.Fprintf(w, "  Image:     %s\n", p.Image)
	}
	fmt.Fprintln(w)
}

// CartDrawer writes the cart with per-line subtotals and the total.
func CartDrawer(w io.Writer, items []cart.LineItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%.2f\n",
			item.ProductID, item.Name, item.Price, item.Quantity,
			item.Price*float64(item.Quantity))
	}
	tw.Flush()

	bold := color.New(color.Bold)
	bold.Fprintf(w, "Total: %.2f (%d items)\n", cart.Total(items), cart.Count(items))
}

// AdminTable writes the admin product listing, description included.
func AdminTable(w io.Writer, products []api.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, fmtPrice(p.Price), p.Stock, p.Category,
			truncate(p.Description, 40))
	}
	tw.Flush()
}

// fmtPrice formats a price, with N/A for the zero value the backend sends
// for unpriced products.
func fmtPrice(price float64) string {
	if price == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", price)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
