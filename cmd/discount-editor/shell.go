package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/lensretail-backend/internal/discounts/editor"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
)

const helpText = `commands:
  load <customerId>                                  fetch the price tree for a customer
  show [query]                                       print brands, optionally filtered
  brand <brandId> <percent>                          cascade to every coating of a brand
  product <brandId> <productId> <percent>            cascade to every coating of a product
  coating <brandId> <productId> <coatingId> <priceId> <percent>
  pending                                            list unsaved and persisted edits
  expand | collapse                                  toggle coating rows in show
  save                                               submit pending edits
  reset                                              discard unsaved edits
  help | quit`

type shell struct {
	ed  *editor.Editor
	out io.Writer
}

func newShell(ed *editor.Editor, out io.Writer) *shell {
	return &shell{ed: ed, out: out}
}

// Run reads commands line by line until EOF or quit.
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			s.prompt()
			continue
		}
		if quit := s.exec(ctx, strings.Fields(line)); quit {
			return nil
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *shell) prompt() {
	marker := ""
	if s.ed.Dirty() {
		marker = "*"
	}
	fmt.Fprintf(s.out, "discounts%s> ", marker)
}

func (s *shell) exec(ctx context.Context, args []string) bool {
	var err error
	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		if s.ed.Dirty() {
			fmt.Fprintln(s.out, "warning: unsaved changes discarded")
		}
		return true
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "load":
		err = s.load(ctx, args[1:])
	case "show":
		s.show(strings.Join(args[1:], " "))
	case "brand":
		err = s.brand(args[1:])
	case "product":
		err = s.product(args[1:])
	case "coating":
		err = s.coating(args[1:])
	case "pending":
		s.pending()
	case "expand":
		s.ed.ExpandAll()
	case "collapse":
		s.ed.CollapseAll()
	case "save":
		err = s.save(ctx)
	case "reset":
		s.ed.Reset()
		fmt.Fprintln(s.out, "unsaved changes discarded")
	default:
		err = fmt.Errorf("unknown command %q, try help", args[0])
	}
	if err != nil {
		s.report(err)
	}
	return false
}

func (s *shell) report(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		fmt.Fprintf(s.out, "error: %s\n", typed.Message())
		return
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
}

func (s *shell) load(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, 1)
	if err != nil {
		return err
	}
	if err := s.ed.LoadHierarchy(ctx, ids[0]); err != nil {
		return err
	}
	tree := s.ed.Hierarchy()
	fmt.Fprintf(s.out, "loaded %d brands for customer %d (existing overrides: %t)\n", len(tree.Brands), ids[0], tree.HasPriceMapping)
	return nil
}

func (s *shell) brand(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: brand <brandId> <percent>")
	}
	ids, err := parseIDs(args[:1], 1)
	if err != nil {
		return err
	}
	return s.ed.SetBrandDiscount(ids[0], editor.ParsePercent(args[1]))
}

func (s *shell) product(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: product <brandId> <productId> <percent>")
	}
	ids, err := parseIDs(args[:2], 2)
	if err != nil {
		return err
	}
	return s.ed.SetProductDiscount(ids[0], ids[1], editor.ParsePercent(args[2]))
}

func (s *shell) coating(args []string) error {
	if len(args) != 5 {
		return errors.New("usage: coating <brandId> <productId> <coatingId> <priceId> <percent>")
	}
	ids, err := parseIDs(args[:4], 4)
	if err != nil {
		return err
	}
	return s.ed.SetCoatingDiscount(ids[0], ids[1], ids[2], ids[3], editor.ParsePercent(args[4]))
}

func (s *shell) save(ctx context.Context) error {
	affected, err := s.ed.Save(ctx, s.ed.CustomerID())
	if errors.Is(err, editor.ErrNothingToSave) {
		fmt.Fprintln(s.out, err.Error())
		return nil
	}
	if err != nil && !errors.Is(err, editor.ErrReloadFailed) {
		return err
	}
	fmt.Fprintf(s.out, "saved %d overrides\n", affected)
	if err != nil {
		fmt.Fprintf(s.out, "warning: %v, run load %d to refresh\n", err, s.ed.CustomerID())
	}
	return nil
}

func (s *shell) show(query string) {
	brands := s.ed.Filter(query)
	if s.ed.Hierarchy() == nil {
		fmt.Fprintln(s.out, "nothing loaded, run load <customerId>")
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, brand := range brands {
		fmt.Fprintf(tw, "[%d] %s\t%s\n", brand.ID, brand.Name, displayPercent(s.ed.BrandDisplay(brand.ID)))
		for _, product := range brand.Products {
			fmt.Fprintf(tw, "  [%d] %s (%s)\t%s\n", product.ID, product.LensName, product.ProductCode, displayPercent(s.ed.ProductDisplay(product.ID)))
			if !s.ed.Expanded() {
				continue
			}
			for _, record := range product.PriceRecords {
				price, _ := s.ed.DiscountedPrice(record.ID)
				discount := "-"
				if edit, ok := s.ed.PendingFor(record.ID); ok {
					discount = edit.Discount.String() + "%"
				} else if rate, ok := s.ed.PersistedRate(record.ID); ok {
					discount = rate.String() + "% (stored)"
				}
				fmt.Fprintf(tw, "    [%d] %s coating=%d\t%s\t%s -> %s\n",
					record.ID, record.Coating.Name, record.Coating.ID, discount, record.Price.StringFixed(2), price.StringFixed(2))
			}
		}
	}
}

func (s *shell) pending() {
	entries := s.ed.Pending()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "no pending edits")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "PRICE\tBRAND\tPRODUCT\tCOATING\tDISCOUNT\tORIGIN")
	for _, edit := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s%%\t%s\n", edit.PriceID, edit.BrandID, edit.ProductID, edit.CoatingID, edit.Discount.String(), edit.Origin)
	}
}

func displayPercent(value fmt.Stringer, ok bool) string {
	if !ok {
		return ""
	}
	return value.String() + "%"
}

func parseIDs(args []string, want int) ([]int64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("expected %d ids, got %d", want, len(args))
	}
	ids := make([]int64, 0, want)
	for _, raw := range args {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
