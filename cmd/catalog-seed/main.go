// Command catalog-seed imports product catalogs from gzipped JSON dump files
// into the products collection. Dumps are streamed, validated, and deduped by
// product name across files; the first occurrence of a name wins.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/store"
)

const decodeBufSize = 1 << 16

func main() {
	var (
		dataDir       string
		replace       bool
		bloomCapacity uint
		bloomFPR      float64
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory holding the collection files")
	flag.BoolVar(&replace, "replace", false, "replace the existing catalog instead of appending")
	flag.UintVar(&bloomCapacity, "bloom-capacity", 1_000_000, "expected number of distinct product names")
	flag.Float64Var(&bloomFPR, "bloom-fpr", 0.0001, "accepted false-positive rate for name dedupe (false positives are skipped)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no dump files given: usage: catalog-seed [flags] dump.json.gz ...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, files, replace, bloomCapacity, bloomFPR); err != nil {
		slog.Error("catalog seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog seed completed successfully")
}

// seedProduct is one record from a dump file, before ID assignment.
type seedProduct struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	Image       string
	Featured    bool
}

func run(ctx context.Context, dataDir string, files []string, replace bool, capacity uint, fpr float64) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Parse every dump concurrently; merging stays deterministic because
	// results are collected per file and combined in argument order.
	slog.Info("parsing dumps", slog.Int("files", len(files)))

	parsed := make([][]seedProduct, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			records, err := parseDump(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "parse %s", f)
			}
			parsed[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	collection := store.NewCollection[product.Product](store.New(dataDir), "products")

	existing := []product.Product{}
	if !replace {
		existing = collection.Load(ctx)
	}

	// Cross-file name dedupe. The filter is seeded with the existing catalog
	// so appends respect the name-uniqueness invariant too.
	seen := bloom.NewWithEstimates(capacity, fpr)
	for _, p := range existing {
		seen.AddString(strings.ToLower(p.Name))
	}

	nextID := int64(1)
	for _, p := range existing {
		if p.ID >= nextID {
			nextID = p.ID + 1
		}
	}

	var (
		products = existing
		skipped  int
		invalid  int
		now      = time.Now().UTC()
	)
	for _, records := range parsed {
		for _, rec := range records {
			name := strings.TrimSpace(rec.Name)
			if name == "" || !rec.Price.IsPositive() {
				invalid++
				continue
			}
			if seen.TestOrAddString(strings.ToLower(name)) {
				skipped++
				continue
			}
			products = append(products, product.Product{
				ID:          nextID,
				Name:        name,
				Price:       rec.Price,
				Category:    rec.Category,
				Description: rec.Description,
				Image:       rec.Image,
				Featured:    rec.Featured,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			nextID++
		}
	}

	slog.Info("writing catalog",
		slog.Int("products", len(products)),
		slog.Int("duplicates_skipped", skipped),
		slog.Int("invalid_skipped", invalid),
	)

	if err := collection.Save(ctx, products); err != nil {
		return errors.Wrap(err, "write products collection")
	}
	return nil
}

// parseDump streams one gzipped JSON array of product records.
func parseDump(ctx context.Context, path string) ([]seedProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	var records []seedProduct
	d := jx.Decode(gz, decodeBufSize)
	err = d.Arr(func(d *jx.Decoder) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := decodeProduct(d)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode array")
	}
	return records, nil
}

func decodeProduct(d *jx.Decoder) (seedProduct, error) {
	var rec seedProduct
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			rec.Name = v
			return err
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(n.String())
			rec.Price = price
			return err
		case "category":
			v, err := d.Str()
			rec.Category = v
			return err
		case "description":
			v, err := d.Str()
			rec.Description = v
			return err
		case "image":
			v, err := d.Str()
			rec.Image = v
			return err
		case "featured":
			v, err := d.Bool()
			rec.Featured = v
			return err
		default:
			return d.Skip()
		}
	})
	return rec, err
}
