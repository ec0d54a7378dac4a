// Command pricelist-ingest imports gzip-compressed supplier price lists into
// the product catalog. Each line is `sku;name;price_usd;pack_size;country_id`.
// A SKU quoted by more than one supplier is skipped for manual review;
// cross-file membership is tested with per-file bloom filters so the lists
// never need to fit in memory at once.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/floralane/backoffice/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	fieldCount    = 5
)

const upsertProductSQL = `INSERT INTO products (id, name, price_usd, pack_size, availability, catalog_type, country_id)
	VALUES ($1, $2, $3, $4, 'available', 'instock', $5)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		price_usd = EXCLUDED.price_usd,
		pack_size = EXCLUDED.pack_size,
		country_id = EXCLUDED.country_id`

// row is one parsed price list entry.
type row struct {
	sku       string
	name      string
	priceUSD  decimal.Decimal
	packSize  int
	countryID string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing pricelist *.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("pricelist ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("pricelist ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list pricelist files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz pricelist files in %s", dataDir)
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("pass 2: importing unique SKUs")

	var imported, conflicted uint64
	for i, f := range files {
		n, c, err := importFile(ctx, pool, i, f, filters)
		if err != nil {
			return errors.Wrapf(err, "import %s", f)
		}
		imported += n
		conflicted += c
	}

	slog.Info("import summary",
		slog.Uint64("imported", imported),
		slog.Uint64("conflicted_skipped", conflicted),
	)
	return nil
}

// buildBloomFilters creates one SKU bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			sku, _, ok := strings.Cut(line, ";")
			if !ok || sku == "" {
				return
			}
			filter.AddString(sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress", slog.Int("file", idx+1), slog.Uint64("rows", count))
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete", slog.Int("file", idx+1), slog.Uint64("total_rows", count))

		filters[idx] = filter
		return nil
	}
}

// importFile re-streams one file, skipping SKUs that appear in any other
// file's bloom filter, and upserts the rest.
func importFile(
	ctx context.Context,
	pool *pgxpool.Pool,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
) (imported, conflicted uint64, err error) {
	err = streamGzFile(ctx, path, func(line string) {
		if err != nil {
			return
		}

		r, parseErr := parseRow(line)
		if parseErr != nil {
			slog.Warn("skipping malformed row",
				slog.Int("file", idx+1),
				slog.String("error", parseErr.Error()),
			)
			return
		}

		for j, f := range filters {
			if j == idx {
				continue
			}
			if f.TestString(r.sku) {
				conflicted++
				return
			}
		}

		if _, execErr := pool.Exec(ctx, upsertProductSQL,
			r.sku, r.name, r.priceUSD, r.packSize, r.countryID,
		); execErr != nil {
			err = errors.Wrapf(execErr, "upsert product %s", r.sku)
			return
		}
		imported++
	})
	return imported, conflicted, err
}

func parseRow(line string) (row, error) {
	fields := strings.Split(line, ";")
	if len(fields) != fieldCount {
		return row{}, errors.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return row{}, errors.Wrapf(err, "parse price for %s", fields[0])
	}
	packSize, err := strconv.Atoi(fields[3])
	if err != nil {
		return row{}, errors.Wrapf(err, "parse pack size for %s", fields[0])
	}

	return row{
		sku:       fields[0],
		name:      fields[1],
		priceUSD:  price,
		packSize:  packSize,
		countryID: fields[4],
	}, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
