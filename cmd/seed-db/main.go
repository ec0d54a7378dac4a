// Command seed-db loads demo reference data: countries, products, settings,
// customers and the default admin API key.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/floralane/backoffice/internal/storage/postgres"
)

type productJSON struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	PriceUSD     decimal.Decimal  `json:"priceUsd"`
	PriceUAH     *decimal.Decimal `json:"priceUah"`
	PackSize     int              `json:"packSize"`
	Availability string           `json:"availability"`
	Promo        bool             `json:"promo"`
	CatalogType  string           `json:"catalogType"`
	CountryID    string           `json:"countryId"`
}

type countryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type customerJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Language string `json:"language"`
	Blocked  bool   `json:"blocked"`
}

type seedFile struct {
	Countries []countryJSON     `json:"countries"`
	Products  []productJSON     `json:"products"`
	Customers []customerJSON    `json:"customers"`
	Settings  map[string]string `json:"settings"`
}

const (
	upsertCountrySQL = `INSERT INTO countries (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	upsertProductSQL = `INSERT INTO products (id, name, price_usd, price_uah, pack_size, availability, promo, catalog_type, country_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price_usd = EXCLUDED.price_usd,
			price_uah = EXCLUDED.price_uah,
			pack_size = EXCLUDED.pack_size,
			availability = EXCLUDED.availability,
			promo = EXCLUDED.promo,
			catalog_type = EXCLUDED.catalog_type,
			country_id = EXCLUDED.country_id`

	upsertCustomerSQL = `INSERT INTO customers (id, name, type, language, is_blocked)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			language = EXCLUDED.language,
			is_blocked = EXCLUDED.is_blocked`

	upsertSettingSQL = `INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, name = EXCLUDED.name, active = TRUE`
)

func main() {
	var (
		databaseURL  string
		seedPath     string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/demo.json", "path to seed JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or FLOWER_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or FLOWER_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("FLOWER_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or FLOWER_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("FLOWER_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("reading seed file", slog.String("path", seedPath))

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	if err := seedCountries(ctx, pool, seed.Countries); err != nil {
		return errors.Wrap(err, "seed countries")
	}
	if err := seedProducts(ctx, pool, seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCustomers(ctx, pool, seed.Customers); err != nil {
		return errors.Wrap(err, "seed customers")
	}
	if err := seedSettings(ctx, pool, seed.Settings); err != nil {
		return errors.Wrap(err, "seed settings")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCountries(ctx context.Context, pool *pgxpool.Pool, countries []countryJSON) error {
	slog.Info("upserting countries", slog.Int("count", len(countries)))

	for _, c := range countries {
		if _, err := pool.Exec(ctx, upsertCountrySQL, c.ID, c.Name); err != nil {
			return errors.Wrapf(err, "upsert country %s", c.ID)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.PriceUSD, p.PriceUAH, p.PackSize,
			p.Availability, p.Promo, p.CatalogType, p.CountryID,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, customers []customerJSON) error {
	slog.Info("upserting customers", slog.Int("count", len(customers)))

	for _, c := range customers {
		if _, err := pool.Exec(ctx, upsertCustomerSQL,
			c.ID, c.Name, c.Type, c.Language, c.Blocked,
		); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.ID)
		}
	}
	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool, settings map[string]string) error {
	slog.Info("upserting settings", slog.Int("count", len(settings)))

	for key, value := range settings {
		if _, err := pool.Exec(ctx, upsertSettingSQL, key, value); err != nil {
			return errors.Wrapf(err, "upsert setting %s", key)
		}
	}
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, "default", keyHash, "Default admin key"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
