package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/arga-dev/backend-envio/internal/obs"
)

// seeder applies migrations and loads a starter catalog of tariffs and
// pricing rules so a fresh environment can quote immediately.
func main() {
	_ = godotenv.Load()

	migrationsPath := flag.String("migrations", "db/migrations", "path to migration files")
	skipSeed := flag.Bool("skip-seed", false, "apply migrations only")
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	m, err := migrate.New("file://"+*migrationsPath, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise migrations")
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Error().Err(srcErr).Msg("close migration source")
	}
	if dbErr != nil {
		logger.Error().Err(dbErr).Msg("close migration database")
	}
	logger.Info().Msg("migrations applied")

	if *skipSeed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	type tariffSeed struct {
		serviceType   string
		minKg         float64
		maxKg         *float64
		basePrice     float64
		perKg         float64
		perVolume     float64
		insurancePct  float64
		handlingFee   float64
		deliveryFee   float64
	}
	f := func(v float64) *float64 { return &v }
	tariffs := []tariffSeed{
		{"STANDARD", 0, f(5), 1000, 500, 0, 1, 50, 120},
		{"STANDARD", 5, f(30), 1800, 420, 0.002, 1, 80, 120},
		{"EXPRESS", 0, f(10), 2500, 750, 0, 1.5, 100, 200},
		{"FREIGHT", 30, nil, 5000, 300, 0.001, 0.5, 250, 0},
	}
	for _, t := range tariffs {
		_, err := pool.Exec(ctx, `
			INSERT INTO tariffs (service_type, min_weight_kg, max_weight_kg, base_price, price_per_kg,
				price_per_volume_cm3, insurance_rate_percent, handling_fee, delivery_fee)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.serviceType, t.minKg, t.maxKg, t.basePrice, t.perKg,
			t.perVolume, t.insurancePct, t.handlingFee, t.deliveryFee)
		if err != nil {
			logger.Fatal().Err(err).Str("service_type", t.serviceType).Msg("seed tariff")
		}
	}
	logger.Info().Int("count", len(tariffs)).Msg("tariffs seeded")

	type ruleSeed struct {
		name      string
		priority  int32
		field     string
		op        string
		valueFrom float64
		valueTo   *float64
		action    string
		value     float64
	}
	rules := []ruleSeed{
		{"heavy parcel surcharge", 20, "weight_kg", ">", 20, nil, "ADD", 500},
		{"bulk order discount", 10, "total_amount", ">", 10000, nil, "PERCENTAGE", -5},
		{"mid-range promo", 5, "weight_kg", "BETWEEN", 2, f(8), "PERCENTAGE", -10},
		{"signature handling", 1, "requires_signature", "=", 1, nil, "ADD", 75},
	}
	for _, r := range rules {
		_, err := pool.Exec(ctx, `
			INSERT INTO pricing_rules (name, effective_date, priority, condition_field, operator,
				value_from, value_to, action_type, action_value)
			VALUES ($1, now(), $2, $3, $4, $5, $6, $7, $8)`,
			r.name, r.priority, r.field, r.op, r.valueFrom, r.valueTo, r.action, r.value)
		if err != nil {
			logger.Fatal().Err(err).Str("rule", r.name).Msg("seed rule")
		}
	}
	logger.Info().Int("count", len(rules)).Msg("pricing rules seeded")
}
