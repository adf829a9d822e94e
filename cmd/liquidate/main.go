// Command liquidate runs the monthly liquidation for one or all configured
// properties without going through the HTTP API or the job queue.
//
//	go run ./cmd/liquidate -year 2025 -month 3 [-property <uuid>]...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"time"

	"itineramio/internal/config"
	"itineramio/internal/infra"
	"itineramio/internal/router"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type idList []uuid.UUID

func (l *idList) String() string {
	parts := make([]string, len(*l))
	for i, id := range *l {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(v string) error {
	id, err := uuid.Parse(v)
	if err != nil {
		return err
	}
	*l = append(*l, id)
	return nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	now := time.Now().UTC().AddDate(0, -1, 0)
	year := flag.Int("year", now.Year(), "calendar year")
	month := flag.Int("month", int(now.Month()), "calendar month (1-12)")
	var properties idList
	flag.Var(&properties, "property", "property UUID (repeatable; default: every active config)")
	flag.Parse()

	if *month < 1 || *month > 12 {
		log.Fatal().Int("month", *month).Msg("month must be between 1 and 12")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := router.NewServices(cfg, db).Liquidations.AggregateMonth(ctx, *year, *month, properties)
	if err != nil {
		log.Fatal().Err(err).Msg("liquidation run failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatal().Err(err).Msg("write results")
	}
	for _, r := range results {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}
