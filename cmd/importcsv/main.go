// Command importcsv loads a CSV or XLSX export into one property, using
// either a saved import template or an inline mapping.
//
//	go run ./cmd/importcsv -property <uuid> -file airbnb.csv -template <uuid>
//	go run ./cmd/importcsv -property <uuid> -file export.xlsx \
//	    -mapping '{"guestName":1,"checkIn":2,"checkOut":3,"amount":4}' \
//	    -config '{"dateFormat":"DD/MM/YYYY","numberFormat":"EU","amountType":"GROSS","platform":"AIRBNB"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"itineramio/internal/config"
	"itineramio/internal/dto"
	"itineramio/internal/importer"
	"itineramio/internal/infra"
	"itineramio/internal/router"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	propertyFlag := flag.String("property", "", "property UUID (required)")
	file := flag.String("file", "", "CSV, TXT or XLSX file (required)")
	template := flag.String("template", "", "saved import template UUID")
	mappingJSON := flag.String("mapping", "", "column mapping JSON")
	configJSON := flag.String("config", "", "import config JSON")
	skipDuplicates := flag.Bool("skip-duplicates", true, "count duplicates as skipped instead of errors")
	flag.Parse()

	propertyID, err := uuid.Parse(*propertyFlag)
	if err != nil || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	req := dto.ImportRequest{SkipDuplicates: *skipDuplicates}
	if *template != "" {
		req.TemplateID = template
	}
	if *mappingJSON != "" {
		req.Mapping = &importer.ColumnMapping{}
		if err := json.Unmarshal([]byte(*mappingJSON), req.Mapping); err != nil {
			log.Fatal().Err(err).Msg("invalid -mapping")
		}
	}
	if *configJSON != "" {
		req.Config = &importer.ImportConfig{}
		if err := json.Unmarshal([]byte(*configJSON), req.Config); err != nil {
			log.Fatal().Err(err).Msg("invalid -config")
		}
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("open file")
	}
	req.Rows, err = infra.ReadMatrix(f, filepath.Base(*file))
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read file")
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

	report, err := router.NewServices(cfg, db).Imports.ImportReservations(ctx, propertyID, req)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("write report")
	}
	if report.ErrorCount > 0 {
		os.Exit(1)
	}
}
