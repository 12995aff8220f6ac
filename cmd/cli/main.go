package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/tinylink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/tinylink/pkg/config"
	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
	"github.com/wadjakorntonsri/tinylink/pkg/logger"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	logger.Initialize(cfg.AppEnv)

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer repo.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		doExport(repo)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(repo, *importFile)
	default:
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}
}

func doExport(repo *sqlite.SQLiteRepository) {
	links, err := repo.Dump(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
}

func doImport(repo *sqlite.SQLiteRepository, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatal().Err(err).Str("file", filename).Msg("failed to open file")
	}
	defer file.Close()

	var links []domain.Link
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		log.Fatal().Err(err).Msg("decode failed")
	}

	ctx := context.Background()
	count := 0
	for i := range links {
		// Restore keeps clicks and last_clicked; the unique constraint
		// skips codes that already exist.
		err := repo.Restore(ctx, &links[i])
		if errors.Is(err, domain.ErrCodeTaken) {
			log.Warn().Str("code", links[i].Code).Msg("skipping existing code")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("code", links[i].Code).Msg("failed to import")
			continue
		}
		count++
	}
	log.Info().Int("count", count).Msg("import finished")
}
