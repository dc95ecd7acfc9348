package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/artpar/askboard/internal/shell/seed"
	"github.com/artpar/askboard/internal/shell/store"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	seedFile := flag.String("seed", "", "Load a YAML fixture into the database and exit")
	generate := flag.Int("generate", 0, "Create N numbered test questions and exit")
	author := flag.String("author", "", "Username that authors the questions created by -generate")
	flag.Parse()

	if *showVersion {
		fmt.Printf("askboard %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)

	if *seedFile != "" || *generate > 0 {
		if *generate > 0 && *author == "" {
			fmt.Fprintln(os.Stderr, "configuration error: -generate requires -author")
			return ExitConfigError
		}
		return runSeed(cfg, logger, *seedFile, *generate, *author)
	}

	logger.Info("starting askboard",
		"version", Version,
		"config", *configPath,
	)

	server, err := NewServer(cfg, logger)
	if err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("failed to create server",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("failed to create server", "error", err)
		return ExitConfigError
	}

	ctx := context.Background()
	if err := server.Start(ctx); err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("server error",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("server error", "error", err)
		return ExitConfigError
	}

	return ExitSuccess
}

// runSeed loads the fixture file, then generates questions, against the
// configured database.
func runSeed(cfg *Config, logger *slog.Logger, seedFile string, generate int, author string) int {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return ExitDatabaseError
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now()

	if seedFile != "" {
		sum, err := seed.LoadFile(ctx, s, seedFile, now)
		if err != nil {
			logger.Error("seed failed", "file", seedFile, "error", err)
			return ExitSeedError
		}
		logger.Info("seed loaded",
			"file", seedFile,
			"users", sum.Users,
			"questions", sum.Questions,
			"answers", sum.Answers,
			"votes", sum.Votes,
		)
	}

	if generate > 0 {
		n, err := seed.Generate(ctx, s, author, generate, now)
		if err != nil {
			logger.Error("generate failed", "author", author, "error", err)
			return ExitSeedError
		}
		logger.Info("questions generated", "author", author, "count", n)
	}

	return ExitSuccess
}
