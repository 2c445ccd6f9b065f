package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/repaso/internal/config"
	"github.com/conorfennell/repaso/internal/gitsource"
	"github.com/conorfennell/repaso/internal/review"
	"github.com/conorfennell/repaso/internal/schedule"
	"github.com/conorfennell/repaso/internal/session"
	"github.com/conorfennell/repaso/internal/storage"
	"github.com/conorfennell/repaso/internal/sync"
)

func main() {
	flags := pflag.NewFlagSet("repaso", pflag.ExitOnError)
	configPath := flags.String("config", "repaso.yaml", "Path to the YAML config file")
	// Flag defaults mirror config.Default: posflag falls back to flag
	// defaults for keys no other provider supplies.
	flags.String("database", "repaso.db", "Path to the SQLite database file")
	flags.String("repos_dir", "repos", "Directory for cloned git deck sources")
	addSource := flags.String("add-source", "", "Register a deck source (local directory or git URL)")
	removeSource := flags.String("remove-source", "", "Unregister a deck source by path")
	runSync := flags.Bool("sync", false, "Sync all sources and reconcile decks")
	list := flags.Bool("list", false, "List decks with total and due card counts")
	reviewDeck := flags.String("review", "", "Start a review session for the given deck")
	flags.Parse(os.Args[1:])

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.Database, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch {
	case *addSource != "":
		if err := addNewSource(db, *addSource); err != nil {
			slog.Error("Failed to add source", "path", *addSource, "error", err)
			os.Exit(1)
		}

	case *removeSource != "":
		if err := removeExistingSource(db, *removeSource); err != nil {
			slog.Error("Failed to remove source", "path", *removeSource, "error", err)
			os.Exit(1)
		}

	case *runSync:
		if err := sync.EnsureReposDir(cfg.ReposDir); err != nil {
			slog.Error("Failed to prepare repos directory", "error", err)
			os.Exit(1)
		}
		if err := sync.RunSync(db, cfg.ReposDir); err != nil {
			slog.Error("Sync failed", "error", err)
			os.Exit(1)
		}

	case *list:
		if err := listDecks(db); err != nil {
			slog.Error("Failed to list decks", "error", err)
			os.Exit(1)
		}

	case *reviewDeck != "":
		runner := &review.Runner{
			DB:     db,
			Params: schedulerParams(cfg),
			Queue:  queueConfig(cfg),
			In:     os.Stdin,
			Out:    os.Stdout,
		}
		if err := runner.Run(*reviewDeck); err != nil {
			slog.Error("Review session failed", "deck", *reviewDeck, "error", err)
			os.Exit(1)
		}

	default:
		flags.Usage()
	}
}

// addNewSource registers a path once, classifying it as local or git.
func addNewSource(db *storage.DB, path string) error {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("Source already registered", "id", existing.ID, "path", path)
		return nil
	}

	sourceType := "local"
	if gitsource.IsGitURL(path) {
		sourceType = "git"
	}

	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return nil
}

// removeExistingSource unregisters a source. Its cards stay until the
// next sync pass of the remaining sources decides membership.
func removeExistingSource(db *storage.DB, path string) error {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return err
	}
	if existing == nil {
		slog.Info("Source not registered", "path", path)
		return nil
	}
	if err := db.DeleteSource(existing.ID); err != nil {
		return err
	}
	slog.Info("Source removed", "id", existing.ID, "path", path)
	return nil
}

func listDecks(db *storage.DB) error {
	stats, err := db.Stats(time.Now())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No decks stored yet. Add a source and run --sync.")
		return nil
	}
	for _, s := range stats {
		fmt.Printf("%-30s %4d cards, %4d due\n", s.Deck, s.Total, s.Due)
	}
	return nil
}

func schedulerParams(cfg config.Config) *schedule.Params {
	return &schedule.Params{
		BaseIntervalDays: cfg.Scheduler.BaseIntervalDays,
		BackoffFactor:    cfg.Scheduler.BackoffFactor,
		MaxIntervalDays:  cfg.Scheduler.MaxIntervalDays,
		MaxStreak:        cfg.Scheduler.MaxStreak,
	}
}

func queueConfig(cfg config.Config) session.Config {
	return session.Config{
		AgainMin: cfg.Queue.AgainMin, AgainMax: cfg.Queue.AgainMax,
		HardMin: cfg.Queue.HardMin, HardMax: cfg.Queue.HardMax,
		GoodMin: cfg.Queue.GoodMin, GoodMax: cfg.Queue.GoodMax,
	}
}
