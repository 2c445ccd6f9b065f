package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/repaso/internal/domain"
	"github.com/conorfennell/repaso/internal/gitsource"
	"github.com/conorfennell/repaso/internal/parser"
	"github.com/conorfennell/repaso/internal/reconcile"
	"github.com/conorfennell/repaso/internal/storage"
)

// RunSync iterates over all configured sources, parses their deck
// files, and reconciles every deck against the stored snapshot.
// Cards that kept their term keep their scheduling history; new cards
// start fresh; cards no longer in the source are dropped.
func RunSync(db *storage.DB, reposDir string) error {
	slog.Info("Starting sync process for all sources...")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with --add-source <path/or/url.git>")
		return nil
	}

	for _, source := range sources {
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		localPath := source.Path
		if source.Type == "git" {
			localPath, err = localCachePath(reposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				continue
			}
		}

		if err := reconcileLocalSource(db, localPath); err != nil {
			slog.Error("Error reconciling source", "path", localPath, "error", err)
			continue
		}

		if err := db.UpdateSourceLastScanned(source.ID); err != nil {
			slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
		}
	}
	slog.Info("Sync process complete.")
	return nil
}

// deckFile reports whether a file name looks like a deck file.
func deckFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

func reconcileLocalSource(db *storage.DB, path string) error {
	now := time.Now()
	decks := make(map[string][]domain.SourceRecord)
	var deckOrder []string

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !deckFile(d.Name()) {
			return nil
		}
		fileDecks, parseErr := parser.ParseFile(p)
		if parseErr != nil {
			return fmt.Errorf("parsing %s: %w", p, parseErr)
		}
		for _, deck := range fileDecks {
			if _, seen := decks[deck.Name]; !seen {
				deckOrder = append(deckOrder, deck.Name)
			}
			decks[deck.Name] = append(decks[deck.Name], deck.Records...)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", path, walkErr)
	}

	for _, name := range deckOrder {
		prev, err := db.LoadDeck(name)
		if err != nil {
			return fmt.Errorf("loading deck %s: %w", name, err)
		}

		merged, skipped := reconcile.Reconcile(decks[name], prev, now)
		for _, s := range skipped {
			slog.Warn("Skipping malformed record", "deck", name, "term", s.Record.Term, "reason", s.Reason)
		}

		if err := db.SaveDeck(name, merged); err != nil {
			return fmt.Errorf("saving deck %s: %w", name, err)
		}

		slog.Info("reconciliation complete",
			"deck", name,
			"cards", len(merged),
			"new", len(merged)-kept(merged, prev),
			"dropped", len(prev)-kept(merged, prev),
			"skipped", len(skipped),
		)
	}
	return nil
}

// kept counts cards present in both the merged and previous snapshots.
func kept(merged, prev map[string]domain.Card) int {
	n := 0
	for k := range merged {
		if _, ok := prev[k]; ok {
			n++
		}
	}
	return n
}

// localCachePath maps a git URL onto a stable clone directory under
// baseDir, so repeated syncs of the same URL reuse one checkout.
// Accepts http(s) URLs and scp-like git@host:user/repo.git addresses.
func localCachePath(baseDir, repoURL string) (string, error) {
	if u, err := url.Parse(repoURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return filepath.Join(baseDir, u.Host, strings.TrimSuffix(u.Path, ".git")), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		if colon := strings.Index(repoURL[at:], ":"); colon > 0 {
			host := repoURL[at+1 : at+colon]
			repoPath := strings.TrimSuffix(repoURL[at+colon+1:], ".git")
			if host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// EnsureReposDir creates the local cache directory for git sources.
func EnsureReposDir(reposDir string) error {
	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory %s: %w", reposDir, err)
	}
	return nil
}
