package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mtgdc/codex/internal/config"
	"github.com/mtgdc/codex/internal/types"
)

// Store is the persistence surface the bootstrap writes reference data to
// and reads snapshots back from.
type Store interface {
	UpsertSet(ctx context.Context, s Set) error
	UpsertCard(ctx context.Context, e Entry) error
	AllSets(ctx context.Context) ([]Set, error)
	AllCards(ctx context.Context) ([]Entry, error)
}

// Bootstrap keeps the local card/set reference data fresh. Archives are
// cached on disk and re-downloaded when older than the configured max age.
type Bootstrap struct {
	cfg    config.Catalog
	client *http.Client
	store  Store
	logger *slog.Logger
}

// NewBootstrap creates a catalog bootstrap.
func NewBootstrap(cfg config.Catalog, store Store, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
		store:  store,
		logger: logger.With("component", "catalog_bootstrap"),
	}
}

// Ensure refreshes sets and cards if the cached archives are stale, then
// returns a snapshot built from the full stored card set. Sets load first:
// the card loader needs release dates for the oldest-printing fallback.
func (b *Bootstrap) Ensure(ctx context.Context) (*Snapshot, error) {
	if err := b.ensureSets(ctx); err != nil {
		return nil, fmt.Errorf("ensure sets: %w", err)
	}
	if err := b.ensureCards(ctx); err != nil {
		return nil, fmt.Errorf("ensure cards: %w", err)
	}
	return b.LoadSnapshot(ctx)
}

// LoadSnapshot builds a fresh snapshot from the stored card set.
func (b *Bootstrap) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	entries, err := b.store.AllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	if len(entries) == 0 {
		return nil, types.ErrCatalogEmpty
	}
	snap := BuildSnapshot(entries)
	b.logger.Info("catalog snapshot built", "cards", snap.Len())
	return snap, nil
}

type setListFile struct {
	Data []struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		ReleaseDate string `json:"releaseDate"`
	} `json:"data"`
}

func (b *Bootstrap) ensureSets(ctx context.Context) error {
	path := filepath.Join(b.cfg.CacheDir, "SetList.json.gz")
	refreshed, err := b.refresh(ctx, b.cfg.SetsURL, path)
	if err != nil {
		return err
	}
	if !refreshed {
		return nil
	}

	var file setListFile
	if err := b.decodeArchive(path, &file); err != nil {
		return err
	}

	loaded := 0
	for _, raw := range file.Data {
		release, err := time.Parse("2006-01-02", raw.ReleaseDate)
		if err != nil {
			b.logger.Warn("skipping set with bad release date", "code", raw.Code, "date", raw.ReleaseDate)
			continue
		}
		set := Set{Code: raw.Code, Name: raw.Name, ReleaseDate: release}
		if err := b.store.UpsertSet(ctx, set); err != nil {
			return fmt.Errorf("upsert set %s: %w", raw.Code, err)
		}
		loaded++
	}
	b.logger.Info("sets loaded", "count", loaded)
	return nil
}

type atomicCardsFile struct {
	Data map[string][]atomicCard `json:"data"`
}

type atomicCard struct {
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	ManaValue     float64           `json:"manaValue"`
	ColorIdentity []string          `json:"colorIdentity"`
	Text          string            `json:"text"`
	FirstPrinting string            `json:"firstPrinting"`
	Printings     []string          `json:"printings"`
	Legalities    map[string]string `json:"legalities"`
	Identifiers   struct {
		ScryfallOracleID string `json:"scryfallOracleId"`
	} `json:"identifiers"`
}

func (b *Bootstrap) ensureCards(ctx context.Context) error {
	path := filepath.Join(b.cfg.CacheDir, "AtomicCards.json.gz")
	refreshed, err := b.refresh(ctx, b.cfg.CardsURL, path)
	if err != nil {
		return err
	}
	if !refreshed {
		return nil
	}

	var file atomicCardsFile
	if err := b.decodeArchive(path, &file); err != nil {
		return err
	}

	releases, err := b.setReleases(ctx)
	if err != nil {
		return err
	}

	loaded := 0
	for _, faces := range file.Data {
		if len(faces) == 0 {
			continue
		}
		raw := faces[0]

		// Rebalanced alternate-art cards, Schemes and Planes never appear in
		// sanctioned decklists; cards without legalities are not real cards.
		if strings.HasPrefix(raw.Name, altArtPrefix) {
			continue
		}
		if strings.Contains(raw.Type, "Scheme") || strings.Contains(raw.Type, "Plane —") {
			continue
		}
		if len(raw.Legalities) == 0 {
			continue
		}

		firstPrint := raw.FirstPrinting
		if firstPrint == "" {
			firstPrint = oldestSet(raw.Printings, releases)
		}

		entry := Entry{
			ID:            raw.Identifiers.ScryfallOracleID,
			Name:          raw.Name,
			Type:          raw.Type,
			ManaValue:     int(raw.ManaValue),
			ColorIdentity: strings.Join(raw.ColorIdentity, ""),
			Text:          raw.Text,
			FirstPrint:    firstPrint,
			Legalities:    raw.Legalities,
		}
		if err := b.store.UpsertCard(ctx, entry); err != nil {
			return fmt.Errorf("upsert card %q: %w", raw.Name, err)
		}
		loaded++
	}
	b.logger.Info("cards loaded", "count", loaded)
	return nil
}

// refresh downloads url to path when the cached copy is missing or older
// than the configured max age. It reports whether the archive needs
// (re)loading into storage.
func (b *Bootstrap) refresh(ctx context.Context, url, path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil && time.Since(info.ModTime()) < b.cfg.MaxAge {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create cache dir: %w", err)
	}

	b.logger.Info("downloading catalog archive", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bootstrap) decodeArchive(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer gz.Close()

	if err := json.NewDecoder(gz).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (b *Bootstrap) setReleases(ctx context.Context) (map[string]time.Time, error) {
	sets, err := b.store.AllSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sets: %w", err)
	}
	releases := make(map[string]time.Time, len(sets))
	for _, s := range sets {
		releases[s.Code] = s.ReleaseDate
	}
	return releases, nil
}

// oldestSet picks the printing with the earliest known release date, falling
// back to the last listed printing when none of the codes are known.
func oldestSet(printings []string, releases map[string]time.Time) string {
	if len(printings) == 0 {
		return ""
	}
	oldest := ""
	var oldestDate time.Time
	for _, code := range printings {
		release, ok := releases[code]
		if !ok {
			continue
		}
		if oldest == "" || release.Before(oldestDate) {
			oldest = code
			oldestDate = release
		}
	}
	if oldest == "" {
		return printings[len(printings)-1]
	}
	return oldest
}
