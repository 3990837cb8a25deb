package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/band"
	"github.com/yonasBSD/conserve/pkg/config"
	"github.com/yonasBSD/conserve/pkg/restore"
)

// defaultPresenceCacheSize bounds the in-memory LRU of recently-seen block
// hashes consulted during backup dedup checks.
const defaultPresenceCacheSize = 1 << 16

// loadConfig loads and validates the active configuration, pointing the
// user at `conserve init` when none is found.
func loadConfig() (*config.Config, error) {
	return config.MustLoad(GetConfigFile())
}

// openArchive loads configuration, builds the configured transport, and
// opens the archive it points at.
func openArchive(ctx context.Context) (*archive.Archive, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	tr, err := config.NewArchiveTransport(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := archive.Open(ctx, tr, defaultPresenceCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive at %s: %w", cfg.Archive.Path, err)
	}

	return a, cfg, nil
}

// createArchive loads configuration, builds the configured transport, and
// creates a new archive there.
func createArchive(ctx context.Context) (*archive.Archive, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	tr, err := config.NewArchiveTransport(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := archive.Create(ctx, tr, defaultPresenceCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive at %s: %w", cfg.Archive.Path, err)
	}

	return a, cfg, nil
}

// openOrCreateArchive opens the configured archive, creating it first if
// this is the first backup run against a fresh location.
func openOrCreateArchive(ctx context.Context) (*archive.Archive, *config.Config, error) {
	a, cfg, err := openArchive(ctx)
	if err == nil {
		return a, cfg, nil
	}
	if !errors.Is(err, archiveerror.ErrNotFound) {
		return nil, nil, err
	}
	return createArchive(ctx)
}

// parseBandSelector turns a --band flag value into a restore.Band selector.
// An empty string selects the latest complete band.
func parseBandSelector(s string) (restore.Band, error) {
	if s == "" {
		return restore.Band{}, nil
	}
	id, err := band.Parse(s)
	if err != nil {
		return restore.Band{}, fmt.Errorf("invalid --band %q: %w", s, err)
	}
	return restore.Band{ID: id, Explicit: true}, nil
}

// resolveListBand resolves a band selector to a concrete ID, defaulting to
// the archive's latest complete band.
func resolveListBand(ctx context.Context, a *archive.Archive, sel restore.Band) (band.ID, error) {
	if sel.Explicit {
		return sel.ID, nil
	}
	b, ok, err := a.LatestComplete(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("archive has no complete band")
	}
	return b.ID, nil
}
