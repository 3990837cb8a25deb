// Package archive ties together the blockdir and the set of bands under a
// single on-disk root: the CONSERVE header, the shared "d/" blockdir, and
// band listing/selection.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/band"
	"github.com/yonasBSD/conserve/pkg/blockdir"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// FormatVersion is the archive format version this implementation writes
// and the maximum major version it accepts on read.
const FormatVersion = "1.0"

const headerFile = "CONSERVE"

// Header is the JSON document stored at the archive root, written exactly
// once at creation and never mutated.
type Header struct {
	ConserveArchiveVersion string `json:"conserve_archive_version"`
}

// Archive is the top-level handle: one shared blockdir plus zero or more
// bands, all rooted at a single Transport.
type Archive struct {
	tr        transport.Transport
	header    Header
	blockDir  *blockdir.BlockDir
}

// Create initializes a new, empty archive at tr: writes the CONSERVE
// header and creates the blockdir. tr must be empty; Create fails with
// AlreadyExists if a header is already present.
func Create(ctx context.Context, tr transport.Transport, presenceCacheSize int) (*Archive, error) {
	exists, err := tr.Exists(ctx, headerFile)
	if err != nil {
		return nil, fmt.Errorf("archive: checking for existing header: %w", err)
	}
	if exists {
		return nil, archiveerror.AlreadyExists("CreateArchive", headerFile)
	}

	header := Header{ConserveArchiveVersion: FormatVersion}
	data, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("archive: encoding header: %w", err)
	}
	if err := tr.Write(ctx, headerFile, data); err != nil {
		return nil, fmt.Errorf("archive: writing header: %w", err)
	}

	blockTr := tr.SubTransport("d")
	if err := blockTr.CreateDir(ctx, ""); err != nil {
		return nil, fmt.Errorf("archive: creating blockdir: %w", err)
	}
	bd, err := blockdir.New(blockTr, presenceCacheSize)
	if err != nil {
		return nil, err
	}

	return &Archive{tr: tr, header: header, blockDir: bd}, nil
}

// Open opens an existing archive at tr, validating its header's format
// version.
func Open(ctx context.Context, tr transport.Transport, presenceCacheSize int) (*Archive, error) {
	exists, err := tr.Exists(ctx, headerFile)
	if err != nil {
		return nil, fmt.Errorf("archive: checking header: %w", err)
	}
	if !exists {
		return nil, archiveerror.NotFound("OpenArchive", headerFile)
	}

	data, err := tr.Read(ctx, headerFile)
	if err != nil {
		return nil, fmt.Errorf("archive: reading header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, archiveerror.IndexCorrupt("OpenArchive", "", "", "CONSERVE header is not valid JSON: "+err.Error())
	}
	if majorOf(header.ConserveArchiveVersion) > majorOf(FormatVersion) {
		return nil, archiveerror.UnsupportedFormat("OpenArchive", header.ConserveArchiveVersion, FormatVersion)
	}

	blockTr := tr.SubTransport("d")
	bd, err := blockdir.New(blockTr, presenceCacheSize)
	if err != nil {
		return nil, err
	}

	return &Archive{tr: tr, header: header, blockDir: bd}, nil
}

func majorOf(version string) int {
	for i, c := range version {
		if c == '.' {
			n, _ := strconv.Atoi(version[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(version)
	return n
}

// BlockDir returns the archive's shared content-addressed block store.
func (a *Archive) BlockDir() *blockdir.BlockDir {
	return a.blockDir
}

// Transport returns the archive-root Transport.
func (a *Archive) Transport() transport.Transport {
	return a.tr
}

// Bands returns every band ID in the archive, ascending.
func (a *Archive) Bands(ctx context.Context) ([]band.ID, error) {
	return band.List(ctx, a.tr)
}

// OpenBand opens the band with the given ID for reading.
func (a *Archive) OpenBand(ctx context.Context, id band.ID) (*band.Band, error) {
	return band.Open(ctx, a.tr, id)
}

// CreateBand allocates and opens the next top-level band for writing.
func (a *Archive) CreateBand(ctx context.Context, hostname, source string) (*band.Band, error) {
	return band.CreateNext(ctx, a.tr, hostname, source)
}

// LatestComplete returns the newest band whose BANDTAIL exists, or ok=false
// if the archive has no complete bands.
func (a *Archive) LatestComplete(ctx context.Context) (b *band.Band, ok bool, err error) {
	ids, err := a.Bands(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		candidate, err := a.OpenBand(ctx, ids[i])
		if err != nil {
			return nil, false, err
		}
		complete, err := candidate.IsComplete(ctx)
		if err != nil {
			return nil, false, err
		}
		if complete {
			return candidate, true, nil
		}
	}
	return nil, false, nil
}

// Latest returns the newest band in the archive regardless of completeness,
// or ok=false if the archive has no bands at all.
func (a *Archive) Latest(ctx context.Context) (b *band.Band, ok bool, err error) {
	ids, err := a.Bands(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(ids) == 0 {
		return nil, false, nil
	}
	latest, err := a.OpenBand(ctx, ids[len(ids)-1])
	if err != nil {
		return nil, false, err
	}
	return latest, true, nil
}
