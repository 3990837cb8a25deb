package band

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// FormatVersion is the band format version this implementation writes and
// the maximum major version it accepts on read.
const FormatVersion = "1.0"

const (
	headFile = "BANDHEAD"
	tailFile = "BANDTAIL"
)

// Head is the JSON document written to BANDHEAD when a band is opened.
type Head struct {
	StartTime         time.Time `json:"start_time"`
	BandFormatVersion string    `json:"band_format_version"`
	Hostname          string    `json:"hostname,omitempty"`
	Source            string    `json:"source,omitempty"`
}

// Tail is the JSON document written to BANDTAIL when a band completes
// successfully. Its presence is the sole indicator of completeness.
type Tail struct {
	EndTime        time.Time `json:"end_time"`
	IndexHunkCount int       `json:"index_hunk_count"`
}

// Band is a single backup attempt: a directory holding BANDHEAD, index
// hunks, and (if complete) BANDTAIL.
type Band struct {
	ID ID

	archiveTr transport.Transport // rooted at the archive root
	bandTr    transport.Transport // rooted at this band's directory
	head      Head
}

// List returns the IDs of every band directory under the archive root, in
// ascending order.
func List(ctx context.Context, archiveTr transport.Transport) ([]ID, error) {
	_, dirs, err := archiveTr.ListDir(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("band: listing archive root: %w", err)
	}
	var ids []ID
	for _, d := range dirs {
		id, err := Parse(d)
		if err != nil {
			continue // not a band directory (e.g. "d" blockdir)
		}
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids, nil
}

// nextTopLevelID returns the next unused top-level band ID: max existing
// top-level band's first component + 1, or 0 if none exist.
func nextTopLevelID(ctx context.Context, archiveTr transport.Transport) (ID, error) {
	ids, err := List(ctx, archiveTr)
	if err != nil {
		return nil, err
	}
	max := -1
	for _, id := range ids {
		if len(id) == 1 && id[0] > max {
			max = id[0]
		}
	}
	return ID{max + 1}, nil
}

// CreateNext opens the next unused top-level band for writing: allocates
// an ID, creates its directory, and writes BANDHEAD.
func CreateNext(ctx context.Context, archiveTr transport.Transport, hostname, source string) (*Band, error) {
	id, err := nextTopLevelID(ctx, archiveTr)
	if err != nil {
		return nil, err
	}
	return create(ctx, archiveTr, id, hostname, source)
}

func create(ctx context.Context, archiveTr transport.Transport, id ID, hostname, source string) (*Band, error) {
	bandTr := archiveTr.SubTransport(id.String())
	if err := bandTr.CreateDir(ctx, ""); err != nil {
		return nil, fmt.Errorf("band: creating directory for %s: %w", id, err)
	}

	head := Head{
		StartTime:         time.Now().UTC(),
		BandFormatVersion: FormatVersion,
		Hostname:          hostname,
		Source:            source,
	}
	data, err := json.Marshal(head)
	if err != nil {
		return nil, fmt.Errorf("band: encoding BANDHEAD for %s: %w", id, err)
	}
	if err := bandTr.Write(ctx, headFile, data); err != nil {
		return nil, fmt.Errorf("band: writing BANDHEAD for %s: %w", id, err)
	}

	return &Band{ID: id, archiveTr: archiveTr, bandTr: bandTr, head: head}, nil
}

// Open opens an existing band for reading. BANDHEAD must exist; BANDTAIL
// is optional. A band_format_version whose major exceeds FormatVersion's
// major is rejected as UnsupportedFormat.
func Open(ctx context.Context, archiveTr transport.Transport, id ID) (*Band, error) {
	bandTr := archiveTr.SubTransport(id.String())

	exists, err := bandTr.Exists(ctx, headFile)
	if err != nil {
		return nil, fmt.Errorf("band: checking BANDHEAD for %s: %w", id, err)
	}
	if !exists {
		return nil, archiveerror.NotFound("OpenBand", id.String())
	}

	data, err := bandTr.Read(ctx, headFile)
	if err != nil {
		return nil, fmt.Errorf("band: reading BANDHEAD for %s: %w", id, err)
	}
	var head Head
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, archiveerror.IndexCorrupt("OpenBand", id.String(), "", "BANDHEAD is not valid JSON: "+err.Error())
	}

	if !formatSupported(head.BandFormatVersion) {
		return nil, archiveerror.UnsupportedFormat("OpenBand", head.BandFormatVersion, FormatVersion)
	}

	return &Band{ID: id, archiveTr: archiveTr, bandTr: bandTr, head: head}, nil
}

func formatSupported(found string) bool {
	foundMajor := majorOf(found)
	supportedMajor := majorOf(FormatVersion)
	return foundMajor <= supportedMajor
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

// Head returns the band's BANDHEAD contents.
func (b *Band) Head() Head {
	return b.head
}

// Transport returns the Transport rooted at this band's directory, for use
// by index.Writer / index.Reader.
func (b *Band) Transport() transport.Transport {
	return b.bandTr
}

// IsComplete reports whether this band's BANDTAIL exists.
func (b *Band) IsComplete(ctx context.Context) (bool, error) {
	exists, err := b.bandTr.Exists(ctx, tailFile)
	if err != nil {
		return false, fmt.Errorf("band: checking BANDTAIL for %s: %w", b.ID, err)
	}
	return exists, nil
}

// Tail reads and returns this band's BANDTAIL. It is an error to call this
// on an incomplete band; check IsComplete first.
func (b *Band) Tail(ctx context.Context) (Tail, error) {
	data, err := b.bandTr.Read(ctx, tailFile)
	if err != nil {
		return Tail{}, fmt.Errorf("band: reading BANDTAIL for %s: %w", b.ID, err)
	}
	var tail Tail
	if err := json.Unmarshal(data, &tail); err != nil {
		return Tail{}, archiveerror.IndexCorrupt("ReadBandTail", b.ID.String(), "", "BANDTAIL is not valid JSON: "+err.Error())
	}
	return tail, nil
}

// Close writes BANDTAIL, marking the band complete. Call this only after
// every index hunk has been durably written.
func (b *Band) Close(ctx context.Context, hunkCount int) error {
	tail := Tail{EndTime: time.Now().UTC(), IndexHunkCount: hunkCount}
	data, err := json.Marshal(tail)
	if err != nil {
		return fmt.Errorf("band: encoding BANDTAIL for %s: %w", b.ID, err)
	}
	if err := b.bandTr.Write(ctx, tailFile, data); err != nil {
		return fmt.Errorf("band: writing BANDTAIL for %s: %w", b.ID, err)
	}
	return nil
}
