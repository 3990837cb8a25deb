// Package local implements transport.Transport over a directory on the
// local filesystem, using the write-to-temp-then-rename pattern for atomic
// writes.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/yonasBSD/conserve/internal/failpoint"
	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// DirMode and FileMode are the permission bits used when this transport
// creates new directories and files.
const (
	DirMode  = 0o755
	FileMode = 0o644
)

// Local is a transport.Transport rooted at a directory on the local
// filesystem.
type Local struct {
	root string
}

var _ transport.Transport = (*Local)(nil)

// New returns a Local transport rooted at root. root must already exist;
// callers that need to create it should call CreateDir(ctx, "/") first or
// use os.MkdirAll directly before constructing the transport.
func New(root string) *Local {
	return &Local{root: filepath.Clean(root)}
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// ListDir implements transport.Transport.
func (l *Local) ListDir(ctx context.Context, path string) (files, dirs []string, err error) {
	full := l.resolve(path)
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, archiveerror.NotFound("ListDir", path)
		}
		return nil, nil, archiveerror.IO("ListDir", path, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs, nil
}

// Read implements transport.Transport.
func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, archiveerror.NotFound("Read", path)
		}
		return nil, archiveerror.IO("Read", path, err)
	}
	return data, nil
}

// ReadRange implements transport.Transport.
func (l *Local) ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, archiveerror.NotFound("ReadRange", path)
		}
		return nil, archiveerror.IO("ReadRange", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, archiveerror.IO("ReadRange", path, err)
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, archiveerror.IO("ReadRange", path, err)
	}
	return buf[:n], nil
}

// Write implements transport.Transport using write-to-temp-then-rename so
// that partial writes are never observable. The temp file gets a random
// suffix (os.CreateTemp) rather than a fixed name: two goroutines storing
// the same content-addressed block race to write the same destination
// path, and a shared temp name would let one truncate or rename out from
// under the other.
func (l *Local) Write(ctx context.Context, path string, data []byte) error {
	full := l.resolve(path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return archiveerror.IO("Write", path, err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(full)+".tmp-*")
	if err != nil {
		return archiveerror.IO("Write", path, err)
	}
	tmp := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmp)
		return archiveerror.IO("Write", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmp)
		return archiveerror.IO("Write", path, err)
	}
	if err := os.Chmod(tmp, FileMode); err != nil {
		os.Remove(tmp)
		return archiveerror.IO("Write", path, err)
	}

	if err := failpoint.Hit(ctx, "before-rename-block"); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return archiveerror.IO("Write", path, err)
	}
	return nil
}

// CreateDir implements transport.Transport.
func (l *Local) CreateDir(ctx context.Context, path string) error {
	if err := os.MkdirAll(l.resolve(path), DirMode); err != nil {
		return archiveerror.IO("CreateDir", path, err)
	}
	return nil
}

// RemoveFile implements transport.Transport.
func (l *Local) RemoveFile(ctx context.Context, path string) error {
	if err := os.Remove(l.resolve(path)); err != nil && !os.IsNotExist(err) {
		return archiveerror.IO("RemoveFile", path, err)
	}
	return nil
}

// RemoveDirAll implements transport.Transport.
func (l *Local) RemoveDirAll(ctx context.Context, path string) error {
	if err := os.RemoveAll(l.resolve(path)); err != nil {
		return archiveerror.IO("RemoveDirAll", path, err)
	}
	return nil
}

// Exists implements transport.Transport.
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, archiveerror.IO("Exists", path, err)
}

// SubTransport implements transport.Transport.
func (l *Local) SubTransport(path string) transport.Transport {
	return &Local{root: l.resolve(path)}
}
