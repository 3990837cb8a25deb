//go:build windows

package restore

import "github.com/yonasBSD/conserve/pkg/index"

// applyChown is a no-op on Windows; there is no POSIX uid/gid to restore.
func applyChown(path string, e index.Entry) {}
