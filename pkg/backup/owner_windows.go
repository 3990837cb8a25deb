//go:build windows

package backup

import (
	"os"

	"github.com/yonasBSD/conserve/pkg/index"
)

// applyOwner is a no-op on Windows: Go's os.FileInfo carries no POSIX
// uid/gid there, and Conserve does not model ACLs.
func applyOwner(info os.FileInfo, entry *index.Entry) {}
