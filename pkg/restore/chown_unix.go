//go:build !windows

package restore

import (
	"os"

	"github.com/yonasBSD/conserve/pkg/index"
)

// applyChown applies e's archived uid/gid to path, if both are known.
// Failure (typically EPERM when not running as root) is swallowed: owner
// restoration is best-effort, never fatal to the overall restore.
func applyChown(path string, e index.Entry) {
	if e.OwnerUID == nil || e.OwnerGID == nil {
		return
	}
	_ = os.Lchown(path, int(*e.OwnerUID), int(*e.OwnerGID))
}
