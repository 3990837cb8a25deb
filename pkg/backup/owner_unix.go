//go:build !windows

package backup

import (
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/yonasBSD/conserve/pkg/index"
)

// applyOwner fills in the uid/gid and, where resolvable, the owner and
// group names from info's platform-specific Sys() value.
func applyOwner(info os.FileInfo, entry *index.Entry) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	uid, gid := stat.Uid, stat.Gid
	entry.OwnerUID = &uid
	entry.OwnerGID = &gid

	if u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
		entry.User = u.Username
	}
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
		entry.Group = g.Name
	}
}
