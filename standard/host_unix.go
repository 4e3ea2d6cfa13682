//go:build unix

package standard

import (
	"golang.org/x/sys/unix"

	"github.com/st-keller/inspection/errors"
)

// TotalStorage returns the size of the filesystem holding the storage path.
func (h *Host) TotalStorage() (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(h.storagePath, &st); err != nil {
		return 0, errors.Wrapf(err, errors.ErrNotFound, "statfs %s", h.storagePath)
	}
	return int64(st.Blocks) * int64(st.Bsize), nil
}

// AvailableStorage returns the bytes available to unprivileged users.
func (h *Host) AvailableStorage() (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(h.storagePath, &st); err != nil {
		return 0, errors.Wrapf(err, errors.ErrNotFound, "statfs %s", h.storagePath)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// SystemVersion returns the kernel release.
func (h *Host) SystemVersion() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(u.Release[:]), nil
}
