//go:build !unix

package standard

import "github.com/st-keller/inspection/errors"

func (h *Host) TotalStorage() (int64, error) {
	return 0, errors.New(errors.ErrNotFound, "storage facts unavailable on this platform")
}

func (h *Host) AvailableStorage() (int64, error) {
	return 0, errors.New(errors.ErrNotFound, "storage facts unavailable on this platform")
}

func (h *Host) SystemVersion() (string, error) {
	return "", errors.New(errors.ErrNotFound, "system version unavailable on this platform")
}
