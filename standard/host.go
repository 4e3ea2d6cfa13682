package standard

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pbnjay/memory"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/group"
)

// BatteryState mirrors the usual mobile battery states.
type BatteryState int

const (
	BatteryUnknown BatteryState = iota
	BatteryUnplugged
	BatteryCharging
	BatteryFull
)

// BatteryStates describes BatteryState values.
var BatteryStates = attribute.EnumTable{
	int(BatteryUnknown):   "Unknown",
	int(BatteryUnplugged): "Unplugged",
	int(BatteryCharging):  "Charging",
	int(BatteryFull):      "Full",
}

// EnumTable implements attribute.EnumDescriber.
func (BatteryState) EnumTable() attribute.EnumTable { return BatteryStates }

// Host describes the machine the process runs on. Every fact is read at
// resolution time.
type Host struct {
	sysRoot     string
	storagePath string

	// Battery facts are reported only while monitoring is enabled:
	// level -1 and state unknown otherwise.
	batteryMonitoring atomic.Bool
}

// NewHost creates a Host reading power supply facts below sysRoot
// (normally "/sys") and measuring the filesystem holding storagePath.
func NewHost(sysRoot, storagePath string) *Host {
	h := &Host{sysRoot: sysRoot, storagePath: storagePath}
	h.batteryMonitoring.Store(true)
	return h
}

func (h *Host) BatteryMonitoringEnabled() bool      { return h.batteryMonitoring.Load() }
func (h *Host) SetBatteryMonitoringEnabled(on bool) { h.batteryMonitoring.Store(on) }

// Name returns the host name.
func (h *Host) Name() (string, error) { return os.Hostname() }

// Model returns the machine architecture.
func (h *Host) Model() string { return runtime.GOARCH }

// SystemName returns the operating system name.
func (h *Host) SystemName() string { return runtime.GOOS }

// CPUs returns the number of logical CPUs.
func (h *Host) CPUs() int { return runtime.NumCPU() }

// TotalMemory returns physical memory in bytes.
func (h *Host) TotalMemory() int64 { return int64(memory.TotalMemory()) }

// UsedStorage returns total minus available bytes.
func (h *Host) UsedStorage() (int64, error) {
	total, err := h.TotalStorage()
	if err != nil {
		return 0, err
	}
	avail, err := h.AvailableStorage()
	if err != nil {
		return 0, err
	}
	return total - avail, nil
}

// BatteryLevel returns the charge in 0..1, or -1 when monitoring is off.
func (h *Host) BatteryLevel() (float64, error) {
	if !h.BatteryMonitoringEnabled() {
		return -1, nil
	}
	dir, err := h.supply("Battery")
	if err != nil {
		return 0, err
	}
	pct, err := readInt(filepath.Join(dir, "capacity"))
	if err != nil {
		return 0, err
	}
	return float64(pct) / 100, nil
}

// BatteryState maps the kernel's status string.
func (h *Host) BatteryState() BatteryState {
	if !h.BatteryMonitoringEnabled() {
		return BatteryUnknown
	}
	dir, err := h.supply("Battery")
	if err != nil {
		return BatteryUnknown
	}
	status, err := readString(filepath.Join(dir, "status"))
	if err != nil {
		return BatteryUnknown
	}
	switch status {
	case "Charging":
		return BatteryCharging
	case "Full":
		return BatteryFull
	case "Discharging", "Not charging":
		return BatteryUnplugged
	default:
		return BatteryUnknown
	}
}

// BatteryPresent reports whether a battery supply exists.
func (h *Host) BatteryPresent() bool {
	_, err := h.supply("Battery")
	return err == nil
}

// ACOnline reports whether mains power is connected.
func (h *Host) ACOnline() bool {
	dir, err := h.supply("Mains")
	if err != nil {
		return false
	}
	online, err := readInt(filepath.Join(dir, "online"))
	return err == nil && online == 1
}

// PrepareInspection contributes the host's facts.
func (h *Host) PrepareInspection(c *coordinator.Coordinator) {
	c.AppendDynamic(group.States,
		attribute.Prop("batteryMonitoringEnabled", attribute.BoolOf(h.BatteryMonitoringEnabled)).
			Writable(func(v attribute.Value) error {
				on, ok := v.AsBool()
				if !ok {
					return errors.Newf(errors.ErrCoercion, "expected bool, got %s", v.Kind())
				}
				h.SetBatteryMonitoringEnabled(on)
				return nil
			}),
		attribute.Prop("batteryPresent", attribute.BoolOf(h.BatteryPresent)),
		attribute.Prop("acOnline", attribute.BoolOf(h.ACOnline)).Titled("AC Online"),
	)

	c.AppendEnum(group.General, BatteryStates,
		attribute.Prop("batteryState", attribute.IntOf(h.BatteryState)))

	c.AppendDynamic(group.General,
		attribute.Prop("batteryLevel", attribute.Fallible(h.BatteryLevel, attribute.Float)))

	c.AppendTransformed(group.General, attribute.MemoryBytes,
		attribute.Prop("totalMemory", attribute.IntOf(h.TotalMemory)))

	c.AppendTransformed(group.General, attribute.FileBytes,
		attribute.Prop("totalStorage", attribute.Fallible(h.TotalStorage, attribute.Int)),
		attribute.Prop("usedStorage", attribute.Fallible(h.UsedStorage, attribute.Int)),
		attribute.Prop("availableStorage", attribute.Fallible(h.AvailableStorage, attribute.Int)),
	)

	c.AppendDynamic(group.General,
		attribute.Prop("name", attribute.Fallible(h.Name, attribute.String)),
		attribute.Prop("model", attribute.StringOf(h.Model)),
		attribute.Prop("systemName", attribute.StringOf(h.SystemName)),
		attribute.Prop("systemVersion", attribute.Fallible(h.SystemVersion, attribute.String)),
		attribute.Prop("cpus", attribute.IntOf(h.CPUs)).Titled("CPUs"),
	)
}

// supply returns the first power supply directory of the given type.
func (h *Host) supply(kind string) (string, error) {
	base := filepath.Join(h.sysRoot, "class", "power_supply")
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrNotFound, "reading %s", base)
	}
	for _, e := range entries {
		dir := filepath.Join(base, e.Name())
		if t, err := readString(filepath.Join(dir, "type")); err == nil && t == kind {
			return dir, nil
		}
	}
	return "", errors.Newf(errors.ErrNotFound, "no %s power supply", kind)
}

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readInt(path string) (int, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
