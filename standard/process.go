package standard

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/group"
)

// RuntimeType represents how the process is supervised.
type RuntimeType string

const (
	RuntimeSystemd    RuntimeType = "systemd"
	RuntimeDocker     RuntimeType = "docker"
	RuntimeStandalone RuntimeType = "standalone"
)

// Process holds facts about the running process. Identity facts are
// captured once by AutoDetect; the rest is read live.
type Process struct {
	PID        int
	BinaryPath string
	User       string
	UID        int
	GID        int
	Runtime    RuntimeType
	// DetectedAt is when AutoDetect ran, not when the OS started the
	// process. Uptime counts from it.
	DetectedAt time.Time
}

// AutoDetect captures the current process.
func AutoDetect() *Process {
	binaryPath, _ := os.Executable()
	if binaryPath != "" {
		if resolved, err := filepath.EvalSymlinks(binaryPath); err == nil {
			binaryPath = resolved
		}
	}

	p := &Process{
		PID:        os.Getpid(),
		BinaryPath: binaryPath,
		User:       "unknown",
		Runtime:    detectRuntime(),
		DetectedAt: time.Now().UTC(),
	}
	if u, err := user.Current(); err == nil {
		p.User = u.Username
		if uid, err := strconv.Atoi(u.Uid); err == nil {
			p.UID = uid
		}
		if gid, err := strconv.Atoi(u.Gid); err == nil {
			p.GID = gid
		}
	}
	return p
}

// Uptime returns the time since AutoDetect, truncated to seconds.
func (p *Process) Uptime() time.Duration {
	return time.Since(p.DetectedAt).Truncate(time.Second)
}

func heapAlloc() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.HeapAlloc)
}

// PrepareInspection contributes the process facts.
func (p *Process) PrepareInspection(c *coordinator.Coordinator) {
	c.AppendStatic("pid", "PID", "", attribute.Int(int64(p.PID)), group.General).
		AppendStatic("binaryPath", "Binary", "", attribute.String(p.BinaryPath), group.General).
		AppendStatic("user", "User", "", attribute.String(p.User), group.General).
		AppendStatic("uid", "UID", "", attribute.Int(int64(p.UID)), group.General).
		AppendStatic("gid", "GID", "", attribute.Int(int64(p.GID)), group.General).
		AppendStatic("runtime", "Runtime", "how the process is supervised", attribute.String(string(p.Runtime)), group.General).
		AppendStatic("detectedAt", "Detected At", "uptime counts from here", attribute.TimeValue(p.DetectedAt), group.General).
		AppendStatic("goVersion", "Go Version", "", attribute.String(runtime.Version()), group.General)

	c.AppendDynamic(group.States,
		attribute.Prop("goroutines", attribute.IntOf(runtime.NumGoroutine)),
		attribute.Prop("uptime", attribute.StringOf(func() string { return p.Uptime().String() })),
		attribute.Prop("workingDirectory", attribute.Fallible(os.Getwd, attribute.String)),
	)
	c.AppendTransformed(group.States, attribute.MemoryBytes,
		attribute.Prop("heapAlloc", attribute.IntOf(heapAlloc)).Titled("Heap"))
}

func detectRuntime() RuntimeType {
	if os.Getenv("INVOCATION_ID") != "" {
		return RuntimeSystemd
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return RuntimeDocker
	}
	if data, err := os.ReadFile("/proc/self/cgroup"); err == nil {
		cgroup := string(data)
		if strings.Contains(cgroup, "docker") || strings.Contains(cgroup, "containerd") {
			return RuntimeDocker
		}
	}
	if data, err := os.ReadFile("/proc/1/comm"); err == nil && strings.TrimSpace(string(data)) == "systemd" {
		return RuntimeSystemd
	}
	return RuntimeStandalone
}
