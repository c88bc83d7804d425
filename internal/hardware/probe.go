package hardware

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/opencivics/civicassist/internal/utils/safeexec"
)

// Device identifies the compute target for model execution
type Device int

const (
	// DeviceCPU is general-purpose CPU execution, always available
	DeviceCPU Device = iota
	// DeviceCUDA is an NVIDIA GPU reachable through the CUDA runtime
	DeviceCUDA
)

// String returns the device name used in logs and session options
func (d Device) String() string {
	switch d {
	case DeviceCUDA:
		return "cuda"
	default:
		return "cpu"
	}
}

// Accelerated reports whether the device has parallel matrix-multiply hardware
func (d Device) Accelerated() bool {
	return d == DeviceCUDA
}

const defaultMeminfoPath = "/proc/meminfo"

// Probe detects the accelerator and memory situation of the host.
// Detection runs once and is cached; every probe failure degrades to
// the CPU device or a zero memory reading, never an error.
type Probe struct {
	mu       sync.RWMutex
	detected bool
	device   Device

	// injectable for tests
	meminfoPath string
	runCommand  func(name string, arg ...string) ([]byte, error)
}

// NewProbe creates a hardware probe with system defaults
func NewProbe() *Probe {
	return &Probe{
		meminfoPath: defaultMeminfoPath,
		runCommand: func(name string, arg ...string) ([]byte, error) {
			return safeexec.Command(name, arg...).Output()
		},
	}
}

// DetectDevice returns the device model execution should target.
// The first call probes the system; later calls return the cached result.
func (p *Probe) DetectDevice() Device {
	p.mu.RLock()
	if p.detected {
		defer p.mu.RUnlock()
		return p.device
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detected {
		return p.device
	}

	p.device = DeviceCPU
	if p.hasCUDA() {
		p.device = DeviceCUDA
	}
	p.detected = true
	return p.device
}

// hasCUDA checks for a usable NVIDIA GPU by asking nvidia-smi.
// Any failure (binary missing, driver broken, empty output) means no CUDA.
func (p *Probe) hasCUDA() bool {
	if _, err := safeexec.LookPath("nvidia-smi"); err != nil {
		return false
	}
	out, err := p.runCommand("nvidia-smi", "--list-gpus")
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "GPU")
}

// TotalRAMMB reports total system memory in MiB, 0 when unknown
func (p *Probe) TotalRAMMB() uint64 {
	return p.memField("MemTotal")
}

// AvailableRAMMB reports available system memory in MiB, 0 when unknown
func (p *Probe) AvailableRAMMB() uint64 {
	return p.memField("MemAvailable")
}

// memField reads one field from /proc/meminfo. On non-Linux hosts the
// file is absent and the reading is 0; callers treat 0 as unknown.
func (p *Probe) memField(field string) uint64 {
	data, err := os.ReadFile(p.meminfoPath)
	if err != nil {
		return p.memFieldFallback(field)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, field+":") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}

// memFieldFallback covers hosts without /proc/meminfo (darwin) via sysctl
func (p *Probe) memFieldFallback(field string) uint64 {
	if field != "MemTotal" {
		return 0
	}
	out, err := p.runCommand("sysctl", "-n", "hw.memsize")
	if err != nil {
		return 0
	}
	b, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}
	return b / (1024 * 1024)
}
