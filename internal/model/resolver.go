package model

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/internal/ml"
)

// LoadFunc opens a tokenizer and decoder session from a model
// directory. Injectable so resolution logic is testable without
// weights on disk.
type LoadFunc func(dir string, device hardware.Device, quantized bool, threads int) (interfaces.TextTokenizer, interfaces.LogitsModel, error)

// Resolver probes the hardware and loads the first usable model:
// the preferred model at the device-appropriate precision, then the
// fallback model at full precision, then nothing. It never fails;
// the worst outcome is the absent state.
type Resolver struct {
	models config.Models
	prober interfaces.HardwareProber
	load   LoadFunc
}

// NewResolver creates a resolver over the configured model chain.
func NewResolver(models config.Models, prober interfaces.HardwareProber) *Resolver {
	return &Resolver{
		models: models,
		prober: prober,
		load:   loadFromDisk,
	}
}

// Initialize resolves the runtime state. Accelerated hosts get the
// preferred model's quantized weights when quantization is enabled;
// CPU hosts always load full precision. The fallback model is tried
// exactly once, after which the absent state is returned.
func (r *Resolver) Initialize() State {
	device := r.prober.DetectDevice()
	quantized := r.models.Quantized && device.Accelerated()

	state, err := r.tryLoad(r.models.PreferredID, device, quantized)
	if err == nil {
		log.Printf("Loaded model %s (device=%s quantized=%t)", state.ModelID, device, quantized)
		return state
	}
	log.Printf("Warning: failed to load %s: %v", r.models.PreferredID, err)

	if r.models.FallbackID == "" || r.models.FallbackID == r.models.PreferredID {
		log.Printf("Warning: no distinct fallback model configured, continuing without a model")
		return Absent(device)
	}

	state, err = r.tryLoad(r.models.FallbackID, device, false)
	if err == nil {
		state.Fallback = true
		log.Printf("Loaded fallback model %s (device=%s)", state.ModelID, device)
		return state
	}
	log.Printf("Warning: failed to load fallback %s: %v", r.models.FallbackID, err)

	return Absent(device)
}

func (r *Resolver) tryLoad(id string, device hardware.Device, quantized bool) (State, error) {
	if id == "" {
		return State{}, fmt.Errorf("no model configured")
	}

	dir := ModelDir(r.models.Dir, id)
	tokenizer, session, err := r.load(dir, device, quantized, r.models.Threads)
	if err != nil {
		return State{}, err
	}
	return State{
		Tokenizer: tokenizer,
		Model:     session,
		Device:    device,
		ModelID:   id,
		Quantized: quantized,
	}, nil
}

func loadFromDisk(dir string, device hardware.Device, quantized bool, threads int) (interfaces.TextTokenizer, interfaces.LogitsModel, error) {
	weights := filepath.Join(dir, WeightsFile(quantized))
	if _, err := os.Stat(weights); err != nil {
		return nil, nil, fmt.Errorf("model weights not found: %w", err)
	}

	tokenizer, err := ml.NewTokenizer(dir)
	if err != nil {
		return nil, nil, err
	}

	session, err := ml.NewCausalSession(ml.SessionConfig{
		ModelPath: weights,
		Device:    device,
		Threads:   threads,
	})
	if err != nil {
		return nil, nil, err
	}
	return tokenizer, session, nil
}

var _ interfaces.HardwareProber = (*hardware.Probe)(nil)
