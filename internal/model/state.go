package model

import (
	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/internal/interfaces"
)

// State is the immutable outcome of model resolution. Callers receive
// it by value and never mutate it; the zero value is the absent state
// with no tokenizer, no session, and the CPU device.
type State struct {
	Tokenizer interfaces.TextTokenizer
	Model     interfaces.LogitsModel
	Device    hardware.Device
	ModelID   string
	Quantized bool
	Fallback  bool
}

// Loaded reports whether the state holds a usable tokenizer and model.
func (s State) Loaded() bool {
	return s.Tokenizer != nil && s.Model != nil
}

// Close releases the underlying session, if any.
func (s State) Close() error {
	if s.Model != nil {
		return s.Model.Close()
	}
	return nil
}

// Absent returns the empty state carrying only the detected device.
func Absent(device hardware.Device) State {
	return State{Device: device}
}
