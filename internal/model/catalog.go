package model

import (
	"os"
	"path/filepath"
	"strings"
)

// File names inside a model directory, following the layout produced
// by ONNX export tooling.
const (
	VocabFile            = "vocab.json"
	MergesFile           = "merges.txt"
	FullWeightsFile      = "model.onnx"
	QuantizedWeightsFile = "model_quantized.onnx"
)

// quantizeRAMThresholdMB is the host memory below which quantized
// weights are worth recommending regardless of accelerator state.
const quantizeRAMThresholdMB = 12288

// Entry describes one model the resolver can try.
type Entry struct {
	ID  string
	Dir string
}

// SanitizeID converts a model identifier such as
// "ibm-granite/granite-3.0-3b-a800m-instruct" into a directory name.
func SanitizeID(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

// ModelDir returns the on-disk directory for a model identifier.
func ModelDir(baseDir, id string) string {
	return filepath.Join(baseDir, SanitizeID(id))
}

// WeightsFile returns the weights file name for the precision choice.
func WeightsFile(quantized bool) string {
	if quantized {
		return QuantizedWeightsFile
	}
	return FullWeightsFile
}

// RequiredFiles lists the files a model directory needs before the
// resolver will attempt a load at the given precision.
func RequiredFiles(quantized bool) []string {
	return []string{VocabFile, MergesFile, WeightsFile(quantized)}
}

// DiskSize sums the sizes of the model files present under dir.
// Missing files count as zero.
func DiskSize(dir string) int64 {
	var total int64
	for _, name := range []string{VocabFile, MergesFile, FullWeightsFile, QuantizedWeightsFile} {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
			total += info.Size()
		}
	}
	return total
}

// RecommendQuantized reports whether quantized weights are the better
// choice for a host with the given total memory.
func RecommendQuantized(totalRAMMB uint64) bool {
	return totalRAMMB > 0 && totalRAMMB < quantizeRAMThresholdMB
}
