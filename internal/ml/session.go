package ml

import (
	"fmt"
	"log"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/internal/interfaces"
)

// sharedLibraryEnv overrides the onnxruntime shared library location
// for hosts where it is not on the default loader path.
const sharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	runtimeMu    sync.Mutex
	runtimeUsers int
)

// acquireRuntime initializes the onnxruntime environment on first use.
// Sessions share one environment; the last Close tears it down.
func acquireRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeUsers == 0 && !ort.IsInitialized() {
		if path := os.Getenv(sharedLibraryEnv); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}
	runtimeUsers++
	return nil
}

func releaseRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeUsers == 0 {
		return
	}
	runtimeUsers--
	if runtimeUsers == 0 && ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}

// SessionConfig holds the settings for opening a decoder session.
type SessionConfig struct {
	ModelPath string
	Device    hardware.Device
	Threads   int
}

// CausalSession wraps an ONNX Runtime session for causal language
// models exported with the standard input_ids/attention_mask -> logits
// signature. Sequence length varies per call, so the session binds
// tensors at run time rather than at load time.
type CausalSession struct {
	session *ort.DynamicAdvancedSession

	mu     sync.Mutex
	closed bool
}

// NewCausalSession opens the model at cfg.ModelPath. When the device
// reports acceleration the CUDA execution provider is attempted first,
// with a silent fall back to CPU execution if it is unavailable.
func NewCausalSession(cfg SessionConfig) (*CausalSession, error) {
	if err := acquireRuntime(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		releaseRuntime()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			releaseRuntime()
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	if cfg.Device.Accelerated() {
		if err := appendCUDAProvider(options); err != nil {
			log.Printf("Warning: CUDA execution provider unavailable, using CPU: %v", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		options,
	)
	if err != nil {
		releaseRuntime()
		return nil, fmt.Errorf("failed to load model session: %w", err)
	}

	return &CausalSession{session: session}, nil
}

func appendCUDAProvider(options *ort.SessionOptions) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()

	if err := cudaOptions.Update(map[string]string{"device_id": "0"}); err != nil {
		return err
	}
	return options.AppendExecutionProviderCUDA(cudaOptions)
}

// NextLogits runs one decoder step over the full token sequence and
// returns the logits for the final position.
func (s *CausalSession) NextLogits(ids []int64) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty input sequence")
	}

	seqLen := int64(len(ids))
	inputTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	maskTensor, err := ort.NewTensor(ort.NewShape(1, seqLen), mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{inputTensor, maskTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected logits tensor type")
	}

	shape := logitsTensor.GetShape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("logits tensor has no shape")
	}
	vocabSize := int(shape[len(shape)-1])
	data := logitsTensor.GetData()
	if vocabSize <= 0 || len(data) < vocabSize {
		return nil, fmt.Errorf("logits tensor too small: %d values, vocab %d", len(data), vocabSize)
	}

	// The tensor is destroyed on return, so the final position is
	// copied out rather than sliced.
	last := make([]float32, vocabSize)
	copy(last, data[len(data)-vocabSize:])
	return last, nil
}

// Close releases the session and, when it is the last one open, the
// shared runtime environment. Safe to call more than once.
func (s *CausalSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	releaseRuntime()
	return nil
}

var _ interfaces.LogitsModel = (*CausalSession)(nil)
