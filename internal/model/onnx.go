package model

import (
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX-backed component regressors cover the standard sklearn deployment
// path: a model fitted in Python is exported with skl2onnx and served here
// through the onnxruntime C library. The built-in artifacts use pure-Go
// kinds, so nothing requires the native runtime unless an artifact opts in.

// Default tensor names produced by skl2onnx for regressors.
const (
	defaultONNXInput  = "float_input"
	defaultONNXOutput = "variable"
)

var (
	onnxInitOnce sync.Once
	onnxInitErr  error
	onnxLibPath  string
	onnxLibMu    sync.Mutex
)

// SetONNXLibraryPath points the runtime at the onnxruntime shared library.
// Must be called before the first onnx artifact loads; later calls are
// ignored. Falls back to the ONNXRUNTIME_SHARED_LIBRARY_PATH environment
// variable.
func SetONNXLibraryPath(path string) {
	onnxLibMu.Lock()
	defer onnxLibMu.Unlock()
	if onnxLibPath == "" {
		onnxLibPath = strings.TrimSpace(path)
	}
}

func initONNX() error {
	onnxInitOnce.Do(func() {
		onnxLibMu.Lock()
		path := onnxLibPath
		onnxLibMu.Unlock()
		if path == "" {
			path = strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"))
		}
		if path != "" {
			ort.SetSharedLibraryPath(path)
		}
		onnxInitErr = ort.InitializeEnvironment()
	})
	return onnxInitErr
}

// onnxRegressor runs one exported model through a shared dynamic session.
// Sessions are thread-safe for concurrent Run calls; tensors are created
// per call.
type onnxRegressor struct {
	session *ort.DynamicAdvancedSession
	dims    int
}

func newONNXRegressor(path, input, output string, dims int) (*onnxRegressor, error) {
	if err := initONNX(); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}
	if input == "" {
		input = defaultONNXInput
	}
	if output == "" {
		output = defaultONNXOutput
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{input}, []string{output}, nil)
	if err != nil {
		return nil, fmt.Errorf("opening onnx session %s: %w", path, err)
	}
	return &onnxRegressor{session: session, dims: dims}, nil
}

func (m *onnxRegressor) Predict(x []float64) (float64, error) {
	if len(x) != m.dims {
		return 0, fmt.Errorf("onnx model expects %d features, got %d", m.dims, len(x))
	}
	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}
	in, err := ort.NewTensor(ort.NewShape(1, int64(len(x))), data)
	if err != nil {
		return 0, fmt.Errorf("building input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{in}, outputs); err != nil {
		return 0, fmt.Errorf("running onnx session: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("onnx output is not a float32 tensor")
	}
	defer out.Destroy()

	values := out.GetData()
	if len(values) == 0 {
		return 0, fmt.Errorf("onnx output tensor is empty")
	}
	return float64(values[0]), nil
}
