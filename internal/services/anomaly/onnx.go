package anomaly

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXModel scores feature vectors with the exported isolation-forest
// model. The exported graph takes one float32 input of shape
// [batch, featureDim] and returns the decision-function scores.
type ONNXModel struct {
	mu         sync.Mutex // sessions are not safe for concurrent Run
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	featureDim int64
}

// LoadONNXModel loads the model file and creates an inference session.
// The ONNX Runtime shared library is expected alongside the model file.
func LoadONNXModel(modelPath string) (*ONNXModel, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: expected 1 input and at least 1 output, got %d/%d",
			len(inputs), len(outputs))
	}
	dims := inputs[0].Dimensions
	if len(dims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D input tensor, got %v", dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXModel{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		featureDim: dims[1],
	}, nil
}

// Score runs one inference call over a single feature vector.
func (m *ONNXModel) Score(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if int64(len(features)) != m.featureDim {
		return 0, fmt.Errorf("onnx: expected %d features, got %d", m.featureDim, len(features))
	}

	data := make([]float32, len(features))
	for i, f := range features {
		data[i] = float32(f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in, err := ort.NewTensor(ort.NewShape(1, m.featureDim), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}

	scores := out.GetData()
	if len(scores) == 0 {
		return 0, fmt.Errorf("onnx: empty output tensor")
	}
	return float64(scores[0]), nil
}

// Close releases the session resources.
func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}
