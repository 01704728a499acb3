package detections

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

type runner interface {
	Run() error
	Destroy() error
}

type destroyer interface {
	Destroy() error
}

// ModelSession is one loaded model with its bound input and output tensors.
// A session serves one inference at a time.
type ModelSession struct {
	session runner
	input   []float32
	logits  []float32
	tensors []destroyer
}

type SessionConfig struct {
	ModelPath      string
	Width          int
	Height         int
	NumQueries     int
	NumPhrases     int
	IntraOpThreads int
}

func NewModelSession(cfg SessionConfig) (*ModelSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	threads := cfg.IntraOpThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if err := options.SetIntraOpNumThreads(threads); err != nil {
		return nil, fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("error setting inter-op threads: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.Height), int64(cfg.Width)))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	logitsTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NumQueries), int64(cfg.NumPhrases)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating logits tensor: %w", err)
	}

	boxesTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NumQueries), 4))
	if err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		return nil, fmt.Errorf("error creating boxes tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{InputName},
		[]string{LogitsName, BoxesName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{logitsTensor, boxesTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		boxesTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &ModelSession{
		session: session,
		input:   inputTensor.GetData(),
		logits:  logitsTensor.GetData(),
		tensors: []destroyer{inputTensor, logitsTensor, boxesTensor},
	}, nil
}

func (m *ModelSession) Run() error {
	return m.session.Run()
}

func (m *ModelSession) Destroy() {
	if m.session != nil {
		m.session.Destroy()
	}
	for _, t := range m.tensors {
		t.Destroy()
	}
}
