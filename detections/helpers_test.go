package detections

import (
	"errors"
	"sync/atomic"
)

type fakeRunner struct {
	run       func() error
	destroyed atomic.Bool
}

func (f *fakeRunner) Run() error {
	if f.run != nil {
		return f.run()
	}
	return nil
}

func (f *fakeRunner) Destroy() error {
	f.destroyed.Store(true)
	return nil
}

func newFakeSession(inputLen, logitsLen int, run func(logits []float32) error) (*ModelSession, *fakeRunner) {
	s := &ModelSession{
		input:  make([]float32, inputLen),
		logits: make([]float32, logitsLen),
	}
	r := &fakeRunner{}
	if run != nil {
		r.run = func() error { return run(s.logits) }
	}
	s.session = r
	return s, r
}

func emptySessionFactory() SessionFactory {
	return func() (*ModelSession, error) {
		s, _ := newFakeSession(0, 0, nil)
		return s, nil
	}
}

var errFactory = errors.New("weights unreadable")
