package detections

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/Tutortoise/grocery-detection-service/models"
)

var ErrPromptMismatch = errors.New("prompt does not match the exported model vocabulary")

type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

type DetectorConfig struct {
	Prompt     string
	Width      int
	Height     int
	NumQueries int
}

// Detector runs the exported open-vocabulary model. The prompt's phrases are
// baked into the model, so Detect only accepts the prompt it was built with.
type Detector struct {
	pool         *SessionPool
	preprocessor *Preprocessor
	phrases      []string
	numQueries   int
}

func NewDetector(pool *SessionPool, cfg DetectorConfig) *Detector {
	return &Detector{
		pool:         pool,
		preprocessor: NewPreprocessor(cfg.Width, cfg.Height),
		phrases:      ParsePrompt(cfg.Prompt),
		numQueries:   cfg.NumQueries,
	}
}

func (d *Detector) Phrases() []string {
	return slices.Clone(d.phrases)
}

func (d *Detector) Detect(ctx context.Context, img image.Image, prompt string, th models.Thresholds) (models.Prediction, error) {
	if !slices.Equal(ParsePrompt(prompt), d.phrases) {
		return models.Prediction{}, ErrPromptMismatch
	}

	session, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("acquire session: %w", err)
	}

	if err := d.preprocessor.Process(img, session.input); err != nil {
		d.pool.Release(session)
		return models.Prediction{}, &ProcessingError{Message: "prepare input buffer", Cause: err}
	}

	if err := session.Run(); err != nil {
		d.pool.Discard(session)
		return models.Prediction{}, &ProcessingError{Message: "model inference", Cause: err}
	}

	pred, err := decodePredictions(session.logits, d.numQueries, d.phrases, th)
	d.pool.Release(session)
	if err != nil {
		return models.Prediction{}, &ProcessingError{Message: "process predictions", Cause: err}
	}

	return pred, nil
}
