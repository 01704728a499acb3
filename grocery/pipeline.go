//go:generate go run go.uber.org/mock/mockgen -source=pipeline.go -destination=../mocks/mock_pipeline.go -package=mocks
package grocery

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/Tutortoise/grocery-detection-service/models"
	"go.uber.org/zap"
)

const DefaultRelayTimeout = 10 * time.Second

// Detector is the open-vocabulary detection capability. Implementations are
// shared by all requests and must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, img image.Image, prompt string, th models.Thresholds) (models.Prediction, error)
}

// Relayer forwards a classification to the ingestion service.
type Relayer interface {
	Submit(ctx context.Context, record models.ClassificationRecord) (*models.RelayAck, error)
}

type Settings struct {
	Prompt       string
	Thresholds   models.Thresholds
	BotID        int64
	RelayTimeout time.Duration
}

type Upload struct {
	RequestID string
	Filename  string
	Data      []byte
}

type Pipeline struct {
	detector Detector
	relay    Relayer
	settings Settings
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

func NewPipeline(detector Detector, relay Relayer, settings Settings, log *zap.Logger) *Pipeline {
	if settings.RelayTimeout <= 0 {
		settings.RelayTimeout = DefaultRelayTimeout
	}
	return &Pipeline{
		detector: detector,
		relay:    relay,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

func (p *Pipeline) Prompt() string {
	return p.settings.Prompt
}

// Process runs one upload through validation, detection and selection. The
// relay is dispatched once the result is final and cannot change it.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*models.RequestResult, error) {
	timings := &models.ProcessingTimings{RequestID: up.RequestID, Received: p.now()}
	log := p.log.With(
		zap.String("request_id", up.RequestID),
		zap.String("image_filename", up.Filename),
	)
	log.Info("image received",
		zap.Time("received_at", timings.Received),
		zap.Int("size", len(up.Data)))

	img, mime, err := DecodeImage(up.Data)
	timings.ImageDecode = p.now().Sub(timings.Received)
	if err != nil {
		log.Warn("image rejected", zap.String("mime", mime), zap.Error(err))
		return nil, err
	}

	timings.DetectionStart = p.now()
	pred, err := p.detector.Detect(ctx, img, p.settings.Prompt, p.settings.Thresholds)
	timings.DetectionEnd = p.now()
	timings.Detection = timings.DetectionEnd.Sub(timings.DetectionStart)
	if err != nil {
		log.Error("detection failed",
			zap.Float64("detection_duration_s", seconds(timings.Detection)),
			zap.Error(err))
		return nil, &DetectionError{Cause: err}
	}

	set := Candidates(pred)
	top := PickTop(set)
	log.Info("detection done",
		zap.Time("detected_at", timings.DetectionEnd),
		zap.String("object", top.ObjectName),
		zap.Float64("confidence", round(top.Confidence, 3)),
		zap.Int("num_detections", len(set)),
		zap.Float64("detection_duration_s", seconds(timings.Detection)),
		zap.Duration("decode", timings.ImageDecode))

	result := Assemble(top, timings.Detection, len(set), up.Filename, p.settings.Prompt)

	p.dispatch(Record(p.settings.BotID, up.Filename, top), timings, log)

	return &result, nil
}

// Drain stops dispatching new relays and waits for in-flight ones or for ctx
// to end. Results produced after Drain are still returned, without a relay.
func (p *Pipeline) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) dispatch(record models.ClassificationRecord, timings *models.ProcessingTimings, log *zap.Logger) {
	if p.relay == nil {
		return
	}

	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		log.Warn("relay skipped, pipeline draining", zap.String("image_id", record.ImageID))
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		defer func() {
			if rv := recover(); rv != nil {
				log.Error("relay panicked", zap.Any("panic", rv))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.settings.RelayTimeout)
		defer cancel()

		log.Debug("relay payload", zap.Any("payload", record))

		timings.RelayStart = p.now()
		ack, err := p.relay.Submit(ctx, record)
		timings.RelayEnd = p.now()
		timings.Relay = timings.RelayEnd.Sub(timings.RelayStart)

		switch {
		case err != nil:
			log.Warn("relay failed", zap.Error(err))
		case ack != nil && ack.Acknowledged:
			log.Info("relay acknowledged", zap.String("image_id", record.ImageID))
		default:
			fields := []zap.Field{zap.String("image_id", record.ImageID)}
			if ack != nil {
				fields = append(fields, zap.Int("status", ack.StatusCode), zap.String("response", ack.Body))
			}
			log.Info("relay delivered without success status", fields...)
		}

		log.Info("relay roundtrip",
			zap.Time("responded_at", timings.RelayEnd),
			zap.Bool("ok", err == nil),
			zap.Float64("relay_duration_s", seconds(timings.Relay)))
	}()
}

func seconds(d time.Duration) float64 {
	return round(d.Seconds(), 3)
}
