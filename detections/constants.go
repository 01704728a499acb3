package detections

import "time"

const (
	InputWidth      = 800
	InputHeight     = 800
	NumQueries      = 900
	DefaultPoolSize = 1

	AcquireTimeout    = 60 * time.Second
	HealthCheckPeriod = 60 * time.Second

	InputName  = "pixel_values"
	LogitsName = "logits"
	BoxesName  = "boxes"
)

// ImageNet normalization, matching the detector's training pipeline.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)
