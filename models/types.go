package models

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"

	UnknownObject = "unknown"
)

type DetectionCandidate struct {
	Label      string
	Confidence float64
}

// DetectionSet keeps the detector's output order.
type DetectionSet []DetectionCandidate

// Prediction is the raw detector output: parallel score and phrase sequences.
type Prediction struct {
	Scores  []float64
	Phrases []string
}

type Thresholds struct {
	Box  float64
	Text float64
}

type TopDetection struct {
	ObjectName string
	Confidence float64
}

type ClassificationRecord struct {
	BotID          int64  `json:"bot_id"`
	ImageID        string `json:"image_id"`
	Classification string `json:"classification"`
}

type RelayAck struct {
	Acknowledged bool
	StatusCode   int
	Body         string
}

type RequestResult struct {
	Status          string  `json:"status"`
	ObjectName      string  `json:"object_name"`
	Confidence      float64 `json:"confidence"`
	InferenceTimeMs float64 `json:"inference_time_ms"`
	NumDetections   int     `json:"num_detections"`
	ImageFilename   string  `json:"image_filename"`
	PromptUsed      string  `json:"prompt_used"`
}

type ErrorResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ProcessingTimings struct {
	RequestID      string
	Received       time.Time
	ImageDecode    time.Duration
	DetectionStart time.Time
	DetectionEnd   time.Time
	Detection      time.Duration
	RelayStart     time.Time
	RelayEnd       time.Time
	Relay          time.Duration
}
