package grocery

import (
	"math"
	"time"

	"github.com/Tutortoise/grocery-detection-service/models"
)

// Assemble builds the caller-facing result. It never depends on the relay outcome.
func Assemble(top models.TopDetection, inference time.Duration, count int, filename, prompt string) models.RequestResult {
	return models.RequestResult{
		Status:          models.StatusSuccess,
		ObjectName:      top.ObjectName,
		Confidence:      round(top.Confidence, 3),
		InferenceTimeMs: round(float64(inference)/float64(time.Millisecond), 1),
		NumDetections:   count,
		ImageFilename:   filename,
		PromptUsed:      prompt,
	}
}

// Record derives the downstream payload for a selected detection.
func Record(botID int64, filename string, top models.TopDetection) models.ClassificationRecord {
	return models.ClassificationRecord{
		BotID:          botID,
		ImageID:        filename,
		Classification: top.ObjectName,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
