package detections

import (
	"fmt"
	"math"
	"strings"

	"github.com/Tutortoise/grocery-detection-service/models"
)

// decodePredictions turns the raw [queries x phrases] logits into parallel
// score and phrase sequences. A query is kept when its best phrase score
// exceeds the box threshold; its label is every phrase whose score exceeds
// the text threshold, in prompt order.
func decodePredictions(logits []float32, numQueries int, phrases []string, th models.Thresholds) (models.Prediction, error) {
	numPhrases := len(phrases)
	if numPhrases == 0 {
		return models.Prediction{}, fmt.Errorf("no phrases to decode")
	}
	if expected := numQueries * numPhrases; len(logits) != expected {
		return models.Prediction{}, fmt.Errorf("unexpected logits length: got %d, want %d", len(logits), expected)
	}

	var pred models.Prediction
	scores := make([]float64, numPhrases)

	for q := 0; q < numQueries; q++ {
		row := logits[q*numPhrases : (q+1)*numPhrases]

		best := 0.0
		for p, logit := range row {
			scores[p] = sigmoid(logit)
			best = math.Max(best, scores[p])
		}
		if best <= th.Box {
			continue
		}

		var matched []string
		for p, score := range scores {
			if score > th.Text {
				matched = append(matched, phrases[p])
			}
		}

		pred.Scores = append(pred.Scores, best)
		pred.Phrases = append(pred.Phrases, strings.Join(matched, " "))
	}

	return pred, nil
}

func sigmoid(x float32) float64 {
	return 1 / (1 + math.Exp(-float64(x)))
}
