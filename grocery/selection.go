package grocery

import (
	"github.com/Tutortoise/grocery-detection-service/models"
	"github.com/samber/lo"
)

// Candidates zips a detector prediction into a DetectionSet. Extra scores or
// phrases without a partner are dropped.
func Candidates(p models.Prediction) models.DetectionSet {
	n := min(len(p.Scores), len(p.Phrases))
	set := make(models.DetectionSet, 0, n)
	for i := 0; i < n; i++ {
		set = append(set, models.DetectionCandidate{
			Label:      p.Phrases[i],
			Confidence: p.Scores[i],
		})
	}
	return set
}

// PickTop returns the first candidate with maximal confidence, or "unknown"
// with zero confidence when the set is empty.
func PickTop(set models.DetectionSet) models.TopDetection {
	if len(set) == 0 {
		return models.TopDetection{ObjectName: models.UnknownObject, Confidence: 0}
	}

	top := lo.MaxBy(set, func(a, b models.DetectionCandidate) bool {
		return a.Confidence > b.Confidence
	})

	return models.TopDetection{ObjectName: top.Label, Confidence: top.Confidence}
}
