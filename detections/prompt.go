package detections

import (
	"strings"

	"github.com/samber/lo"
)

// ParsePrompt splits a "phrase . phrase ." prompt into its phrases.
func ParsePrompt(prompt string) []string {
	return lo.FilterMap(strings.Split(prompt, "."), func(part string, _ int) (string, bool) {
		phrase := strings.Join(strings.Fields(strings.ToLower(part)), " ")
		return phrase, phrase != ""
	})
}
