package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^\\s*```(?:json|JSON)?")
	trailingFence = regexp.MustCompile("```\\s*$")
)

// extractJSONObject isolates the JSON object in a model reply, dropping a
// surrounding markdown code fence and prose. Fences inside the object are kept.
func extractJSONObject(reply string) (string, error) {
	content := leadingFence.ReplaceAllString(reply, "")
	content = trailingFence.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in model reply")
	}

	return content[start : end+1], nil
}
