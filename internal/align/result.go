package align

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/b08x/slide-align/internal/types"
)

// DecodeResult parses the alignment engine's response. Models sometimes wrap
// the object in markdown fences or prose, so the first JSON object is
// extracted before decoding. A response carrying neither topics nor timeline
// is malformed; this failure is fatal for the run.
func DecodeResult(raw string) (types.AlignmentResult, error) {
	clean, err := extractJSONObject(raw)
	if err != nil {
		return types.AlignmentResult{}, err
	}

	var res types.AlignmentResult
	if err := json.Unmarshal([]byte(clean), &res); err != nil {
		return types.AlignmentResult{}, fmt.Errorf("alignment response: %w", err)
	}
	if len(res.Topics) == 0 && len(res.Timeline) == 0 {
		return types.AlignmentResult{}, errors.New("alignment response: no topics or timeline")
	}
	return res, nil
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("alignment response: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("alignment response: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
