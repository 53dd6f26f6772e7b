// Package align builds the textual payload sent to the alignment engine and
// decodes the structured response it returns.
package align

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/b08x/slide-align/internal/timecode"
	"github.com/b08x/slide-align/internal/types"
)

// DefaultTranscriptBudget caps the serialized transcript size in characters.
const DefaultTranscriptBudget = 60000

// TruncationMarker tells the engine its input was cut; it must never be
// dropped silently.
const TruncationMarker = "[TRANSCRIPT TRUNCATED]"

// BuildRequest serializes the transcript and slide set into the prompt body
// for one alignment call. A budget <= 0 falls back to the default.
func BuildRequest(lines []types.TranscriptLine, slideSet []*types.SlideRecord, budget int) string {
	if budget <= 0 {
		budget = DefaultTranscriptBudget
	}

	var tb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&tb, "[%s - %s] %s: %s\n",
			timecode.Format(l.Start), timecode.Format(l.End), l.Speaker, l.Text)
	}
	transcript := tb.String()
	if len(transcript) > budget {
		// Back off to a rune boundary so the cut never leaves an invalid
		// UTF-8 tail in front of the marker.
		cut := budget
		for cut > 0 && !utf8.RuneStart(transcript[cut]) {
			cut--
		}
		transcript = transcript[:cut] + "\n" + TruncationMarker + "\n"
	}

	var sb strings.Builder
	for _, s := range slideSet {
		fmt.Fprintf(&sb, "### %s (captured: %s)\n%s\n\n",
			s.Filename, timecode.FormatOptional(s.InferredTime), s.Analysis)
	}

	var b strings.Builder
	b.WriteString("You align a presentation's slides with its narration.\n")
	b.WriteString("Given the transcript and the per-slide analyses below, produce a JSON object with:\n")
	b.WriteString(`- "topics": [{"id", "title", "description", "keywords": []}]` + "\n")
	b.WriteString(`- "timeline": [{"slide": filename, "speaker_note", "aligned_segments": [{"timestamp", "text"}], "broll": [], "topics": [topic ids]}]` + "\n")
	b.WriteString("The timeline is chronological; a slide may appear more than once if the narration returns to it.\n")
	b.WriteString("Return strictly valid JSON, no markdown fences.\n\n")
	b.WriteString("## Transcript\n")
	b.WriteString(transcript)
	b.WriteString("\n## Slides\n")
	b.WriteString(sb.String())
	return b.String()
}
