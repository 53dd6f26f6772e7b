package subtitle

import (
	"io"
	"regexp"
	"strings"

	"github.com/b08x/slide-align/internal/types"
)

// VTT parses WebVTT cues. It shares the SRT block scan but drops the WEBVTT
// header and NOTE comments, discards cue settings after the end timestamp,
// and recovers a speaker from a voice span or a "Name:" text prefix.
type VTT struct{}

var (
	voiceSpanRE     = regexp.MustCompile(`^<v[.\s]+([^>]+)>\s*(.*)$`)
	speakerPrefixRE = regexp.MustCompile(`^([A-Za-z][A-Za-z .'\-]{0,40}):\s+(.*)$`)
)

func (VTT) Parse(r io.Reader) ([]types.TranscriptLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out []types.TranscriptLine
	for _, block := range splitBlocks(string(raw)) {
		block = dropVTTMarkers(block)
		if len(block) == 0 {
			continue
		}
		start, end, text, ok := decodeCueBlock(block, true)
		if !ok {
			continue
		}
		speaker, text := extractSpeaker(text)
		if text == "" {
			continue
		}
		out = append(out, types.TranscriptLine{
			Start:   start,
			End:     end,
			Speaker: speaker,
			Text:    text,
		})
	}
	return out, nil
}

func dropVTTMarkers(block []string) []string {
	out := block[:0:0]
	for i, line := range block {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(t, "NOTE") {
			// A NOTE opens a comment that runs to the end of its block.
			if i == 0 {
				return nil
			}
			break
		}
		out = append(out, line)
	}
	return out
}

// extractSpeaker pulls a speaker name out of cue text. Voice spans are
// matched before generic markup stripping would erase them.
func extractSpeaker(text string) (string, string) {
	if m := voiceSpanRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), stripMarkup(m[2])
	}
	text = stripMarkup(text)
	if m := speakerPrefixRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return unknownSpeaker, text
}
