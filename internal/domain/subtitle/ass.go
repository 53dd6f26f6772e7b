package subtitle

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/b08x/slide-align/internal/timecode"
	"github.com/b08x/slide-align/internal/types"
)

// ASS parses Advanced SubStation Alpha event sections. The column layout is
// declared per file by a Format: line, so the parser builds a name-to-index
// map once and decodes every following Dialogue: line against it.
type ASS struct{}

var overrideTagRE = regexp.MustCompile(`\{[^}]*\}`)

// classic 9-field layout used when a file never declares Format:
// Marked, Start, End, Style, Name, MarginL, MarginR, MarginV, Text
const (
	classicFields     = 9
	classicStartIdx   = 1
	classicEndIdx     = 2
	classicSpeakerIdx = 4
)

func (ASS) Parse(r io.Reader) ([]types.TranscriptLine, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []types.TranscriptLine
	inEvents := false
	var cols map[string]int

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "["):
			inEvents = lower == "[events]"
		case !inEvents:
			// Script info, styles and attachments carry no dialogue.
		case strings.HasPrefix(lower, "format:"):
			cols = parseFormatLine(line[len("format:"):])
		case strings.HasPrefix(lower, "dialogue:"):
			if tl, ok := decodeDialogue(line[len("dialogue:"):], cols); ok {
				out = append(out, tl)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFormatLine(payload string) map[string]int {
	cols := make(map[string]int)
	for i, name := range strings.Split(payload, ",") {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func decodeDialogue(payload string, cols map[string]int) (types.TranscriptLine, bool) {
	parts := strings.Split(payload, ",")

	if len(cols) == 0 {
		return decodeClassic(parts)
	}

	// The Text field is last by convention and may itself contain commas, so
	// everything beyond the declared column count folds back into it.
	n := len(cols)
	if len(parts) < n {
		return types.TranscriptLine{}, false
	}
	if len(parts) > n {
		joined := strings.Join(parts[n-1:], ",")
		parts = append(parts[:n-1], joined)
	}

	startIdx, okStart := cols["start"]
	endIdx, okEnd := cols["end"]
	if !okStart || !okEnd || startIdx >= len(parts) || endIdx >= len(parts) {
		return types.TranscriptLine{}, false
	}

	speaker := unknownSpeaker
	spIdx, ok := cols["name"]
	if !ok {
		spIdx, ok = cols["actor"]
	}
	if !ok {
		spIdx = classicSpeakerIdx
	}
	if spIdx < len(parts) {
		if s := strings.TrimSpace(parts[spIdx]); s != "" {
			speaker = s
		}
	}

	textIdx, ok := cols["text"]
	if !ok {
		textIdx = len(parts) - 1
	}
	text := cleanASSText(parts[textIdx])
	if text == "" {
		return types.TranscriptLine{}, false
	}

	return types.TranscriptLine{
		Start:   timecode.Parse(parts[startIdx]),
		End:     timecode.Parse(parts[endIdx]),
		Speaker: speaker,
		Text:    text,
	}, true
}

func decodeClassic(parts []string) (types.TranscriptLine, bool) {
	if len(parts) < classicFields {
		return types.TranscriptLine{}, false
	}
	text := cleanASSText(strings.Join(parts[classicFields-1:], ","))
	if text == "" {
		return types.TranscriptLine{}, false
	}
	speaker := strings.TrimSpace(parts[classicSpeakerIdx])
	if speaker == "" {
		speaker = unknownSpeaker
	}
	return types.TranscriptLine{
		Start:   timecode.Parse(parts[classicStartIdx]),
		End:     timecode.Parse(parts[classicEndIdx]),
		Speaker: speaker,
		Text:    text,
	}, true
}

func cleanASSText(s string) string {
	s = overrideTagRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\N`, " ")
	s = strings.ReplaceAll(s, `\n`, " ")
	return strings.TrimSpace(s)
}
