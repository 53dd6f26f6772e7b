package subtitle

import (
	"io"
	"strings"

	"github.com/b08x/slide-align/internal/timecode"
	"github.com/b08x/slide-align/internal/types"
)

// SRT parses SubRip blocks. The format carries no speaker information.
type SRT struct{}

func (SRT) Parse(r io.Reader) ([]types.TranscriptLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out []types.TranscriptLine
	for _, block := range splitBlocks(string(raw)) {
		start, end, text, ok := decodeCueBlock(block, false)
		if !ok {
			continue
		}
		text = stripMarkup(text)
		if text == "" {
			continue
		}
		out = append(out, types.TranscriptLine{
			Start:   start,
			End:     end,
			Speaker: unknownSpeaker,
			Text:    text,
		})
	}
	return out, nil
}

// decodeCueBlock locates the arrow line inside one block and returns the
// parsed window plus the joined raw text below it. Blocks with no arrow line
// or no text yield ok=false. Anything above the arrow line (the SRT sequence
// index, a VTT cue id) is ignored. stripSettings discards space-separated cue
// settings after the end time (the VTT convention).
func decodeCueBlock(block []string, stripSettings bool) (start, end float64, text string, ok bool) {
	arrow := -1
	for i, line := range block {
		if strings.Contains(line, "-->") {
			arrow = i
			break
		}
	}
	if arrow < 0 || arrow == len(block)-1 {
		return 0, 0, "", false
	}

	left, right, _ := strings.Cut(block[arrow], "-->")
	endField := strings.TrimSpace(right)
	if stripSettings {
		if fields := strings.Fields(endField); len(fields) > 0 {
			endField = fields[0]
		}
	}
	start = timecode.Parse(left)
	end = timecode.Parse(endField)

	text = strings.TrimSpace(strings.Join(block[arrow+1:], " "))
	if text == "" {
		return 0, 0, "", false
	}
	return start, end, text, true
}
