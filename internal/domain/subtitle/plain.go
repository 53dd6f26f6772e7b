package subtitle

import (
	"io"
	"strings"

	"github.com/b08x/slide-align/internal/types"
)

// PlainText turns blank-line-delimited paragraphs into untimed lines. Start
// and end stay zero on purpose: downstream alignment works from the text
// alone in this mode.
type PlainText struct{}

func (PlainText) Parse(r io.Reader) ([]types.TranscriptLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out []types.TranscriptLine
	for _, block := range splitBlocks(string(raw)) {
		text := strings.TrimSpace(strings.Join(block, " "))
		if text == "" {
			continue
		}
		out = append(out, types.TranscriptLine{
			Speaker: unknownSpeaker,
			Text:    text,
		})
	}
	return out, nil
}
