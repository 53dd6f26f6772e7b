// Package subtitle reduces the supported timed-text formats to the canonical
// TranscriptLine sequence. Parsers never fail a whole file for one bad cue:
// malformed lines are dropped and only the read of the source itself can
// surface an error.
package subtitle

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/b08x/slide-align/internal/types"
)

type Parser interface {
	Parse(r io.Reader) ([]types.TranscriptLine, error)
}

// ForFile picks a parser by file extension.
func ForFile(name string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ass":
		return ASS{}, nil
	case ".srt":
		return SRT{}, nil
	case ".vtt":
		return VTT{}, nil
	case ".txt", ".md":
		return PlainText{}, nil
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", filepath.Ext(name))
	}
}

const unknownSpeaker = "Unknown"

var markupTagRE = regexp.MustCompile(`<[^>]+>`)

func stripMarkup(s string) string {
	return strings.TrimSpace(markupTagRE.ReplaceAllString(s, ""))
}

// splitBlocks cuts a cue file into blank-line-delimited blocks, tolerating
// CRLF line endings and stray whitespace on separator lines.
func splitBlocks(raw string) [][]string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var blocks [][]string
	var cur []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
