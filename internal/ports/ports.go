package ports

import (
	"context"
	"errors"

	"github.com/b08x/slide-align/internal/types"
)

// ErrUnavailable marks a transport or auth failure at the capability call
// layer. The orchestrator aborts the run on it; any other analysis error is
// isolated to the slide that hit it.
var ErrUnavailable = errors.New("capability unavailable")

// Vision describes one slide image as free-form text (OCR plus layout).
type Vision interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType, filename string) (string, error)
}

// Transcriber converts raw narration audio into canonical transcript lines.
// Output that fails to parse structurally yields an empty sequence, not an
// error: transcription is best effort.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) ([]types.TranscriptLine, error)
}

// Aligner maps transcript lines to slides via the external reasoning engine.
type Aligner interface {
	Align(ctx context.Context, prompt string) (types.AlignmentResult, error)
}
