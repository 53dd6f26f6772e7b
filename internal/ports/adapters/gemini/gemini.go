// Package gemini adapts the Google GenAI API to the pipeline's Vision,
// Transcriber and Aligner ports. A fresh client is created per call so the
// adapter can rotate API keys when one of them is rate limited.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/b08x/slide-align/internal/align"
	"github.com/b08x/slide-align/internal/logger"
	"github.com/b08x/slide-align/internal/ports"
	"github.com/b08x/slide-align/internal/types"
)

const visionPrompt = "Describe this presentation slide for alignment with a spoken narration. " +
	"Transcribe all visible text (titles, bullets, labels, code), then describe the layout, " +
	"diagrams and imagery. Be thorough but factual."

const transcribePrompt = "Transcribe this audio. Return strictly a JSON array of objects " +
	`{"start": seconds, "end": seconds, "speaker": string, "text": string}, ` +
	"in chronological order, with no markdown fences and no other output."

type Adapter struct {
	apiKeys []string
	model   string
	logger  logger.Logger

	mu         sync.Mutex // guards currentKey; AnalyzeImage runs concurrently
	currentKey int
}

func New(apiKeys []string, model string, log logger.Logger) *Adapter {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Adapter{apiKeys: apiKeys, model: model, logger: log}
}

func (a *Adapter) AnalyzeImage(ctx context.Context, image []byte, mimeType, filename string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(visionPrompt),
	}
	text, err := a.generate(ctx, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)})
	if err != nil {
		return "", fmt.Errorf("analyze %s: %w", filename, err)
	}
	return strings.TrimSpace(text), nil
}

func (a *Adapter) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]types.TranscriptLine, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(audio, mimeType),
		genai.NewPartFromText(transcribePrompt),
	}
	text, err := a.generate(ctx, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)})
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	lines, ok := decodeTranscript(text)
	if !ok {
		// Best effort: a structurally unusable transcription yields an empty
		// transcript, not a failed run.
		a.logger.Warn(ctx, "transcription output was not a parseable line array, continuing with empty transcript")
		return nil, nil
	}
	return lines, nil
}

func (a *Adapter) Align(ctx context.Context, prompt string) (types.AlignmentResult, error) {
	text, err := a.generate(ctx, genai.Text(prompt))
	if err != nil {
		return types.AlignmentResult{}, fmt.Errorf("align: %w", err)
	}
	return align.DecodeResult(text)
}

// generate runs one GenerateContent call, rotating through the configured
// API keys on quota errors. Auth failures and key exhaustion surface as
// ports.ErrUnavailable so the orchestrator can tell them apart from a
// per-item failure.
func (a *Adapter) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	if len(a.apiKeys) == 0 {
		return "", fmt.Errorf("%w: no Gemini API key configured", ports.ErrUnavailable)
	}

	var lastErr error
	for range a.apiKeys {
		key, keyIdx := a.pickKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			a.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, a.model, contents, nil)
		if err != nil {
			if isQuotaError(err) {
				a.logger.Warn(ctx, "Gemini key %d rate limited, rotating", keyIdx+1)
				a.rotateKey()
				lastErr = err
				continue
			}
			if isAuthError(err) {
				return "", fmt.Errorf("%w: %v", ports.ErrUnavailable, err)
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				text.WriteString(part.Text)
			}
			return text.String(), nil
		}
		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("%w: all API keys exhausted: %v", ports.ErrUnavailable, lastErr)
}

// pickKey returns the key to try next and its index. Concurrent slide
// analyses share one adapter, so reads and rotation go through the mutex.
func (a *Adapter) pickKey() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apiKeys[a.currentKey], a.currentKey
}

func (a *Adapter) rotateKey() {
	a.mu.Lock()
	a.currentKey = (a.currentKey + 1) % len(a.apiKeys)
	a.mu.Unlock()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "API key not valid") ||
		strings.Contains(msg, "PERMISSION_DENIED") ||
		strings.Contains(msg, "UNAUTHENTICATED")
}

// decodeTranscript pulls a line array out of model output, tolerating fences
// and surrounding prose.
func decodeTranscript(raw string) ([]types.TranscriptLine, bool) {
	t := strings.TrimSpace(raw)
	start := strings.Index(t, "[")
	end := strings.LastIndex(t, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var lines []types.TranscriptLine
	if err := json.Unmarshal([]byte(t[start:end+1]), &lines); err != nil {
		return nil, false
	}

	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		if l.Speaker == "" {
			l.Speaker = "Unknown"
		}
		out = append(out, l)
	}
	return out, true
}
