package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/b08x/slide-align/internal/logger"
	"github.com/b08x/slide-align/internal/ports"
	"github.com/b08x/slide-align/internal/ports/adapters/gemini"
	"github.com/b08x/slide-align/internal/ports/adapters/openrouter"
	"github.com/b08x/slide-align/internal/report"
	"github.com/b08x/slide-align/internal/types"
)

type Config struct {
	TranscriptFile string
	AudioFile      string
	SlidePaths     []string
	OutDir         string

	BatchSize        int
	TranscriptBudget int

	// AlignBackend selects the aligner adapter: "gemini" or "openrouter".
	AlignBackend string

	GeminiAPIKeys []string
	GeminiModel   string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string

	Logger   logger.Logger
	Progress func(types.PipelineState)
}

func (c Config) Validate() error {
	if len(c.SlidePaths) == 0 {
		return errors.New("no slide images provided")
	}
	if c.TranscriptFile == "" && c.AudioFile == "" {
		return errors.New("a transcript file or an audio file is required")
	}
	if c.TranscriptFile != "" && c.AudioFile != "" {
		return errors.New("transcript and audio are mutually exclusive")
	}
	src := c.TranscriptFile
	if src == "" {
		src = c.AudioFile
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("stat narration source: %w", err)
	}
	if len(c.GeminiAPIKeys) == 0 {
		return errors.New("GEMINI_API_KEY is required")
	}

	switch c.AlignBackend {
	case "", "gemini":
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			return errors.New("OPENROUTER_API_KEY is required for the openrouter backend")
		}
		return openrouter.ValidateBaseURL(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts)
	default:
		return fmt.Errorf("unknown alignment backend %q", c.AlignBackend)
	}
	return nil
}

// Run wires the adapters, drives one orchestrator run and writes the
// alignment JSON plus a markdown report into a fresh run directory.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Logger
	if log == nil {
		log = logger.New("info")
	}

	g := gemini.New(cfg.GeminiAPIKeys, cfg.GeminiModel, log)

	var aligner ports.Aligner = g
	if cfg.AlignBackend == "openrouter" {
		aligner = openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL)
	}

	orc := NewOrchestrator(Deps{
		Vision:      g,
		Transcriber: g,
		Aligner:     aligner,
	}, Options{
		BatchSize:        cfg.BatchSize,
		TranscriptBudget: cfg.TranscriptBudget,
		Logger:           log,
		Progress:         cfg.Progress,
	})

	res, err := orc.Run(ctx, Input{
		TranscriptFile: cfg.TranscriptFile,
		AudioFile:      cfg.AudioFile,
		SlidePaths:     cfg.SlidePaths,
	})
	if err != nil {
		return err
	}

	source := cfg.TranscriptFile
	if source == "" {
		source = cfg.AudioFile
	}
	outRoot := cfg.OutDir
	if outRoot == "" {
		outRoot = "out"
	}
	runOutDir := buildRunOutDir(outRoot, source, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info(ctx, "output run dir: %s", runOutDir)

	b, err := json.MarshalIndent(res.Alignment, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alignment: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runOutDir, "alignment.json"), b, 0o644); err != nil {
		return err
	}

	md := report.Markdown(res.Alignment, res.Slides)
	if err := os.WriteFile(filepath.Join(runOutDir, "report.md"), []byte(md), 0o644); err != nil {
		return err
	}

	log.Info(ctx, "aligned %d timeline entries across %d topics: %s",
		len(res.Alignment.Timeline), len(res.Alignment.Topics), runOutDir)
	return nil
}

func buildRunOutDir(outRoot, source string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name = normalizePathSegment(name)
	if name == "" {
		name = "run"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", source, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Vision = (*gemini.Adapter)(nil)
var _ ports.Transcriber = (*gemini.Adapter)(nil)
var _ ports.Aligner = (*gemini.Adapter)(nil)
var _ ports.Aligner = (*openrouter.Adapter)(nil)
