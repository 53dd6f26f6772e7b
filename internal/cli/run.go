package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/b08x/slide-align/internal/config"
	"github.com/b08x/slide-align/internal/domain/slides"
	"github.com/b08x/slide-align/internal/logger"
	"github.com/b08x/slide-align/internal/pipeline"
	"github.com/b08x/slide-align/internal/types"
)

func run(cmd *cobra.Command, narration string) error {
	slidesDir, _ := cmd.Flags().GetString("slides")
	outDir, _ := cmd.Flags().GetString("out")
	configPath, _ := cmd.Flags().GetString("config")
	batch, _ := cmd.Flags().GetInt("batch")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Logging.Level)

	absNarration, err := filepath.Abs(narration)
	if err != nil {
		return err
	}
	slidePaths, err := collectSlides(slidesDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	pcfg, err := buildPipelineConfig(cfg, absNarration, slidePaths, outDir, log)
	if err != nil {
		return err
	}
	if batch > 0 {
		pcfg.BatchSize = batch
	}

	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, pcfg)
}

func buildPipelineConfig(cfg *config.Config, narration string, slidePaths []string, outDir string, log logger.Logger) (pipeline.Config, error) {
	pcfg := pipeline.Config{
		SlidePaths:       slidePaths,
		OutDir:           outDir,
		BatchSize:        cfg.Analysis.BatchSize,
		TranscriptBudget: cfg.Alignment.TranscriptBudget,
		AlignBackend:     cfg.Alignment.Backend,

		GeminiAPIKeys: geminiKeys(),
		GeminiModel:   cfg.Gemini.Model,

		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        getenvDefault("OPENROUTER_MODEL", cfg.OpenRouter.Model),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", cfg.OpenRouter.BaseURL),
		OpenRouterAllowedHosts: cfg.OpenRouter.AllowedHosts,

		Logger: log,
		Progress: func(s types.PipelineState) {
			if s.TotalUnits > 0 {
				log.Info(context.Background(), "[%s] %d/%d %s", s.Stage, s.CompletedUnits, s.TotalUnits, s.Message)
				return
			}
			log.Info(context.Background(), "[%s] %s", s.Stage, s.Message)
		},
	}

	switch {
	case isTranscriptFile(narration):
		pcfg.TranscriptFile = narration
	case isAudioFile(narration):
		pcfg.AudioFile = narration
	default:
		return pipeline.Config{}, fmt.Errorf("unsupported narration file type: %s", filepath.Ext(narration))
	}
	return pcfg, nil
}

func collectSlides(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read slides dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slides.IsImage(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no slide images found in " + dir)
	}
	sort.Strings(paths)
	return paths, nil
}

func geminiKeys() []string {
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		var keys []string
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		return keys
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		return []string{v}
	}
	return nil
}

func isTranscriptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ass", ".srt", ".vtt", ".txt", ".md":
		return true
	default:
		return false
	}
}

func isAudioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac":
		return true
	default:
		return false
	}
}
