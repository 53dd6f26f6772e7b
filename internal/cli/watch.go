package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/b08x/slide-align/internal/config"
	"github.com/b08x/slide-align/internal/logger"
	"github.com/b08x/slide-align/internal/pipeline"
	"github.com/b08x/slide-align/internal/watcher"
)

// watch runs the pipeline for every transcript dropped into dir, taking the
// slide images from the transcript's own directory.
func watch(cmd *cobra.Command, dir string) error {
	outDir, _ := cmd.Flags().GetString("out")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Logging.Level)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, transcriptPath string) error {
		slidePaths, err := collectSlides(filepath.Dir(transcriptPath))
		if err != nil {
			return err
		}
		pcfg, err := buildPipelineConfig(cfg, transcriptPath, slidePaths, outDir, log)
		if err != nil {
			return err
		}
		if err := pcfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return pipeline.Run(ctx, pcfg)
	}

	w, err := watcher.New(absDir, handler, log)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
