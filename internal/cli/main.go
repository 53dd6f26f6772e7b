package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "slide-align <narration-file>",
		Short:        "Align presentation slides with a narration transcript or audio track",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("slides", "", "Directory containing the slide images")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().String("config", "slide-align.yaml", "Config file path")
	_ = root.MarkFlagRequired("slides")

	// Hidden tuning flag (internal)
	root.Flags().Int("batch", 0, "Slide analysis batch size")
	_ = root.Flags().MarkHidden("batch")

	watchCmd := &cobra.Command{
		Use:          "watch <dir>",
		Short:        "Watch a directory and align when a new transcript appears",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd, args[0])
		},
	}
	watchCmd.Flags().String("out", "out", "Output directory")
	watchCmd.Flags().String("config", "slide-align.yaml", "Config file path")
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
