package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/fetch"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/workflow"
)

// newTranscribeCommand performs a full extract/transcribe/export run for a
// single local file without the daemon.
func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var language string
	var translate bool
	var modelPath string

	cmd := &cobra.Command{
		Use:   "transcribe <path>",
		Short: "Transcribe a local video or audio file to SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(modelPath) != "" {
				cfg.Whisper.ModelPath = modelPath
			}
			if translate {
				cfg.Whisper.Task = "translate"
			}

			logger, err := logging.NewAt(cfg.Logging.Level, cfg.Logging.Format, "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			existing, err := store.FindBySource(cmd.Context(), absPath)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("source already queued as item #%d (remove it with `scribe queue remove %d`)", existing.ID, existing.ID)
			}

			manager := workflow.NewManager(cfg, store, logger)
			registerStages(manager, cfg, store, logger)

			item, err := store.NewFile(cmd.Context(), absPath, fetch.DeriveTitle(absPath))
			if err != nil {
				return err
			}
			if strings.TrimSpace(language) != "" {
				item.Language = language
				if err := store.Update(cmd.Context(), item); err != nil {
					return err
				}
			}

			final, runErr := manager.RunItem(cmd.Context(), item)
			if runErr != nil {
				if final != nil && strings.TrimSpace(final.ErrorMessage) != "" {
					return fmt.Errorf("transcription failed: %s", final.ErrorMessage)
				}
				return runErr
			}
			if final.Status != queue.StatusCompleted {
				return fmt.Errorf("pipeline stopped at status %s", final.Status)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Subtitles written to %s\n", final.SubtitleFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Source language code (default: auto-detect)")
	cmd.Flags().BoolVar(&translate, "translate", false, "Translate the transcript to English")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "Whisper model path override")
	return cmd
}
