package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/fetch"
	"scribe/internal/ipc"
	"scribe/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Add a video URL to the subtitle queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			if raw == "" {
				return errors.New("url is required")
			}
			parsed, err := url.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse url: %w", err)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
			}

			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				if client != nil {
					resp, err := client.Add(raw)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", resp.Item.Title, resp.Item.ID)
					return nil
				}
				existing, err := store.FindBySource(cmd.Context(), raw)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("source already queued as item #%d", existing.ID)
				}
				item, err := store.NewURL(cmd.Context(), raw, fetch.DeriveTitle(raw))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", item.Title, item.ID)
				return nil
			})
		},
	}
}

var manualFileExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".webm": {},
	".wav":  {},
}

func newAddFileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-file <path>",
		Short: "Add a local video file to the subtitle queue",
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

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if _, ok := manualFileExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				if client != nil {
					resp, err := client.AddFile(absPath)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", filepath.Base(absPath), resp.Item.ID)
					return nil
				}
				existing, err := store.FindBySource(cmd.Context(), absPath)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("source already queued as item #%d", existing.ID)
				}
				item, err := store.NewFile(cmd.Context(), absPath, fetch.DeriveTitle(absPath))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item #%d\n", filepath.Base(absPath), item.ID)
				return nil
			})
		},
	}
}
