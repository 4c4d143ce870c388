package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
	"scribe/internal/preflight"
	"scribe/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start queue processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Started {
					fmt.Fprintln(stdout, "Daemon started")
					return nil
				}
				if strings.TrimSpace(resp.Message) != "" {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop queue processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(ctx, cmd)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(ctx *commandContext, cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	client, dialErr := ipc.Dial(ctx.socketPath())
	if dialErr != nil {
		return renderOfflineStatus(ctx, cmd, colorize)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return err
	}

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if status.Running {
		fmt.Fprintln(stdout, renderStatusLine("Workflow", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Workflow", statusWarn, fmt.Sprintf("stopped (pid %d)", status.PID), colorize))
	}
	if strings.TrimSpace(status.LastError) != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, dep := range status.Dependencies {
		fmt.Fprintln(stdout, dependencyLine(dep.Name, dep.Command, dep.Available, dep.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Stage Health", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, health := range status.StageHealth {
		kind := statusOK
		if !health.Ready {
			kind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine(health.Name, kind, health.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := buildQueueStatusRows(status.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

// renderOfflineStatus reports local state when the daemon socket is
// unreachable.
func renderOfflineStatus(ctx *commandContext, cmd *cobra.Command, colorize bool) error {
	stdout := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Workflow", statusWarn, "daemon not running; start it with `scribe daemon run`", colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, dep := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
		fmt.Fprintln(stdout, dependencyLine(dep.Name, dep.Command, dep.Available, dep.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	stringStats := make(map[string]int, len(stats))
	for status, count := range stats {
		stringStats[string(status)] = count
	}
	rows := buildQueueStatusRows(stringStats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

func dependencyLine(name, command string, available bool, detail string, colorize bool) string {
	if available {
		message := "Ready"
		if command != "" {
			message = fmt.Sprintf("Ready (command: %s)", command)
		}
		return renderStatusLine(name, statusOK, message, colorize)
	}
	if strings.TrimSpace(detail) == "" {
		detail = "not available"
	}
	return renderStatusLine(name, statusError, detail, colorize)
}
