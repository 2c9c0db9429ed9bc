// Command symscorectl is an operator CLI for the scoring core: score a
// sample of symbol hits against a registry file and print the resulting
// verdict, or print registry stats. It exists
// purely as a convenience wrapper around pkg/task, pkg/scoring,
// pkg/passthrough, and pkg/action — none of those packages know it exists.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridgeline-security/symscore/pkg/action"
	"github.com/ridgeline-security/symscore/pkg/config"
	"github.com/ridgeline-security/symscore/pkg/registry"
	"github.com/ridgeline-security/symscore/pkg/scoring"
	"github.com/ridgeline-security/symscore/pkg/task"
)

var registryPath string

func main() {
	root := &cobra.Command{
		Use:   "symscorectl",
		Short: "operator CLI for the symbol scoring core",
	}
	root.PersistentFlags().StringVar(&registryPath, "registry", "", "path to registry YAML file")

	root.AddCommand(newScoreCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [hits-file]",
		Short: "replay a file of \"symbol weight [option]\" hits and print the resulting action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(registryPath)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			cfg := config.NewDefaultConfig()

			t := task.New("cli-session", reg, &task.Config{
				ActionLimits:    cfg.ActionLimits(),
				GrowFactor:      cfg.GrowFactor,
				DefaultMaxShots: cfg.DefaultMaxShots,
			}, slog.Default())
			defer t.Finish()

			if err := replayHits(cmd.Context(), t, args[0]); err != nil {
				return err
			}

			t.EnterIdempotentPhase()
			result, _ := t.Result()
			verdict := action.Select(t, result)

			fmt.Printf("score=%.3f action=%s\n", result.Score, verdict)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print registry symbol and group counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(registryPath)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			symbols, groups := reg.Snapshot()
			fmt.Printf("symbols=%d groups=%d\n", len(symbols), len(groups))
			return nil
		},
	}
}

// replayHits reads lines of "symbol weight [option]" and calls
// scoring.Insert for each, in file order.
func replayHits(ctx context.Context, t *task.Task, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open hits file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("malformed hit line: %q", line)
		}
		weight, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("malformed weight in %q: %w", line, err)
		}
		var option *string
		if len(fields) >= 3 {
			opt := strings.Join(fields[2:], " ")
			option = &opt
		}
		scoring.Insert(ctx, t, fields[0], weight, option, scoring.Flags{})
	}
	return scanner.Err()
}
