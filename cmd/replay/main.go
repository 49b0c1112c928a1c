// Command replay runs a command script against a users fixture and writes
// the visible results as JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/command"
	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/observability"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	usersPath := flags.StringP("users", "u", "", "users fixture (JSON or YAML)")
	inputPath := flags.StringP("input", "i", "", "command script (JSON array)")
	outputPath := flags.StringP("output", "o", "", "results file; stdout when empty")
	logLevel := flags.String("log-level", "warn", "log level")
	phaseDays := flags.Int("testing-phase-days", 12, "length of a testing phase in days")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *usersPath == "" || *inputPath == "" {
		return fmt.Errorf("--users and --input are required")
	}

	logger, err := observability.NewLogger(config.LoggerConfig{Level: *logLevel, Encoding: "console"})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	usersData, err := os.ReadFile(*usersPath)
	if err != nil {
		return err
	}
	users, err := command.DecodeUsers(usersData)
	if err != nil {
		return err
	}
	commandData, err := os.ReadFile(*inputPath)
	if err != nil {
		return err
	}
	commands, err := command.DecodeCommands(commandData)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := command.NewProcessor(config.EngineConfig{TestingPhaseDays: *phaseDays}, config.NotificationConfig{}, logger, nil)
	results, err := processor.Replay(ctx, users, commands)
	if err != nil {
		return err
	}
	out, err := command.EncodeResults(results)
	if err != nil {
		return err
	}
	out = append(out, '\n')

	logger.Info("replay finished", zap.Int("commands", len(commands)), zap.Int("results", len(results)))
	if *outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(*outputPath, out, 0o644)
}
