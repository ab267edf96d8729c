// Package main is the command line front end of the launch pipeline.
//
// Usage:
//
//	launch create --name "Agent Meme" --ticker AGM --image token.png [--liquidity 0.5]
//	launch interactive
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/config"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/orchestrator"
)

const programName = "launch"

var globalFlags = struct {
	config string
	debug  bool
}{}

// launcher runs one attempt.
type launcher interface {
	Run(ctx context.Context, attemptID string, req *domain.LaunchRequest, progress orchestrator.ProgressFunc) (*domain.LaunchRecord, error)
}

// pipeline loads the configuration and wires the launch pipeline.
// The caller closes the returned App.
func pipeline(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(globalFlags.config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateLaunch(); err != nil {
		return nil, err
	}
	logger := cfg.Logger()
	if globalFlags.debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	// Progress goes to stdout; keep the log on stderr.
	logger.SetOutput(os.Stderr)

	return app.New(ctx, cfg, logger.WithField("component", programName), app.Options{})
}

// printProgress writes every progress update as one line.
func printProgress(out io.Writer) orchestrator.ProgressFunc {
	return func(p orchestrator.Progress) {
		fmt.Fprintf(out, "[%s] %s\n", p.Stage, p.Message)
	}
}

// runLaunch executes req and prints the outcome.
func runLaunch(ctx context.Context, out io.Writer, l launcher, req *domain.LaunchRequest) (*domain.LaunchRecord, error) {
	rec, err := l.Run(ctx, orchestrator.NewAttemptID(), req, printProgress(out))
	if err != nil {
		if f, ok := launch.AsFailure(err); ok {
			fmt.Fprintln(out, f.UserMessage())
			for i, sig := range f.Signatures {
				fmt.Fprintf(out, "  confirmed tx %d: %s\n", i, sig)
			}
		}
		return nil, err
	}

	fmt.Fprintf(out, "Token address: %s\n", rec.Address)
	fmt.Fprintf(out, "Metadata:      %s\n", rec.MetadataURI)
	for i, sig := range rec.Signatures {
		fmt.Fprintf(out, "  tx %d: %s\n", i, sig)
	}
	return rec, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Launch tokens through the configured pool service and wallet",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&globalFlags.config, "config", os.Getenv("LAUNCHPAD_CONFIG"), "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(createCommand())
	rootCmd.AddCommand(interactiveCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
