// Package main inspects and replays the recovery journal: launch records whose
// tokens are live on-chain but could not be written to the record store.
//
// Usage:
//
//	recover list
//	recover show <address>
//	recover replay
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/config"
	"token-launchpad/internal/recovery"
	"token-launchpad/internal/storage"
)

const programName = "recover"

var configFile string

func openStores(ctx context.Context) (*app.Stores, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := cfg.Logger()
	logger.SetOutput(os.Stderr)
	return app.OpenStores(ctx, cfg, logger.WithField("component", programName))
}

func listEntries(out io.Writer, journal *recovery.Journal) error {
	entries, err := journal.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "no pending launch records")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tTICKER\tATTEMPT\tQUEUED\tREASON")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Record.Address, e.Record.Ticker, e.AttemptID,
			time.UnixMilli(e.QueuedAt).UTC().Format(time.RFC3339), e.Reason)
	}
	return w.Flush()
}

func showEntry(out io.Writer, journal *recovery.Journal, address string) error {
	e, err := journal.Get(address)
	if err != nil {
		return err
	}
	r := e.Record
	fmt.Fprintf(out, "Address:     %s\n", r.Address)
	fmt.Fprintf(out, "Name:        %s (%s)\n", r.Name, r.Ticker)
	fmt.Fprintf(out, "Creator:     %s\n", r.Creator)
	fmt.Fprintf(out, "Metadata:    %s\n", r.MetadataURI)
	fmt.Fprintf(out, "Attempt:     %s\n", e.AttemptID)
	fmt.Fprintf(out, "Reason:      %s\n", e.Reason)
	for i, sig := range r.Signatures {
		fmt.Fprintf(out, "  tx %d: %s\n", i, sig)
	}
	return nil
}

func replayEntries(ctx context.Context, out io.Writer, journal *recovery.Journal, records storage.RecordStore) error {
	res, err := journal.Replay(ctx, records)
	if err != nil {
		return err
	}
	for _, addr := range res.Inserted {
		fmt.Fprintf(out, "inserted %s\n", addr)
	}
	for _, addr := range res.Existing {
		fmt.Fprintf(out, "already stored %s\n", addr)
	}
	for addr, reason := range res.Remaining {
		fmt.Fprintf(out, "still pending %s: %s\n", addr, reason)
	}
	if len(res.Remaining) > 0 {
		return fmt.Errorf("%d launch record(s) still pending", len(res.Remaining))
	}
	return nil
}

func withStores(run func(cmd *cobra.Command, args []string, s *app.Stores) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, args, s)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Inspect and replay launch records that could not be persisted",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("LAUNCHPAD_CONFIG"), "path to YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending launch records",
		Args:  cobra.NoArgs,
		RunE: withStores(func(cmd *cobra.Command, _ []string, s *app.Stores) error {
			return listEntries(cmd.OutOrStdout(), s.Journal)
		}),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "show <address>",
		Short: "Show one pending launch record",
		Args:  cobra.ExactArgs(1),
		RunE: withStores(func(cmd *cobra.Command, args []string, s *app.Stores) error {
			return showEntry(cmd.OutOrStdout(), s.Journal, args[0])
		}),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "replay",
		Short: "Insert pending launch records into the configured record store",
		Args:  cobra.NoArgs,
		RunE: withStores(func(cmd *cobra.Command, _ []string, s *app.Stores) error {
			return replayEntries(cmd.Context(), cmd.OutOrStdout(), s.Journal, s.Records)
		}),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("recover failed")
		stop()
		os.Exit(1)
	}
}
