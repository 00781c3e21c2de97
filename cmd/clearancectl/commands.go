package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"customs-clearance/internal/bootstrap"
	"customs-clearance/internal/config"
	"customs-clearance/internal/domain"
	"customs-clearance/internal/reference"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clearancectl",
		Short:         "Customs clearance tracker tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStagesCmd(), newRefCmd())
	return root
}

func newStagesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List the clearance workflow stages in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages := domain.ListStages()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stages)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tKEY\tLABEL\tREQUIRED DOCUMENTS")
			for _, st := range stages {
				required := "-"
				if len(st.RequiredDocuments) > 0 {
					required = strings.Join(st.RequiredDocuments, "; ")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Order, st.Key, st.Label, required)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func newRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Issue, validate and parse reference numbers",
	}
	cmd.AddCommand(newRefNextCmd(), newRefValidateCmd(), newRefParseCmd())
	return cmd
}

func newRefNextCmd() *cobra.Command {
	var (
		transactionType string
		year            string
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Issue the next reference number from the configured counter backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.CounterBackend == config.BackendMemory {
				return fmt.Errorf("ref next needs a shared counter: set COUNTER_BACKEND to postgres or redis")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			counter, release, err := bootstrap.OpenCounter(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			if year == "" {
				year = reference.YearOf(time.Now().UTC().Year())
			}
			issued, err := reference.NewGenerator(counter).Next(ctx, domain.TransactionType(strings.ToUpper(transactionType)), year)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.ReferenceNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&transactionType, "type", "", "transaction type: IMS, IMA, ACN, ACR or EXP")
	cmd.Flags().StringVar(&year, "year", "", "two-digit year (defaults to the current year)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRefValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <reference-number>",
		Short: "Exit non-zero unless the reference number is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !reference.Validate(args[0]) {
				return fmt.Errorf("%s: %w", args[0], domain.ErrFormat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			return nil
		},
	}
}

func newRefParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <reference-number>",
		Short: "Split a reference number into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := reference.Parse(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), parsed)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
