package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/entityledger/internal/adapter/http/dto"
	"github.com/iho/entityledger/internal/adapter/idgen"
	"github.com/iho/entityledger/internal/domain"
	"github.com/iho/entityledger/internal/infrastructure/logger"
	"github.com/iho/entityledger/internal/usecase"
)

var errInvalidRecords = errors.New("invalid records")

type options struct {
	file     string
	asJSON   bool
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "ledger-cli",
		Short:        "Entity ledger CLI tool",
		Long:         `Builds a ledger from "YYYY-MM-DD,source,target,amount" records and queries balances.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Records file, one record per line (default stdin)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		validateCmd(opts),
		balanceCmd(opts),
		entitiesCmd(opts),
		entriesCmd(opts),
		consistencyCmd(opts),
	)

	return rootCmd
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report every invalid record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(cmd, opts)
			if err != nil {
				return err
			}

			failures, err := newUseCase(cmd, opts).Validate(cmd.Context(), records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				if err := printJSON(out, dto.ValidateFromDomain(len(records), failures)); err != nil {
					return err
				}
			} else {
				for _, ve := range failures {
					fmt.Fprintln(out, ve.Error())
				}
				fmt.Fprintf(out, "%d records, %d invalid\n", len(records), len(failures))
			}

			if len(failures) > 0 {
				return errInvalidRecords
			}
			return nil
		},
	}
}

func balanceCmd(opts *options) *cobra.Command {
	var on string

	cmd := &cobra.Command{
		Use:   "balance <entity>",
		Short: "Print the balance of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			onDate, err := dto.ParseOnDate(on)
			if err != nil {
				return fmt.Errorf("invalid --on date: %w", err)
			}

			uc, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}

			balance, err := uc.GetBalance(cmd.Context(), usecase.GetBalanceInput{
				Entity: args[0],
				OnDate: onDate,
			})
			if err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), dto.NewBalanceResponse(args[0], onDate, balance))
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&on, "on", "", "Balance at the close of this date (YYYY-MM-DD)")
	return cmd
}

func entitiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List every entity in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}

			entities := uc.ListEntities(cmd.Context())
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), dto.EntitiesResponse{Entities: entities})
			}
			for _, name := range entities {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func entriesCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "entries <entity>",
		Short: "List entries posted to an entity, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}

			entries, err := uc.GetEntries(cmd.Context(), usecase.GetEntriesInput{
				Entity: args[0],
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), dto.EntriesFromDomain(entries))
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Date.Format(domain.DateLayout), e.Amount.String())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultEntriesLimit, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")
	return cmd
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that the ledger balances to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := loadLedger(cmd, opts)
			if err != nil {
				return err
			}

			ok, err := uc.CheckConsistency(cmd.Context())
			if opts.asJSON {
				resp := dto.ConsistencyResponse{Consistent: ok}
				if err != nil {
					resp.Message = err.Error()
				}
				if perr := printJSON(cmd.OutOrStdout(), resp); perr != nil {
					return perr
				}
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return nil
		},
	}
}

func newUseCase(cmd *cobra.Command, opts *options) *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(usecase.Config{
		IDGenerator: idgen.NewULIDGenerator(),
		Logger: logger.New(logger.Config{
			Level:  opts.logLevel,
			Format: "console",
			Output: cmd.ErrOrStderr(),
		}),
	})
}

// loadLedger reads the records and ingests them into a fresh use case.
func loadLedger(cmd *cobra.Command, opts *options) (*usecase.LedgerUseCase, error) {
	records, err := readRecords(cmd, opts)
	if err != nil {
		return nil, err
	}

	uc := newUseCase(cmd, opts)
	if _, err := uc.Ingest(cmd.Context(), records); err != nil {
		return nil, err
	}
	return uc, nil
}

func readRecords(cmd *cobra.Command, opts *options) ([]string, error) {
	var in io.Reader = cmd.InOrStdin()
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, fmt.Errorf("open records file: %w", err)
		}
		defer f.Close()
		in = f
	}

	return scanRecords(in)
}

func scanRecords(in io.Reader) ([]string, error) {
	var records []string

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		records = append(records, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return records, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
