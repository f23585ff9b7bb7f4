package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"statement_insight/pkg/core/config"
	"statement_insight/pkg/core/format"
	"statement_insight/pkg/core/insight"
	"statement_insight/pkg/core/narrative"
	"statement_insight/pkg/core/sheet"
)

type rootOptions struct {
	locale   string
	logLevel string
	apiKey   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "analyze",
		Short:         "Growth, asset structure and liquidity analysis of a two-period statement (.xlsx)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.locale, "locale", "", "label patterns: en or vi (default from INSIGHT_LOCALE)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "Gemini API key (default GEMINI_API_KEY); other providers read their own variables")

	cmd.AddCommand(newTableCommand(opts))
	cmd.AddCommand(newNarrateCommand(opts))
	cmd.AddCommand(newChatCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	return cmd
}

// session loads config, applies flag overrides and analyzes the file.
func (o *rootOptions) session(path string) (*insight.Service, *insight.Session, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if o.locale != "" {
		cfg.Locale = o.locale
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.apiKey != "" {
		cfg.GeminiAPIKey = o.apiKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger := config.NewLogger(cfg.LogLevel, "text", os.Stderr)

	svc, _, err := insight.Setup(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	sess, err := svc.AnalyzeUpload(f, filepath.Base(path))
	if err != nil {
		return nil, nil, nil, errors.New(insight.DescribeError(err))
	}
	return svc, sess, cfg, nil
}

func newTableCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "table <file.xlsx>",
		Short: "Print the derived table and liquidity indicators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, sess, _, err := opts.session(args[0])
			if err != nil {
				return err
			}
			return printAnalysis(cmd.OutOrStdout(), sess.Analysis, svc.Labels())
		},
	}
}

func newNarrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "narrate <file.xlsx>",
		Short: "Ask the model for a narrative review of the statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, sess, cfg, err := opts.session(args[0])
			if err != nil {
				return err
			}
			reply, err := svc.NarrateSession(cmd.Context(), sess, cfg.GeminiAPIKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			if reply.Failed {
				return fmt.Errorf("narrative request failed")
			}
			return nil
		},
	}
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <file.xlsx>",
		Short: "Ask follow-up questions about the statement (one per line, empty line to quit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, sess, cfg, err := opts.session(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					return in.Err()
				}
				msg := strings.TrimSpace(in.Text())
				if msg == "" {
					return nil
				}
				reply, err := svc.Chat(cmd.Context(), sess, cfg.GeminiAPIKey, msg)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n\n", reply.Text)
			}
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the derived table to a new workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, sess, _, err := opts.session(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := sheet.Export(sess.Analysis.Table, svc.Labels(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "analysis.xlsx", "output workbook path")
	return cmd
}

func printAnalysis(w io.Writer, a *insight.Analysis, l narrative.Labels) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", l.Item, l.Prior, l.Current, l.Growth, l.PriorShare, l.CurrentShare)
	for _, r := range a.Table.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Label,
			format.Amount(r.Prior),
			format.Amount(r.Current),
			format.Percent(r.GrowthPct),
			format.Percent(r.PriorSharePct),
			format.Percent(r.CurrentSharePct),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	growth := format.NotAvailable
	if g, ok := a.ShortTermAssetsGrowth(); ok {
		growth = format.Percent(g)
	}
	fmt.Fprintf(w, "\n%s: %s\n", l.STAssetsGrowth, growth)
	fmt.Fprintf(w, "%s: %s\n", l.CurrentRatioPrior, format.Ratio(a.Liquidity.Prior))
	fmt.Fprintf(w, "%s: %s (%s)\n", l.CurrentRatioCurr, format.Ratio(a.Liquidity.Current), format.SignedRatio(a.Liquidity.Delta()))
	for _, warn := range a.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}
