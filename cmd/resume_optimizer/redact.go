package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/privacy"
	"github.com/jonathan/resume-optimizer/internal/types"
)

type redactOptions struct {
	input     inputFlags
	sanitized bool
}

// redactReport is the JSON output of the redact command. Raw values are never included.
type redactReport struct {
	Preview   []types.PiiPreviewItem  `json:"preview"`
	Sanitized *types.ApplicationInput `json:"sanitized,omitempty"`
}

func newRedactCmd() *cobra.Command {
	opts := &redactOptions{}
	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Preview the personal data that privacy mode would redact",
		Long: "Detect emails, phone numbers, street addresses, birth dates and personal IDs in the input and print the " +
			"masked placeholder preview. With --sanitized the redacted input sent to the model is printed too.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRedact(cmd, opts)
		},
	}
	opts.input.register(cmd)
	cmd.Flags().BoolVar(&opts.sanitized, "sanitized", false, "Include the redacted input in the output")
	return cmd
}

func runRedact(cmd *cobra.Command, opts *redactOptions) error {
	in, err := opts.input.read(cmd)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in.PrivacyMode = true

	prepared := privacy.Prepare(in)
	if !opts.sanitized {
		observability.NewPrinter(cmd.OutOrStdout()).PrintPrivacyPreview(prepared.Preview)
		return nil
	}

	report := redactReport{Preview: prepared.Preview, Sanitized: &prepared.Sanitized}
	if report.Preview == nil {
		report.Preview = []types.PiiPreviewItem{}
	}
	return writeJSON(cmd.OutOrStdout(), "", report)
}
