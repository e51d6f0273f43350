package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-optimizer/internal/input"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/retrieval"
	"github.com/jonathan/resume-optimizer/internal/types"
)

type chunksOptions struct {
	input  inputFlags
	limit  int
	pretty bool
}

// chunksReport is the JSON output of the chunks command.
type chunksReport struct {
	InputHash string                   `json:"inputHash"`
	Decision  input.TierDecision       `json:"tierDecision"`
	Selection types.RetrievalSelection `json:"selection"`
}

func newChunksCmd() *cobra.Command {
	opts := &chunksOptions{}
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Show the tier decision and the retrieval chunks selected for an input",
		Long: "Chunk the input the way the pipeline does and print the selected chunks with the reason " +
			"each was chosen. No model is called.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChunks(cmd, opts)
		},
	}
	opts.input.register(cmd)
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Chunks to select (default: the tier's retrieval limit)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Print a human-readable table instead of JSON")
	return cmd
}

func runChunks(cmd *cobra.Command, opts *chunksOptions) error {
	in, err := opts.input.read(cmd)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	hash, err := input.Hash(in)
	if err != nil {
		return err
	}
	decision := input.SelectTier(in)
	limit := opts.limit
	if limit <= 0 {
		limit = llm.DefaultConfig().For(decision.Tier).RetrievalLimit
	}
	selection := retrieval.SelectChunks(in, limit)

	if opts.pretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintRetrieval(selection)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), "", chunksReport{
		InputHash: hash,
		Decision:  decision,
		Selection: selection,
	})
}
