package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// inputFlags are the two ways to supply an ApplicationInput: a single JSON document
// (--in), or one text file per field.
type inputFlags struct {
	inFile      string
	jobFile     string
	resumeFile  string
	coverFile   string
	companyFile string
	contextFile string
	vaultFile   string
	mode        string
	privacy     bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inFile, "in", "i", "", `ApplicationInput JSON file ("-" for stdin)`)
	cmd.Flags().StringVar(&f.jobFile, "job", "", "Job description text file")
	cmd.Flags().StringVar(&f.resumeFile, "resume", "", "Résumé text file")
	cmd.Flags().StringVar(&f.coverFile, "cover-letter", "", "Cover letter text file")
	cmd.Flags().StringVar(&f.companyFile, "company", "", "Company information text file")
	cmd.Flags().StringVar(&f.contextFile, "context", "", "Additional context text file")
	cmd.Flags().StringVar(&f.vaultFile, "vault", "", "Metrics vault JSON file")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Analysis mode (fast, balanced, deep)")
	cmd.Flags().BoolVar(&f.privacy, "privacy", false, "Redact personal data before calling the model")
	cmd.MarkFlagsMutuallyExclusive("in", "job")
	cmd.MarkFlagsMutuallyExclusive("in", "resume")
}

// read builds the input. Flags given alongside --in override the document's values.
func (f *inputFlags) read(cmd *cobra.Command) (types.ApplicationInput, error) {
	var in types.ApplicationInput
	if f.inFile != "" {
		raw, err := readSource(cmd.InOrStdin(), f.inFile)
		if err != nil {
			return in, err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return in, fmt.Errorf("failed to parse %s: %w", f.inFile, err)
		}
	} else {
		if f.jobFile == "" || f.resumeFile == "" {
			return in, errors.New("provide --in, or both --job and --resume")
		}
		fields := []struct {
			path string
			dst  *string
		}{
			{f.jobFile, &in.JobDescription},
			{f.resumeFile, &in.ResumeContent},
			{f.coverFile, &in.CoverLetterContent},
			{f.companyFile, &in.CompanyInfo},
			{f.contextFile, &in.AdditionalContext},
		}
		for _, field := range fields {
			if field.path == "" {
				continue
			}
			raw, err := readSource(cmd.InOrStdin(), field.path)
			if err != nil {
				return in, err
			}
			*field.dst = string(raw)
		}
	}

	if f.vaultFile != "" {
		raw, err := os.ReadFile(f.vaultFile)
		if err != nil {
			return in, fmt.Errorf("failed to read vault file: %w", err)
		}
		if err := json.Unmarshal(raw, &in.MetricsVault); err != nil {
			return in, fmt.Errorf("failed to parse vault file: %w", err)
		}
	}
	if f.mode != "" {
		in.AnalysisMode = types.AnalysisMode(f.mode)
	}
	if cmd.Flags().Changed("privacy") {
		in.PrivacyMode = f.privacy
	}
	return in, nil
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return raw, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
