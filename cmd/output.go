package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"apflow/internal/document"
)

// readRequest loads a request document; "-" reads stdin.
func readRequest(path string, v interface{}, log zerolog.Logger) error {
	if err := document.Read(path, v); err != nil {
		log.Error().
			Err(err).
			Str("input_file", path).
			Msg("Failed to read input document")
		return err
	}
	log.Debug().Str("input_file", path).Msg("Input document loaded")
	return nil
}

// outputJSON writes v to outputPath, or to the command's stdout when outputPath is empty.
func outputJSON(cmd *cobra.Command, v interface{}, outputPath string, log zerolog.Logger) error {
	if outputPath != "" {
		if err := document.WriteFile(outputPath, v); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Msg("Result written to file")
		return nil
	}

	if err := document.Encode(cmd.OutOrStdout(), v); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeSideDocument writes an optional secondary document (echo, evidence) when path is set.
func writeSideDocument(path string, v interface{}, what string, log zerolog.Logger) error {
	if path == "" {
		return nil
	}
	if err := document.WriteFile(path, v); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msgf("Failed to write %s", what)
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	log.Info().Str("output_file", path).Msgf("%s written", what)
	return nil
}
