/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/polyglot/internal/engine"
	"github.com/valpere/polyglot/internal/translator"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text once, the same way POST /translate does",
	Long: `Translate text with the configured services and print the result.

The text is taken from the arguments, from --input, or from stdin.

Available services:
  - google       Google Translate (requires credentials)
  - systran      Systran Translate (requires API key)
  - mymemory     MyMemory (free, 5000 chars/day)
  - ollama       Ollama LLM (self-hosted)
  - openrouter   OpenRouter LLM (requires API key)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		providers, err := buildProviders(cfg)
		if err != nil {
			return err
		}
		eng, closeDB, err := buildEngine(cfg, providers, logger)
		if err != nil {
			return err
		}
		defer closeDB()

		out, err := eng.Translate(cmd.Context(), translator.Request{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
		if err != nil {
			return fmt.Errorf("translation %s: %w", engine.CodeOf(err), err)
		}

		if outputFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Successfully translated to %s\n", targetLang)
		return nil
	},
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	default:
		var b bytes.Buffer
		if _, err := b.ReadFrom(cmd.InOrStdin()); err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return b.String(), nil
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	fs := translateCmd.Flags()
	fs.StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	fs.StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	fs.StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	fs.StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	addProviderFlags(fs)

	translateCmd.MarkFlagRequired("target")
}
