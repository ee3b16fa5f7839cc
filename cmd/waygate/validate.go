package main

import (
	"fmt"
	"os"

	"github.com/averycross/waygate"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config, scenario and API contract for consistency",
	Long: `Validates the config file (including engine tunables), the scenario file
if given, and the embedded OpenAPI contract of the HTTP surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config + tunables.
		if _, _, _, err := loadSetup(cmd); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		// Scenario, when one is given.
		if scenarioPath, _ := cmd.Flags().GetString("scenario"); scenarioPath != "" {
			data, err := os.ReadFile(scenarioPath)
			if err != nil {
				return err
			}
			if _, _, _, err := memory.ParseScenario(data); err != nil {
				return fmt.Errorf("scenario invalid: %w", err)
			}
		}

		// API contract.
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(waygate.OpenAPISpec)
		if err != nil {
			return fmt.Errorf("openapi contract unreadable: %w", err)
		}
		if err := doc.Validate(loader.Context); err != nil {
			return fmt.Errorf("openapi contract invalid: %w", err)
		}

		fmt.Println("Everything is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("scenario", "", "Path to a scenario YAML to validate")
}
