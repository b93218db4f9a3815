package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/research-incentives/catalog"
	"github.com/warp/research-incentives/factory"
	"gopkg.in/yaml.v3"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Print the built-in policy presets",
	Long:  "Prints every built-in policy document, or a single one with --id. The output can be edited and posted to /api/policies.",
	RunE:  runPresets,
}

var (
	presetsID     string
	presetsFormat string
)

func init() {
	presetsCmd.Flags().StringVar(&presetsID, "id", "", "Only print the preset with this id")
	presetsCmd.Flags().StringVarP(&presetsFormat, "format", "f", "yaml", "Output format: yaml or json")

	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, _ []string) error {
	f := factory.NewPolicyFactory()

	var docs []factory.PolicyJSON
	for _, doc := range catalog.Presets() {
		policy, err := f.ParsePolicy(doc)
		if err != nil {
			return err
		}
		if presetsID != "" && policy.ID != presetsID {
			continue
		}
		docs = append(docs, f.ToJSON(policy))
	}
	if presetsID != "" && len(docs) == 0 {
		return fmt.Errorf("no preset with id %q", presetsID)
	}

	out := cmd.OutOrStdout()
	switch presetsFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		for _, d := range docs {
			if err := enc.Encode(d); err != nil {
				return err
			}
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", presetsFormat)
	}
}
