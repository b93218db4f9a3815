package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/warp/research-incentives/api"
	"github.com/warp/research-incentives/catalog"
	"github.com/warp/research-incentives/factory"
	"github.com/warp/research-incentives/incentive"
	"gopkg.in/yaml.v3"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Compute the allocation for a submission file",
	Long:  "Reads a submission (JSON or YAML), validates the roster and prints each author's incentive and points. Without --policy the matching built-in preset is used.",
	RunE:  runAllocate,
}

var (
	allocateSubmissionFile string
	allocatePolicyFile     string
	allocateFormat         string
)

func init() {
	allocateCmd.Flags().StringVarP(&allocateSubmissionFile, "submission", "s", "", "Path to submission JSON/YAML file (required)")
	allocateCmd.Flags().StringVarP(&allocatePolicyFile, "policy", "p", "", "Path to policy JSON/YAML file (default: built-in preset)")
	allocateCmd.Flags().StringVarP(&allocateFormat, "format", "f", "table", "Output format: table or json")

	if err := allocateCmd.MarkFlagRequired("submission"); err != nil {
		panic(fmt.Sprintf("failed to mark submission flag as required: %v", err))
	}

	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(cmd *cobra.Command, _ []string) error {
	sub, err := readSubmission(allocateSubmissionFile)
	if err != nil {
		return err
	}

	var policy *incentive.Policy
	if allocatePolicyFile != "" {
		if policy, err = factory.NewPolicyFactory().LoadFile(allocatePolicyFile); err != nil {
			return err
		}
	} else if policy, err = presetFor(sub.PolicyKey()); err != nil {
		return err
	}

	set := incentive.Allocate(sub, policy)
	dto := api.NewAllocationSetDTO(set)
	if policy != nil {
		dto.PolicyID = policy.ID
	}

	switch allocateFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto)
	case "table":
		return writeTable(cmd.OutOrStdout(), dto)
	default:
		return fmt.Errorf("unknown format %q (want table or json)", allocateFormat)
	}
}

func readSubmission(path string) (incentive.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return incentive.Submission{}, fmt.Errorf("failed to read submission file: %w", err)
	}

	var dto api.SubmissionDTO
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &dto)
	default:
		err = json.Unmarshal(data, &dto)
	}
	if err != nil {
		return incentive.Submission{}, fmt.Errorf("failed to parse submission file: %w", err)
	}
	if err := validator.New().Struct(dto); err != nil {
		return incentive.Submission{}, fmt.Errorf("invalid submission: %w", err)
	}

	sub, err := dto.ToSubmission()
	if err != nil {
		return incentive.Submission{}, err
	}
	if err := incentive.ValidateRoster(sub); err != nil {
		return incentive.Submission{}, err
	}
	return sub, nil
}

// presetFor returns the built-in policy for key, or nil when there is none.
func presetFor(key incentive.PolicyKey) (*incentive.Policy, error) {
	f := factory.NewPolicyFactory()
	for _, doc := range catalog.Presets() {
		policy, err := f.ParsePolicy(doc)
		if err != nil {
			return nil, err
		}
		if policy.Key() == key {
			return policy, nil
		}
	}
	return nil, nil
}

func writeTable(out io.Writer, dto api.AllocationSetDTO) error {
	fmt.Fprintf(out, "Policy:  %s\n", dto.PolicyID)
	fmt.Fprintf(out, "Pool:    %s incentive / %s points (%s split)\n",
		dto.Pool.Incentive.String(), dto.Pool.Points.String(), dto.SplitMode)
	if dto.Warning != "" {
		fmt.Fprintf(out, "Warning: %s\n", dto.Warning)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCATEGORY\tKIND\tROLE\tSHARE %\tINCENTIVE\tPOINTS")
	for _, a := range dto.Allocations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			a.Position+1, a.Name, a.Category, a.Kind, a.Role,
			a.Percentage.StringFixed(2), a.Incentive, a.Points)
	}
	fmt.Fprintf(tw, "\tTOTAL\t\t\t\t\t%d\t%d\n", dto.TotalIncentive, dto.TotalPoints)
	return tw.Flush()
}
