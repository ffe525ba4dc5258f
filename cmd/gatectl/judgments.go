package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/data"
)

var judgmentsCmd = &cobra.Command{
	Use:   "judgments",
	Short: "List recent judgments from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		limit, _ := cmd.Flags().GetInt("limit")

		judgmentRepo, err := data.NewJudgmentRepo(cfg.Audit.DBPath)
		if err != nil {
			return err
		}
		defer judgmentRepo.Close()

		judgments, err := judgmentRepo.List(context.Background(), repo.JudgmentFilter{GroupID: group, Limit: limit})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(judgments)
		}
		printJudgmentTable(judgments)
		return nil
	},
}

func init() {
	judgmentsCmd.Flags().StringP("group", "g", "", "only judgments for this group")
	judgmentsCmd.Flags().Int("limit", 20, "maximum number of judgments to show")
}
