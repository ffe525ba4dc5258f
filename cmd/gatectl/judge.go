package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/biz/usecase"
	"github.com/devricklin/smart-listener/internal/data"
	"github.com/devricklin/smart-listener/internal/service"
)

const judgeGroupID = "gatectl"

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Judge one message with the configured classifier, without a running listener",
	Long: `Judge builds the same prompt the listener would and asks the configured
classifier provider for a verdict. Context comes from --history, a file with
one "speaker: text" line per message, oldest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sender, _ := cmd.Flags().GetString("sender")
		text, _ := cmd.Flags().GetString("text")
		historyPath, _ := cmd.Flags().GetString("history")
		showPrompt, _ := cmd.Flags().GetBool("show-prompt")

		historyRepo := data.NewHistoryRepo(cfg.HistoryCapacity, 0)
		if historyPath != "" {
			f, err := os.Open(historyPath)
			if err != nil {
				return err
			}
			entries, err := parseHistory(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", historyPath, err)
			}
			seedHistory(historyRepo, entries)
		}

		models := data.NewModelRepo(data.NewChatClients(cfg.Providers))
		classifierUC := usecase.NewClassifierUsecase(models, cfg.Classifier.ToClassifierConfig())

		// Judge ignores the whitelist, so the local group needs no config
		gate := service.NewGateService(cfg.ToGateConfig(), historyRepo, classifierUC, data.NewLogReplyRepo(), nil)
		result, err := gate.Judge(context.Background(), judgeGroupID, sender, text)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		if showPrompt {
			fmt.Println(result.Prompt.String())
			fmt.Println("---")
		}
		printJudgeResult(result)
		return nil
	},
}

func init() {
	judgeCmd.Flags().StringP("sender", "s", "", "sender display name")
	judgeCmd.Flags().StringP("text", "t", "", "message text to judge")
	judgeCmd.Flags().String("history", "", `file with one "speaker: text" line per message`)
	judgeCmd.Flags().Bool("show-prompt", false, "print the prompt sent to the classifier")
	_ = judgeCmd.MarkFlagRequired("text")
}

// parseHistory reads "speaker: text" lines. Blank lines and lines starting
// with # are skipped; a line without a colon is attributed to no one.
func parseHistory(r io.Reader) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		speaker, text, found := strings.Cut(line, ":")
		if !found {
			speaker, text = "", line
		}
		entries = append(entries, domain.HistoryEntry{
			Speaker: usecase.SpeakerLabel(speaker),
			Text:    usecase.NormalizeText(text),
		})
	}
	return entries, scanner.Err()
}

func seedHistory(historyRepo repo.HistoryRepo, entries []domain.HistoryEntry) {
	for _, e := range entries {
		if e.Text != "" {
			historyRepo.Append(judgeGroupID, e)
		}
	}
}
