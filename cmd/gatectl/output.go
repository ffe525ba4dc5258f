package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/service"
)

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printJudgeResult(r *service.JudgeResult) {
	fmt.Printf("Verdict:  %s\n", r.Verdict)
	fmt.Printf("Forward:  %v\n", r.Forward)
	fmt.Printf("Raw:      %q\n", r.Raw)
	if r.Cause != "" {
		fmt.Printf("Cause:    %s\n", r.Cause)
	}
	fmt.Printf("Latency:  %s\n", r.Latency)
}

func printJudgmentTable(judgments []*domain.Judgment) {
	if len(judgments) == 0 {
		fmt.Println("No judgments found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tGROUP\tSENDER\tOUTCOME\tVERDICT\tCAUSE\tTEXT")
	for _, j := range judgments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.CreatedAt.Format("2006-01-02 15:04:05"),
			j.GroupID,
			j.Sender,
			j.Outcome,
			j.Verdict,
			dash(j.Cause),
			truncate(j.Text, 40),
		)
	}
	w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
