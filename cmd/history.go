package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/spf13/cobra"
)

const historyTimeFormat = "2006-01-02 15:04"

// executeHistory returns recent history events, newest first, one per line.
// Exported for testing without cobra plumbing.
func executeHistory(l auditlog.Logger, kinds []string, repo string, limit int) (string, error) {
	filter := auditlog.QueryFilter{Repo: repo, Limit: limit}
	for _, k := range kinds {
		kind := auditlog.EventKind(strings.TrimSpace(k))
		if !slices.Contains(auditlog.AllKinds(), kind) {
			return "", fmt.Errorf("unknown kind %q (want one of %s)", k, kindNames())
		}
		filter.Kinds = append(filter.Kinds, kind)
	}

	events, err := l.Query(filter)
	if err != nil {
		return "", fmt.Errorf("query history: %w", err)
	}
	if len(events) == 0 {
		return "no history\n", nil
	}

	var sb strings.Builder
	for _, e := range events {
		where := e.Repo
		if where == "" {
			where = "-"
		}
		line := fmt.Sprintf("%s  %-20s %-28s %s", e.Timestamp.Local().Format(historyTimeFormat), e.Kind, where, e.Message)
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return sb.String(), nil
}

func kindNames() string {
	names := make([]string, 0, len(auditlog.AllKinds()))
	for _, k := range auditlog.AllKinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

// NewHistoryCmd returns the `history` command.
func NewHistoryCmd() *cobra.Command {
	var kinds []string
	var repo string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent logins, generations and pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(nil)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := executeHistory(e.audit, kinds, repo, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only these event kinds ("+kindNames()+")")
	cmd.Flags().StringVar(&repo, "repo", "", "only events for owner/name")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	return cmd
}
