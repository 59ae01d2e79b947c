package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/store"
)

var (
	sessionsStatus string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted enrichment sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("no store configured")
		}
		defer st.Close()

		sessions, err := st.ListSessions(ctx, store.SessionFilter{
			Status: sessionsStatus,
			Limit:  sessionsLimit,
		})
		if err != nil {
			return err
		}

		for _, s := range sessions {
			fmt.Printf("%s  %-10s  %4d rows  %s\n",
				s.ID, s.Status, s.TotalRows, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Dump one session's row results as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("no store configured")
		}
		defer st.Close()

		sess, err := st.GetSession(ctx, args[0])
		if err != nil {
			return err
		}
		if sess == nil {
			return eris.Errorf("session not found: %s", args[0])
		}

		rows, err := st.ListSessionRows(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"session": sess, "rows": rows})
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "filter by status")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "max sessions to list")
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}
