package cli

import (
	"encoding/json"
	"fmt"

	"github.com/leadvett/backend/internal/cache"
	"github.com/leadvett/backend/internal/config"
	"github.com/leadvett/backend/internal/database"
	"github.com/leadvett/backend/internal/generator"
	"github.com/leadvett/backend/internal/leads"
	"github.com/spf13/cobra"
)

func FixPendingCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "fix-pending",
		Short: "Analyze every stored lead that has no verdict yet, across all agencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect()
			if err != nil {
				return err
			}
			defer db.Close()

			aiCfg := config.LoadAIConfig()
			narrator := generator.NewNarrator(generator.NewLLMClient(aiCfg), aiCfg.Timeout())
			svc := leads.NewService(leads.NewStore(db), leads.NewAnalyzer(narrator), cache.NewFormCache(nil))
			svc.SetConcurrency(concurrency)

			resp, err := svc.FixAllPending(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range resp.Results {
				if r.Success {
					fmt.Fprintf(out, "ok\t%s\t%s\t%s\t%d%%\n", r.ID, r.Email, r.Badge, r.Confidence)
				} else {
					fmt.Fprintf(out, "failed\t%s\t%s\t%s\n", r.ID, r.Email, r.Error)
				}
			}
			fmt.Fprintln(out, resp.Message)
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Leads analyzed at once (default FIX_PENDING_CONCURRENCY or 4)")
	return cmd
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			status := map[string]string{"status": "ok", "database": config.GetEnv("DB_NAME", "leadvett")}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
		},
	}
}
