package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"workdesk/internal/clock"
	"workdesk/internal/services"
	"workdesk/internal/store"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage the automation rule catalog",
}

func ruleService() (*services.RuleService, func(), error) {
	cfg, logger, err := bootstrap()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return services.NewRuleService(store.NewRuleStore(db), clock.Real(), logger), closeDB, nil
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List automation rules in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := ruleService()
		if err != nil {
			return err
		}
		defer done()
		rules, err := svc.List(context.Background())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPOSITION\tENABLED\tNAME")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", r.ID, r.Position, r.IsEnabled, r.Name)
		}
		return w.Flush()
	},
}

var rulesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default automation rules that are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := ruleService()
		if err != nil {
			return err
		}
		defer done()
		added, err := svc.SeedDefaults(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d rules\n", added)
		return nil
	},
}

func toggleCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule-id>",
		Short: use + " an automation rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := ruleService()
			if err != nil {
				return err
			}
			defer done()
			rule, err := svc.SetEnabled(context.Background(), args[0], enabled)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", rule.Name, rule.IsEnabled)
			return nil
		},
	}
}

func init() {
	rulesCmd.AddCommand(rulesListCmd, rulesSeedCmd, toggleCmd("enable", true), toggleCmd("disable", false))
	rootCmd.AddCommand(rulesCmd)
}
