package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/enroll"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan assignment commands",
	}

	cmd.AddCommand(newPlanAssignCmd())
	cmd.AddCommand(newPlanListCmd())
	return cmd
}

func newPlanAssignCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		startDate  string
	)

	cmd := &cobra.Command{
		Use:   "assign <template-id>",
		Short: "Enroll a user in a plan template",
		Long: `Expands the template's phases from the start date and creates one task
per blueprint, each truncated to its phase window.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if startDate == "" {
				startDate = dates.Today()
			}
			assignment, err := enroll.Assign(gormDB, userID, args[0], startDate)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created assignment %s: %d tasks starting %s\n",
				assignment.ID, len(assignment.Tasks), assignment.StartDate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to enroll (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "enrollment start date (YYYY-MM-DD, default today)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newPlanListCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plan assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			rows, err := enroll.List(gormDB, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No assignments found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEMPLATE\tUSER\tSTART\tTASKS")
			for _, a := range rows {
				name := a.Template.Name
				if name == "" {
					name = a.TemplateID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					a.ID, truncate(name, 40), a.UserID, a.StartDate, len(a.Tasks))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "filter by user ID")
	return cmd
}
