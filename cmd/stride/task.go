package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/mgrier/stride/internal/config"
	"github.com/mgrier/stride/internal/dates"
	"github.com/mgrier/stride/internal/db"
	"github.com/mgrier/stride/internal/habit"
	"github.com/mgrier/stride/internal/recurrence"
	"github.com/mgrier/stride/internal/task"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskDoneCmd())
	cmd.AddCommand(newTaskStatsCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		configPath     string
		userID         string
		title          string
		kind           string
		category       string
		startDate      string
		target         float64
		unit           string
		recurrenceJSON string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new task",
		Long: `Creates a habit task for a user. Without --recurrence the task is due
every day; pass a recurrence rule as JSON to schedule it, e.g.
'{"type":"weekly","mode":"specificDays","weekDays":[1,3,5]}'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rule *habit.Rule
			if recurrenceJSON != "" {
				rule = &habit.Rule{}
				if err := json.Unmarshal([]byte(recurrenceJSON), rule); err != nil {
					return fmt.Errorf("parse --recurrence: %w", err)
				}
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			row, err := task.Create(gormDB, task.CreateOpts{
				UserID:      userID,
				Title:       title,
				Kind:        kind,
				Category:    category,
				StartDate:   startDate,
				DailyTarget: target,
				Unit:        unit,
				Recurrence:  rule,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", row.ID, row.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "owning user ID (required)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "task kind: binary, quantitative, checklist")
	cmd.Flags().StringVar(&category, "category", "", "category ID")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&target, "target", 0, "daily target for quantitative tasks")
	cmd.Flags().StringVar(&unit, "unit", "", "unit label for quantitative tasks")
	cmd.Flags().StringVar(&recurrenceJSON, "recurrence", "", "recurrence rule as JSON")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		category   string
		dueOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(cmd, configPath, userID, category, dueOnly)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "filter by user ID")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().BoolVar(&dueOnly, "due", false, "only tasks due today")
	return cmd
}

func runTaskList(cmd *cobra.Command, configPath, userID, category string, dueOnly bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	rows, err := task.List(gormDB, task.ListFilters{UserID: userID, Category: category})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	today := dates.Today()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tKIND\tCATEGORY\tRECURRENCE\tDUE")
	n := 0
	for i := range rows {
		def := task.Decode(&rows[i])
		due := recurrence.IsDue(def, today)
		if dueOnly && !due {
			continue
		}
		cat := rows[i].Category
		if cat == "" {
			cat = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rows[i].ID, truncate(rows[i].Title, 40), def.Kind, cat, formatRule(def.Recurrence), checkmark(due))
		n++
	}
	w.Flush()
	if n == 0 {
		fmt.Fprintln(out, "No tasks found.")
	}
	return nil
}

func newTaskDoneCmd() *cobra.Command {
	var (
		configPath string
		dateStr    string
		value      float64
	)

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Record a completion for a task",
		Long: `Marks a task done for a date (default today). For quantitative tasks,
pass --value to record an amount instead of a plain checkmark.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if dateStr == "" {
				dateStr = dates.Today()
			}
			v := habit.BoolValue(true)
			if cmd.Flags().Changed("value") {
				v = habit.NumValue(value)
			}

			row, err := task.RecordHistory(gormDB, args[0], dateStr, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s on %s\n", args[0], row.Title, dateStr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "completion date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&value, "value", 0, "recorded amount for quantitative tasks")
	return cmd
}

func newTaskStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show streak and progress for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			row, err := task.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			stats, err := task.StatsFor(gormDB, args[0], dates.Today())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task:            %s (%s)\n", row.Title, row.ID)
			fmt.Fprintf(out, "Streak:          %d\n", stats.Streak)
			fmt.Fprintf(out, "Total done:      %d\n", stats.Total)
			if stats.PeriodTarget > 0 {
				fmt.Fprintf(out, "This period:     %s of %d\n", formatCount(stats.PeriodProgress), stats.PeriodTarget)
			} else {
				fmt.Fprintf(out, "This period:     %s\n", formatCount(stats.PeriodProgress))
			}
			fmt.Fprintf(out, "Done today:      %s\n", checkmark(stats.CompletedToday))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	return cmd
}

// connectFromConfig loads config and returns a GORM DB connection for the
// configured driver.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var gormDB *gorm.DB
	if cfg.DB.Driver == "sqlite" {
		gormDB, err = db.ConnectSQLite(cfg.DB.Path)
	} else {
		gormDB, err = db.Connect(cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, gormDB, nil
}
