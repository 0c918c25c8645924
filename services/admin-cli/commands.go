package main

import (
	"encoding/json"
	"fmt"

	"lapordesa/services/report-service/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(cmd *cobra.Command, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(header)
	return tw
}

func staffCmd(e *env) *cobra.Command {
	staff := &cobra.Command{Use: "staff", Short: "Inspect field staff"}

	var search string
	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List staff with their current load",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			q := models.StaffQuery{Search: search}
			if activeOnly {
				q.IsActive = &activeOnly
			}
			members, err := svc.ListStaff(cmd.Context(), q)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, members)
			}

			tw := newTable(cmd, table.Row{"ID", "Name", "Department", "Active", "Load", "Capacity"})
			for _, m := range members {
				tw.AppendRow(table.Row{m.ID.Hex(), m.Name, m.Department, m.IsActive, m.CurrentLoad, m.MaxCapacity})
			}
			tw.Render()
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "match name, email or department")
	list.Flags().BoolVar(&activeOnly, "active", false, "only active staff")

	staff.AddCommand(list)
	return staff
}

func reconcileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute staff loads and report statuses from the tasks collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, result)
			}

			if len(result.LoadFixes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "staff loads already consistent")
			} else {
				tw := newTable(cmd, table.Row{"Staff", "Name", "Before", "After"})
				for _, f := range result.LoadFixes {
					tw.AppendRow(table.Row{f.StaffID.Hex(), f.Name, f.Before, f.After})
				}
				tw.Render()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reports moved to in progress: %d\n", len(result.ReportsStarted))
			fmt.Fprintf(cmd.OutOrStdout(), "reports reset to pending: %d\n", len(result.ReportsReset))
			return nil
		},
	}
}

func statsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show report and task counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			reports, err := svc.ReportStatistics(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := svc.TaskStatistics(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, map[string]interface{}{"reports": reports, "tasks": tasks})
			}

			tw := newTable(cmd, table.Row{"Metric", "Count"})
			tw.AppendRows([]table.Row{
				{"reports", reports.Total},
				{"reports pending", reports.ByStatus.Pending},
				{"reports in progress", reports.ByStatus.InProgress},
				{"reports completed", reports.ByStatus.Completed},
				{"tasks", tasks.Total},
				{"tasks belum", tasks.Status.NotStarted},
				{"tasks sedang", tasks.Status.InProgress},
				{"tasks selesai", tasks.Status.Done},
			})
			tw.Render()
			return nil
		},
	}
}
