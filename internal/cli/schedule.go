package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"jotter/internal/app"
	"jotter/internal/schedule"
	"jotter/internal/services/planner"
)

func newScheduleCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage time-boxed schedule entries",
		Long: "Entries are addressed by their position in the stored list (0-based). " +
			"Positions are recomputed on every call: deleting an entry shifts later ids down by one.",
	}
	cmd.AddCommand(
		newAddCommand(e),
		newListCommand(e),
		newEditCommand(e),
		newDeleteCommand(e),
		newSearchCommand(e),
		newGenCommand(e),
		newExtendCommand(e),
		newStatsCommand(e),
		newViewCommand(e, planner.ViewNow, "Entries in progress right now"),
		newViewCommand(e, planner.ViewOverdue, "Unfinished entries whose end has passed"),
		newViewCommand(e, planner.ViewUpcoming, "Entries that have not started yet"),
		newViewCommand(e, planner.ViewHistory, "Entries that ended in the last --days days"),
		newAuditCommand(e),
	)
	return cmd
}

// entryFlags are the field flags shared by add and edit.
type entryFlags struct {
	start, end, task, status, description string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.start, "start", "", "start time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	fl.StringVar(&f.end, "end", "", "end time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	fl.StringVar(&f.task, "task", "", "task label")
	fl.StringVar(&f.status, "status", "", "status (未完成, 进行中, 已完成, 搁置, 延期 or any text)")
	fl.StringVar(&f.description, "description", "", `notes; a literal \n becomes a newline`)
}

// fields returns only the flags set on the command line.
func (f *entryFlags) fields(cmd *cobra.Command) schedule.Fields {
	var out schedule.Fields
	set := func(name string, v string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	out.Start = set("start", f.start)
	out.End = set("end", f.end)
	out.Task = set("task", f.task)
	out.Status = set("status", f.status)
	out.Description = set("description", schedule.DecodeEscapes(f.description))
	return out
}

// idFlag accepts --id and its synonym --index.
type idFlag struct{ id, index int }

func (f *idFlag) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.id, "id", 0, "entry id (position in the list)")
	cmd.Flags().IntVar(&f.index, "index", 0, "synonym for --id")
}

func (f *idFlag) resolve(cmd *cobra.Command) (int, error) {
	byID, byIndex := cmd.Flags().Changed("id"), cmd.Flags().Changed("index")
	switch {
	case byID && byIndex && f.id != f.index:
		return 0, schedule.NewError(schedule.InvalidArgument, "id", fmt.Sprintf("%d/%d", f.id, f.index),
			fmt.Errorf("--id and --index disagree"))
	case byID:
		return f.id, nil
	case byIndex:
		return f.index, nil
	default:
		return 0, schedule.NewError(schedule.InvalidArgument, "id", "", fmt.Errorf("--id or --index is required"))
	}
}

func addFormatFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "format", "o", formatText, "output format: text, json or yaml")
}

// withApp opens the app and a printer for cmd.
func withApp(e *env, cmd *cobra.Command, format string) (*app.App, *printer, error) {
	p, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return nil, nil, err
	}
	a, err := e.open()
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

func newAddCommand(e *env) *cobra.Command {
	var (
		f      entryFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			id, entry, err := a.Planner().Add(cmd.Context(), f.fields(cmd))
			if err != nil {
				return err
			}
			if p.format == formatText {
				fmt.Fprintf(cmd.OutOrStdout(), "added #%d\n", id)
			}
			return p.one(id, entry)
		},
	}
	f.register(cmd)
	addFormatFlag(cmd, &format)
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func newListCommand(e *env) *cobra.Command {
	var (
		q      planner.ListQuery
		format string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in stored order",
		Long:  "Date filters select entries whose window overlaps [start-date, end-date]. A date-only end-date covers the whole day.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			items, err := a.Planner().List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return p.items(items)
		},
	}
	cmd.Flags().StringVar(&q.Status, "status", "", "exact status match")
	cmd.Flags().StringVar(&q.StartDate, "start-date", "", "range start")
	cmd.Flags().StringVar(&q.EndDate, "end-date", "", "range end")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "show at most N entries (0 = all)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newEditCommand(e *env) *cobra.Command {
	var (
		f      entryFlags
		id     idFlag
		format string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change fields of one entry",
		Long:  "Only the flags given are changed. start <= end is not re-checked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := id.resolve(cmd)
			if err != nil {
				return err
			}
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			entry, err := a.Planner().Edit(cmd.Context(), n, f.fields(cmd))
			if err != nil {
				return err
			}
			if p.format == formatText {
				fmt.Fprintf(cmd.OutOrStdout(), "updated #%d\n", n)
			}
			return p.one(n, entry)
		},
	}
	f.register(cmd)
	id.register(cmd)
	addFormatFlag(cmd, &format)
	return cmd
}

func newDeleteCommand(e *env) *cobra.Command {
	var id idFlag
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove one entry (later ids shift down)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := id.resolve(cmd)
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			removed, err := a.Planner().Delete(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: deleted #%d %s\n", n, removed.Task)
			return nil
		},
	}
	id.register(cmd)
	return cmd
}

func newSearchCommand(e *env) *cobra.Command {
	var field, format string
	cmd := &cobra.Command{
		Use:   "search [KEYWORD]",
		Short: "Case-sensitive substring search",
		Long:  "Without --field the keyword is matched against task and description.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			var kw string
			if len(args) == 1 {
				kw = args[0]
			}
			items, err := a.Planner().Search(cmd.Context(), kw, field)
			if err != nil {
				return err
			}
			return p.items(items)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "task, description or status")
	addFormatFlag(cmd, &format)
	return cmd
}

func newExtendCommand(e *env) *cobra.Command {
	var (
		id     idFlag
		by     string
		format string
	)
	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Push an entry's end later and mark it 延期",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := id.resolve(cmd)
			if err != nil {
				return err
			}
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			entry, err := a.Planner().Extend(cmd.Context(), n, by)
			if err != nil {
				return err
			}
			if p.format == formatText {
				fmt.Fprintf(cmd.OutOrStdout(), "extended #%d\n", n)
			}
			return p.one(n, entry)
		},
	}
	id.register(cmd)
	cmd.Flags().StringVar(&by, "by", "", "duration (30分钟, 1.5小时, 1h30m)")
	_ = cmd.MarkFlagRequired("by")
	addFormatFlag(cmd, &format)
	return cmd
}

func newStatsCommand(e *env) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count entries per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			st, order, err := a.Planner().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return p.stats(st, order)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newViewCommand(e *env, v planner.View, short string) *cobra.Command {
	var (
		format string
		days   int
	)
	cmd := &cobra.Command{
		Use:   string(v),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			items, err := a.Planner().View(cmd.Context(), v, days)
			if err != nil {
				return err
			}
			return p.items(items)
		},
	}
	if v == planner.ViewHistory {
		cmd.Flags().IntVar(&days, "days", 7, "look back this many days")
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newAuditCommand(e *env) *cobra.Command {
	var (
		n      int
		format string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent schedule changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, p, err := withApp(e, cmd, format)
			if err != nil {
				return err
			}
			recs, err := a.Planner().Audit(cmd.Context(), n)
			if err != nil {
				return err
			}
			return p.audit(recs)
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 20, "number of records")
	addFormatFlag(cmd, &format)
	return cmd
}
