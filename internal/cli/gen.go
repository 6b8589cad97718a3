package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"jotter/internal/generator"
)

func newGenCommand(e *env) *cobra.Command {
	var yes, noReview bool
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Split a total duration into consecutive entries",
		Long: "First walks entries in progress and overdue entries, offering to mark them done, " +
			"extend them, put them on hold or edit their description. Then prompts for the total duration, the unit per entry, the start time, the name " +
			"template ({n} is the 1-based entry number) and the status, then one description per " +
			"entry. A remainder shorter than the unit is dropped. Nothing is saved if any answer is invalid.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := newPrompter(cmd.InOrStdin(), out)
			if !noReview {
				if err := newReviewer(a.Planner(), p, out).run(cmd.Context()); err != nil {
					return err
				}
			}

			var in generator.Inputs
			steps := []struct {
				label string
				dst   *string
			}{
				{"total duration (e.g. 8, 8小时, 90分钟): ", &in.Total},
				{"unit per entry (e.g. 2小时, 45m): ", &in.Unit},
				{"start time [now]: ", &in.Start},
				{fmt.Sprintf("name template [%s]: ", genDefault(a.Config().Generator.DefaultTemplate, generator.DefaultTemplate)), &in.Template},
				{fmt.Sprintf("status [%s]: ", genDefault(a.Config().Generator.DefaultStatus, generator.DefaultStatus)), &in.Status},
			}
			for _, s := range steps {
				if *s.dst, err = p.ask(s.label); err != nil {
					return err
				}
			}
			plan, err := a.Planner().PlanGeneration(in)
			if err != nil {
				return err
			}

			slots := plan.Slots()
			if len(slots) == 0 {
				fmt.Fprintf(out, "total %s is shorter than one unit of %s; nothing to generate\n", plan.Total, plan.Unit)
				return nil
			}
			fmt.Fprintf(out, "%d entries of %s", len(slots), plan.Unit)
			if r := plan.Remainder(); r > 0 {
				fmt.Fprintf(out, " (%s left over, dropped)", r)
			}
			fmt.Fprintln(out)

			descs := make([]string, len(slots))
			for i, s := range slots {
				label := fmt.Sprintf("[%d] %s %s → %s  description: ",
					s.N, s.Task, s.Start.Format("2006-01-02 15:04"), s.End.Format("15:04"))
				if descs[i], err = p.ask(label); err != nil {
					return err
				}
			}
			if !yes {
				ok, err := p.confirm(fmt.Sprintf("save %d entries? [Y/n] ", len(slots)), true)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "discarded")
					return nil
				}
			}

			first, added, err := a.Planner().Generate(cmd.Context(), plan, descs)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "added #%d..#%d\n", first, first+len(added)-1)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "save without the final confirmation")
	cmd.Flags().BoolVar(&noReview, "no-review", false, "skip the review of current and overdue entries")
	return cmd
}

func genDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
