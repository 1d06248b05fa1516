package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harrylevesque/taskboard/internal/classify"
	"github.com/harrylevesque/taskboard/internal/dashboard"
	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func render(w io.Writer, st dashboard.State) error {
	if jsonOutput {
		return writeJSON(w, st)
	}

	p := st.Profile
	source := ""
	if st.ProfileFromCache {
		source = " (cached)"
	}
	fmt.Fprintf(w, "Job: %s   Status: %s%s\n", p.Job, p.Status, source)
	if p.MotivationalQuote != "" {
		fmt.Fprintf(w, "%q\n", p.MotivationalQuote)
	}
	if p.MentalSolution != "" {
		fmt.Fprintf(w, "Tip: %s\n", p.MentalSolution)
	}
	s := st.Summary
	fmt.Fprintf(w, "Progress: %d/%d done (%d%%), %d remaining\n", s.Done, s.Total, s.Percent, s.Remaining)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	taskSection(tw, st, "PRIORITY", st.Buckets.Priority)
	taskSection(tw, st, "REMINDERS", st.Buckets.Reminder)
	taskSection(tw, st, "OVERDUE", st.Buckets.Overdue)
	taskSection(tw, st, "RECENTLY COMPLETED", st.Buckets.Completed)
	goalSection(tw, st.Goals)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, d := range st.Degraded {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
	return nil
}

func taskSection(tw *tabwriter.Writer, st dashboard.State, title string, tasks []models.Task) {
	fmt.Fprintf(tw, "\n%s\n", title)
	if len(tasks) == 0 {
		fmt.Fprintln(tw, "  (none)")
		return
	}
	fmt.Fprintln(tw, "  ID\tTASK\tDUE\tCATEGORY\tSCORE\t")
	for _, t := range tasks {
		due := t.DueDate
		switch {
		case due == "" || due == utils.TodaySentinel:
			due = "TODAY"
		case classify.IsDueToday(t, st.LoadedAt):
			due += " (today)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\t\n", t.TaskID, t.TaskName, due, dash(t.Category), t.PriorityScore)
	}
}

func goalSection(tw *tabwriter.Writer, goals []models.Goal) {
	fmt.Fprintln(tw, "\nGOALS")
	if len(goals) == 0 {
		fmt.Fprintln(tw, "  (none)")
		return
	}
	fmt.Fprintln(tw, "  ID\tGOAL\tSTATUS\tPROGRESS\tTARGET\t")
	for _, g := range goals {
		target := "-"
		if g.TargetDate != nil {
			target = *g.TargetDate
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t\n", g.ID, g.Title, g.Status, bar(g.Progress), target)
	}
}

func bar(percent int) string {
	percent = models.ClampPriority(percent)
	filled := percent / 10
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", 10-filled), percent)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderDraft(w io.Writer, d dashboard.Draft) {
	if jsonOutput {
		_ = writeJSON(w, d)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Draft task\t%s\n", d.TaskID)
	fmt.Fprintf(tw, "  name\t%s\n", d.TaskName)
	fmt.Fprintf(tw, "  due\t%s\n", dash(d.DueDate))
	fmt.Fprintf(tw, "  category\t%s\n", dash(d.Category))
	fmt.Fprintf(tw, "  reasoning\t%s\n", dash(d.Reasoning))
	_ = tw.Flush()
}

func printAck(w io.Writer, ack dashboard.Ack) error {
	if jsonOutput {
		return writeJSON(w, ack)
	}
	msg := ack.Message
	if msg == "" {
		msg = "ok"
	}
	if !ack.Success {
		msg = "not confirmed: " + msg
	}
	fmt.Fprintln(w, msg)
	if ack.Note != "" {
		fmt.Fprintf(w, "note: %s\n", ack.Note)
	}
	return nil
}

func renderCache(w io.Writer, path string, p models.CachedProfile) error {
	if jsonOutput {
		return writeJSON(w, p)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", path)
	fmt.Fprintf(tw, "job\t%s\n", p.Job)
	fmt.Fprintf(tw, "status\t%s\n", p.Status)
	fmt.Fprintf(tw, "quote\t%s\n", dash(p.MotivationalQuote))
	fmt.Fprintf(tw, "problem\t%s\n", dash(p.MentalProblem))
	fmt.Fprintf(tw, "solution\t%s\n", dash(p.MentalSolution))
	return tw.Flush()
}
