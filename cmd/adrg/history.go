package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aristath/adrg/internal/persistence"
)

// showHistory prints recent runs, or the task results of one run.
func showHistory(ctx context.Context, opts *options, stdout, stderr io.Writer) int {
	if opts.ledgerPath == "" {
		fmt.Fprintln(stderr, "Error: -history and -run require -ledger")
		return 2
	}

	store, err := persistence.NewSQLiteStore(ctx, opts.ledgerPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening ledger: %v\n", err)
		return 1
	}
	defer store.Close()

	if opts.showRun != "" {
		err = printRun(ctx, store, opts.showRun, stdout)
	} else {
		err = printRuns(ctx, store, opts.history, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printRuns(ctx context.Context, store *persistence.SQLiteStore, limit int, w io.Writer) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		outcome := r.Outcome
		if !r.Finished() {
			outcome = "unfinished"
		}
		took := ""
		if r.Finished() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.ID,
			humanize.Time(r.StartedAt),
			outcome,
			strconv.Itoa(len(r.TaskIDs)),
			took,
			r.Error,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Run", "Started", "Outcome", "Tasks", "Time", "Error"}, rows))
	return nil
}

func printRun(ctx context.Context, store *persistence.SQLiteStore, runID string, w io.Writer) error {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	records, err := store.GetRunResults(ctx, runID)
	if err != nil {
		return err
	}

	outcome := run.Outcome
	if !run.Finished() {
		outcome = "unfinished"
	}
	fmt.Fprintf(w, "Run %s (%s, started %s)\n", run.ID, outcome, humanize.Time(run.StartedAt))
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}

	// Tasks that never ran have no record; list them as pending.
	byTask := make(map[string]persistence.TaskRecord, len(records))
	for _, rec := range records {
		byTask[rec.TaskID] = rec
	}
	rows := make([][]string, 0, len(run.TaskIDs))
	for _, id := range run.TaskIDs {
		rec, ok := byTask[id]
		if !ok {
			rows = append(rows, []string{id, "pending", "", "", ""})
			continue
		}
		rows = append(rows, []string{id, rec.Status, rec.Agent, rec.OutputPath, rec.Error})
	}
	fmt.Fprintln(w, renderTable([]string{"Task", "Status", "Agent", "Output", "Error"}, rows))
	return nil
}
