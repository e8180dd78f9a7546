package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/akawula/TaskMatic/internal/config"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

const defaultSinceDays = 30

type doneTaskLister interface {
	ListDoneTasksSince(ctx context.Context, since time.Time) ([]sqlc.Task, error)
}

type result struct {
	Checked int
	Updated int
	Failed  int
}

// sinceFromEnv reads RECOMPUTE_SINCE_DAYS; non-positive values fall back to the default.
func sinceFromEnv(now time.Time) time.Time {
	days := config.GetInt("RECOMPUTE_SINCE_DAYS", defaultSinceDays)
	if days <= 0 {
		days = defaultSinceDays
	}
	return now.AddDate(0, 0, -days)
}

// recompute re-derives elapsed hours for every task finished after since.
// A failing task is logged and skipped.
func recompute(ctx context.Context, db doneTaskLister, svc *tasks.Service, since time.Time, l *slog.Logger) (result, error) {
	var res result

	done, err := db.ListDoneTasksSince(ctx, since)
	if err != nil {
		return res, fmt.Errorf("can't fetch done tasks: %w", err)
	}

	max := len(done)
	for i, t := range done {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		hours, changed, err := svc.Recompute(ctx, t)
		if err != nil {
			res.Failed++
			l.Error("there was a problem while recomputing elapsed hours", "task", t.ID, "error", err)
			continue
		}
		if changed {
			res.Updated++
			l.Info(fmt.Sprintf("Updated elapsed hours [%d/%d]", i+1, max), "task", t.ID, "before", t.ElapsedHours.Float64, "after", hours)
			continue
		}
		l.Debug(fmt.Sprintf("Elapsed hours unchanged [%d/%d]", i+1, max), "task", t.ID, "hours", hours)
	}

	return res, nil
}

func main() {
	config.LoadDotEnv()
	l := config.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbConf, err := config.DatabaseFromEnv()
	if err != nil {
		l.Error("database configuration is incomplete", "error", err)
		os.Exit(1)
	}
	cal, err := timeutils.LoadCalendarFromEnv()
	if err != nil {
		l.Error("can't load working calendar", "error", err)
		os.Exit(1)
	}

	db, err := store.NewPostgres(ctx, dbConf.URL(), l)
	if err != nil {
		l.Error("can't connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := &tasks.Service{Store: db, Calendar: cal, Logger: l}
	since := sinceFromEnv(time.Now())
	l.Info("Starting elapsed hours recomputation", "since", since.Format(time.DateOnly), "calendar", cal.String())

	res, err := recompute(ctx, db, svc, since, l)
	if err != nil {
		l.Error("recomputation stopped", "error", err)
	}
	l.Info("Finished elapsed hours recomputation", "checked", res.Checked, "updated", res.Updated, "failed", res.Failed)
	if err != nil || res.Failed > 0 {
		db.Close()
		os.Exit(1)
	}
}
