package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/akawula/TaskMatic/internal/config"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/slack"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

type completedLister interface {
	ListCompletedTasksBetween(ctx context.Context, start, end time.Time) ([]sqlc.CompletedTaskRow, error)
}

// previousDay returns the calendar day before now, in loc.
func previousDay(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -1), end
}

func sendDigest(ctx context.Context, db completedLister, n slack.Notifier, start, end time.Time, baseURL string, l *slog.Logger) (int, error) {
	rows, err := db.ListCompletedTasksBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("can't fetch completed tasks: %w", err)
	}
	if len(rows) == 0 {
		l.Info("No tasks were completed", "from", start, "to", end)
		return 0, nil
	}

	events := make([]slack.TaskEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, tasks.NewEvent(r.Task, r.AssigneeUsername, baseURL))
	}
	if err := n.SendDigest(ctx, events); err != nil {
		return 0, err
	}
	return len(events), nil
}

func main() {
	config.LoadDotEnv()
	l := config.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	webhook := config.Get("SLACK_WEBHOOK_URL", "")
	if webhook == "" {
		l.Error("SLACK_WEBHOOK_URL is not set")
		os.Exit(1)
	}
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

	n := slack.New(webhook, l)
	if c, ok := n.(io.Closer); ok {
		defer c.Close()
	}

	start, end := previousDay(time.Now(), cal.Location())
	sent, err := sendDigest(ctx, db, n, start, end, config.Get("APP_BASE_URL", ""), l)
	if err != nil {
		l.Error("there was a problem while sending the digest", "error", err)
		return
	}
	l.Info("Digest sent", "tasks", sent, "day", start.Format(time.DateOnly))
}
