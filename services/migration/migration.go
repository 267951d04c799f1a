// Package migration runs the whole batch: one replay session per
// record, hard failures contained at the per-post boundary.
package migration

import (
	"context"
	"log/slog"
	"time"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/post"
	"blogmigrate/lib/poststore"
	"blogmigrate/lib/surface"
	"blogmigrate/services/replay"

	"github.com/schollz/progressbar/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/migration")

type DriverOptions struct {
	Surface  surface.Surface
	Locators surface.LocatorTable
	Audit    *auditlog.Log
	// Store, when set, persists destination urls as posts complete.
	Store *poststore.Store

	FallbackAuthor string
	WaitTimeout    time.Duration
	// ShowProgress renders a terminal percentage indicator. Detailed
	// per-post outcomes live only in the audit log.
	ShowProgress bool
}

type Driver struct {
	opts DriverOptions
}

func NewDriver(opts DriverOptions) Driver {
	return Driver{opts: opts}
}

type Outcome struct {
	Record *post.Record
	Err    error
}

type Summary struct {
	Total    int
	Migrated int
	Failed   int
	// Skipped counts records that already had a destination url.
	Skipped  int
	Elapsed  time.Duration
	Outcomes []Outcome
}

// Run migrates records in order, one at a time; the interaction surface
// is serially reused and never shared between two live sessions. No
// failure aborts the batch.
func (d Driver) Run(ctx context.Context, records []*post.Record) Summary {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	start := time.Now()
	summary := Summary{Total: len(records)}

	var bar *progressbar.ProgressBar
	if d.opts.ShowProgress {
		bar = progressbar.Default(int64(len(records)), "migrating posts")
	}

	d.opts.Audit.Separator()
	d.opts.Audit.Info("migration batch started")

	for _, record := range records {
		outcome := Outcome{Record: record}

		switch {
		case ctx.Err() != nil:
			outcome.Err = ctx.Err()
			summary.Failed++
		case record.Migrated():
			slog.Info("skipping already migrated post", "source", record.SourceURL)
			summary.Skipped++
		default:
			outcome.Err = d.migrateOne(ctx, record)
			if outcome.Err != nil {
				summary.Failed++
			} else {
				summary.Migrated++
			}
		}

		summary.Outcomes = append(summary.Outcomes, outcome)
		if bar != nil {
			bar.Add(1)
		}
	}

	summary.Elapsed = time.Since(start)
	d.opts.Audit.Info("migration batch finished")
	d.opts.Audit.Separator()
	return summary
}

func (d Driver) migrateOne(ctx context.Context, record *post.Record) error {
	ctx, span := tracer.Start(ctx, "migrateOne")
	defer span.End()

	session := replay.NewSession(replay.SessionOptions{
		Surface:        d.opts.Surface,
		Locators:       d.opts.Locators,
		Audit:          d.opts.Audit,
		FallbackAuthor: d.opts.FallbackAuthor,
		WaitTimeout:    d.opts.WaitTimeout,
	})

	err := session.Run(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay failed")
		slog.Error(
			"failed to migrate post",
			"source", record.SourceURL,
			"err", err,
		)
		return err
	}

	slog.Info(
		"migrated post",
		"source", record.SourceURL,
		"destination", record.DestinationURL(),
	)

	if d.opts.Store != nil {
		err = d.opts.Store.SetDestination(ctx, record.SourceURL, record.DestinationURL())
		if err != nil {
			// the post exists on the destination, losing the bookkeeping
			// row must not count the migration as failed
			slog.Error(
				"failed to persist destination url",
				"source", record.SourceURL,
				"err", err,
			)
		}
	}
	return nil
}
