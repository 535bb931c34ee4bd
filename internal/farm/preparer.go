// Package farm brings the daemon's view of the test database to a
// known state before a run: present, out of maintenance mode and
// running.
package farm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"mtest/internal/control"
	"mtest/internal/mapi"
	"mtest/pkg/logging"
)

// Controller is the slice of the daemon control channel the preparer
// drives. *control.Client satisfies it.
type Controller interface {
	Status(ctx context.Context, database string) (control.Status, error)
	Create(ctx context.Context, database string) error
	Destroy(ctx context.Context, database string) error
	Release(ctx context.Context, database string) error
	Start(ctx context.Context, database string) error
	Stop(ctx context.Context, database string) error
}

// Preparer readies one database for a test run.
type Preparer struct {
	controller Controller
	database   string
	stream     io.Writer
}

// NewPreparer creates a new Preparer for the given database
func NewPreparer(controller Controller, database string) *Preparer {
	return &Preparer{
		controller: controller,
		database:   database,
		stream:     os.Stderr,
	}
}

// SetStream redirects the preparer's progress output
func (p *Preparer) SetStream(w io.Writer) {
	p.stream = w
}

type action struct {
	name string
	run  func(context.Context) error
}

// Prepare makes sure the database exists, is out of maintenance mode
// and is running. With fresh set an existing database is stopped and
// destroyed first, so the run starts against empty state.
func (p *Preparer) Prepare(ctx context.Context, fresh bool) error {
	fmt.Fprintf(p.stream, "\n%s\n", color.CyanString("╔════════════════════════════════════════════════════════════╗"))
	fmt.Fprintf(p.stream, "%s\n", color.CyanString("║                  Preparing Database Farm                   ║"))
	fmt.Fprintf(p.stream, "%s\n\n", color.CyanString("╚════════════════════════════════════════════════════════════╝"))

	fmt.Fprintf(p.stream, "%s\n\n", color.WhiteString("Database: %s | Fresh: %t", p.database, fresh))

	actions, err := p.plan(ctx, fresh)
	if err != nil {
		return fmt.Errorf("inspecting database %s: %w", p.database, err)
	}

	if len(actions) == 0 {
		fmt.Fprintf(p.stream, "%s\n", color.GreenString("✓ Database %q already running", p.database))
		return nil
	}

	bar := p.newBar(len(actions))
	startTime := time.Now()

	for _, act := range actions {
		logging.Debug("farm", "%s %s", act.name, p.database)
		if err := act.run(ctx); err != nil {
			bar.Clear()
			fmt.Fprintf(p.stream, "\n%s\n", color.RedString("✗ Farm preparation failed"))
			return fmt.Errorf("%s database %s: %w", act.name, p.database, err)
		}
		bar.Add(1)
		bar.Describe(color.CyanString("Preparing: ") + color.GreenString("[%s]", act.name))
	}

	bar.Finish()

	fmt.Fprintf(p.stream, "\n%s\n", color.GreenString("✓ Database %q ready", p.database))
	fmt.Fprintf(p.stream, "%s\n", color.WhiteString("Duration: %s", time.Since(startTime).Round(time.Millisecond)))
	return nil
}

// plan inspects the database and lists the control commands that take
// it from its current state to running.
func (p *Preparer) plan(ctx context.Context, fresh bool) ([]action, error) {
	status, exists, err := p.inspect(ctx)
	if err != nil {
		return nil, err
	}

	var actions []action
	add := func(name string, run func(context.Context) error) {
		actions = append(actions, action{name: name, run: run})
	}

	if fresh && exists {
		if status.State == control.StateRunning || status.State == control.StateStarting {
			add("stop", func(ctx context.Context) error { return p.controller.Stop(ctx, p.database) })
		}
		add("destroy", func(ctx context.Context) error { return p.controller.Destroy(ctx, p.database) })
		exists = false
	}

	if !exists {
		// A created database sits in maintenance mode.
		add("create", func(ctx context.Context) error { return p.controller.Create(ctx, p.database) })
		add("release", func(ctx context.Context) error { return p.controller.Release(ctx, p.database) })
		add("start", func(ctx context.Context) error { return p.controller.Start(ctx, p.database) })
		return actions, nil
	}

	if status.Locked {
		add("release", func(ctx context.Context) error { return p.controller.Release(ctx, p.database) })
	}
	if status.State != control.StateRunning {
		add("start", func(ctx context.Context) error { return p.controller.Start(ctx, p.database) })
	}
	return actions, nil
}

// inspect asks the daemon about the database. The daemon reports a
// missing database as an operational error.
func (p *Preparer) inspect(ctx context.Context) (control.Status, bool, error) {
	status, err := p.controller.Status(ctx, p.database)
	if err != nil {
		if errors.Is(err, mapi.ErrOperational) {
			return control.Status{}, false, nil
		}
		return control.Status{}, false, err
	}
	return status, true, nil
}

func (p *Preparer) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Preparing: ")),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(p.stream),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.stream, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
