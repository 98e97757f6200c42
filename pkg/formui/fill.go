package formui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

// Values are the selections made by Fill.
type Values struct {
	Engine      formdeps.ID
	Plan        formdeps.ID
	Environment formdeps.ID
	Endpoint    string
}

const settlePoll = 10 * time.Millisecond

// Fill completes the form without a terminal. Each selection goes through
// the same controller cascade as an interactive session and must be among
// the options loaded for it.
func Fill(ctx context.Context, source Source, values Values, logger *slog.Logger) (Submission, error) {
	if source == nil {
		return Submission{}, errors.New("source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	engines, err := source.Engines(ctx)
	if err != nil {
		return Submission{}, fmt.Errorf("load engines: %s", formdeps.Notice(err))
	}

	form := formdeps.NewForm()
	form.Engine.Append(engines...)

	// notice is only touched on the loop goroutine.
	var notice string
	loop := formdeps.NewEventLoop(0)
	ctrl, err := formdeps.NewController(formdeps.Dependencies{
		Engine:      form.Engine,
		Plan:        form.Plan,
		Environment: form.Environment,
		Endpoint:    form.Endpoint,
		Source:      source,
		Notifier:    formdeps.NotifierFunc(func(message string) { notice = message }),
		Runner:      loop,
		Logger:      logger,
	})
	if err != nil {
		return Submission{}, err
	}

	loopCtx, stop := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		ctrl.Close()
		stop()
		<-stopped
		loop.Wait()
	}()

	call := func(fn func()) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		done := make(chan struct{})
		if !loop.Post(func() { fn(); close(done) }) {
			return errors.New("form loop stopped")
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// choose selects id in field, fires changed and waits for the cascade to
	// settle.
	choose := func(field *formdeps.FieldState, id formdeps.ID, changed func()) error {
		if id.IsNone() {
			return fmt.Errorf("%s is required", field.Name())
		}
		var offered bool
		if err := call(func() {
			notice = ""
			if offered = field.Select(id); offered && changed != nil {
				changed()
			}
		}); err != nil {
			return err
		}
		if !offered {
			return fmt.Errorf("%s %s is not offered (choose one of %s)", field.Name(), id, optionList(field))
		}
		return settle(ctx, call, ctrl, &notice)
	}

	if err := choose(form.Engine, values.Engine, ctrl.EngineChanged); err != nil {
		return Submission{}, err
	}
	if err := choose(form.Plan, values.Plan, ctrl.PlanChanged); err != nil {
		return Submission{}, err
	}
	if err := choose(form.Environment, values.Environment, nil); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		Engine:      form.Engine.Selected(),
		Plan:        form.Plan.Selected(),
		Environment: form.Environment.Selected(),
	}
	if form.Endpoint.Visible() {
		sub.Endpoint = strings.TrimSpace(values.Endpoint)
	} else if values.Endpoint != "" {
		logger.Warn("endpoint ignored for this engine", "engine", sub.Engine)
	}
	return sub, nil
}

// settle waits until neither dependent field is fetching and returns the
// notice of a failed refresh.
func settle(ctx context.Context, call func(func()) error, ctrl *formdeps.Controller, notice *string) error {
	for {
		var busy, failed bool
		var message string
		if err := call(func() {
			plans, envs := ctrl.PlanState(), ctrl.EnvironmentState()
			busy = plans == formdeps.StateFetching || envs == formdeps.StateFetching
			failed = plans == formdeps.StateFailed || envs == formdeps.StateFailed
			message = *notice
		}); err != nil {
			return err
		}
		if !busy {
			if failed {
				if message == "" {
					message = formdeps.InvalidResponseNotice
				}
				return errors.New(message)
			}
			return nil
		}
		select {
		case <-time.After(settlePoll):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func optionList(field *formdeps.FieldState) string {
	var ids []string
	for _, o := range field.Options() {
		if !o.ID.IsNone() {
			ids = append(ids, o.ID.String())
		}
	}
	if len(ids) == 0 {
		return "none available"
	}
	return strings.Join(ids, ", ")
}
