package formdeps

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
)

// RefreshState is the progress of the latest refresh of a dependent field.
type RefreshState int

const (
	StateIdle RefreshState = iota
	StateClearing
	StateSkipped
	StateFetching
	StatePopulated
	StateFailed
)

func (s RefreshState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClearing:
		return "clearing"
	case StateSkipped:
		return "skipped"
	case StateFetching:
		return "fetching"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var mongoPattern = regexp.MustCompile(`(?i)mongo`)

// EndpointVisible reports whether the Endpoint section belongs on the form
// for the given Engine selection.
func EndpointVisible(engineID ID, engineText string) bool {
	return !engineID.IsNone() && !mongoPattern.MatchString(engineText)
}

// Dependencies are the collaborators of a Controller.
type Dependencies struct {
	Engine      EngineField
	Plan        SelectField
	Environment SelectField
	Endpoint    Section
	Source      OptionSource
	Notifier    Notifier
	Runner      Runner
	Logger      *slog.Logger
}

// fieldRefresh tracks the in-flight request of one dependent field.
type fieldRefresh struct {
	seq    uint64
	state  RefreshState
	cancel context.CancelFunc
}

// begin invalidates any in-flight request and returns the new sequence.
func (r *fieldRefresh) begin() uint64 {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.seq++
	r.state = StateClearing
	return r.seq
}

// Controller synchronizes the Engine, Plan, Environment and Endpoint fields.
//
// Every method except Close must be called on the event loop that the
// Runner delivers completions to. Each refresh bumps the field's sequence
// number; completions carrying an older sequence are dropped, so the last
// request wins no matter in which order responses arrive.
type Controller struct {
	engine      EngineField
	plan        SelectField
	environment SelectField
	endpoint    Section
	source      OptionSource
	notifier    Notifier
	runner      Runner
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	plans        fieldRefresh
	environments fieldRefresh
}

// NewController validates deps and returns a Controller.
func NewController(deps Dependencies) (*Controller, error) {
	switch {
	case deps.Engine == nil:
		return nil, errors.New("engine field is required")
	case deps.Plan == nil:
		return nil, errors.New("plan field is required")
	case deps.Environment == nil:
		return nil, errors.New("environment field is required")
	case deps.Endpoint == nil:
		return nil, errors.New("endpoint section is required")
	case deps.Source == nil:
		return nil, errors.New("option source is required")
	case deps.Notifier == nil:
		return nil, errors.New("notifier is required")
	case deps.Runner == nil:
		return nil, errors.New("runner is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		engine:      deps.Engine,
		plan:        deps.Plan,
		environment: deps.Environment,
		endpoint:    deps.Endpoint,
		source:      deps.Source,
		notifier:    deps.Notifier,
		runner:      deps.Runner,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Close cancels every in-flight request. Safe to call from any goroutine.
func (c *Controller) Close() { c.cancel() }

// PlanState returns the state of the latest Plan refresh.
func (c *Controller) PlanState() RefreshState { return c.plans.state }

// EnvironmentState returns the state of the latest Environment refresh.
func (c *Controller) EnvironmentState() RefreshState { return c.environments.state }

// EngineChanged handles a change of the Engine field.
func (c *Controller) EngineChanged() {
	c.UpdateEndpointVisibility()
	c.RefreshPlans()
	c.clearEnvironments()
}

// PlanChanged handles a direct change of the Plan field. The current
// Environment is kept if the new plan still offers it.
func (c *Controller) PlanChanged() {
	c.RefreshEnvironments(c.plan.Selected(), c.environment.Selected())
}

// UpdateEndpointVisibility shows or hides the Endpoint section. The section
// is only touched when its visibility actually changes.
func (c *Controller) UpdateEndpointVisibility() {
	show := EndpointVisible(c.engine.Selection())
	visible := c.endpoint.Visible()
	switch {
	case show && !visible:
		c.endpoint.Show()
	case !show && visible:
		c.endpoint.Hide()
	}
}

// RefreshPlans reloads the Plan options for the selected Engine. The Plan
// and Environment selections present before the reload are restored when
// the new options still contain them, which keeps a form redisplayed after
// a validation error intact.
func (c *Controller) RefreshPlans() {
	priorPlan := c.plan.Selected()
	priorEnvironment := c.environment.Selected()

	seq := c.plans.begin()
	c.plan.Reset()

	engineID, _ := c.engine.Selection()
	if engineID.IsNone() {
		c.plans.state = StateSkipped
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.plans.cancel = cancel
	c.plans.state = StateFetching
	c.logger.Debug("fetching plans", "engine", engineID, "seq", seq)

	c.runner.Go(func() func() {
		opts, err := c.source.PlansForEngine(ctx, engineID)
		return func() {
			c.applyPlans(seq, opts, err, priorPlan, priorEnvironment)
		}
	})
}

func (c *Controller) applyPlans(seq uint64, opts []Option, err error, priorPlan, priorEnvironment ID) {
	if seq != c.plans.seq {
		c.logger.Debug("dropping stale plan response", "seq", seq, "current", c.plans.seq)
		return
	}
	c.plans.cancel = nil
	if err != nil {
		c.plans.state = StateFailed
		c.report("plans", err)
		return
	}

	c.plan.Append(opts...)
	c.plans.state = StatePopulated

	if priorPlan.IsNone() {
		return
	}
	for _, o := range opts {
		if o.ID == priorPlan {
			c.plan.Select(priorPlan)
			c.RefreshEnvironments(priorPlan, priorEnvironment)
			return
		}
	}
}

// RefreshEnvironments reloads the Environment options for planID and selects
// preferred once the options arrive, if they contain it.
func (c *Controller) RefreshEnvironments(planID, preferred ID) {
	seq := c.environments.begin()
	c.environment.Reset()

	if planID.IsNone() {
		c.environments.state = StateSkipped
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.environments.cancel = cancel
	c.environments.state = StateFetching
	c.logger.Debug("fetching environments", "plan", planID, "seq", seq)

	c.runner.Go(func() func() {
		opts, err := c.source.EnvironmentsForPlan(ctx, planID)
		return func() {
			c.applyEnvironments(seq, opts, err, preferred)
		}
	})
}

func (c *Controller) applyEnvironments(seq uint64, opts []Option, err error, preferred ID) {
	if seq != c.environments.seq {
		c.logger.Debug("dropping stale environment response", "seq", seq, "current", c.environments.seq)
		return
	}
	c.environments.cancel = nil
	if err != nil {
		c.environments.state = StateFailed
		c.report("environments", err)
		return
	}

	c.environment.Append(opts...)
	c.environments.state = StatePopulated

	if preferred.IsNone() {
		return
	}
	for _, o := range opts {
		if o.ID == preferred {
			c.environment.Select(preferred)
			return
		}
	}
}

func (c *Controller) clearEnvironments() {
	c.environments.begin()
	c.environment.Reset()
	c.environments.state = StateSkipped
}

func (c *Controller) report(field string, err error) {
	c.logger.Warn("refresh failed", "field", field, "error", err)
	c.notifier.Notify(Notice(err))
}
