// Package formui is an interactive terminal rendition of the database
// creation form. The Engine, Plan and Environment selects and the Endpoint
// section are kept consistent by a formdeps.Controller running on the
// bubbletea event loop.
package formui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

// Source provides the Engine options and the dependent Plan and Environment
// options.
type Source interface {
	formdeps.OptionSource
	Engines(ctx context.Context) ([]formdeps.Option, error)
}

// Submission is a form that passed validation.
type Submission struct {
	Engine      formdeps.ID `json:"engine" yaml:"engine"`
	Plan        formdeps.ID `json:"plan" yaml:"plan"`
	Environment formdeps.ID `json:"environment" yaml:"environment"`
	Endpoint    string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Options configure a Model.
type Options struct {
	// Engine preselects an engine once the engine list has loaded.
	Engine formdeps.ID
	Keys   *KeyMap
	Logger *slog.Logger
}

type focus int

const (
	focusEngine focus = iota
	focusPlan
	focusEnvironment
	focusEndpoint
)

// enginesMsg carries the result of loading the Engine options.
type enginesMsg struct {
	options []formdeps.Option
	err     error
}

// noticeBoard receives controller notices. It is shared by every copy of
// the Model.
type noticeBoard struct {
	text string
}

func (b *noticeBoard) Notify(message string) { b.text = message }

// Model is the bubbletea model of the form.
type Model struct {
	form   *formdeps.Form
	ctrl   *formdeps.Controller
	runner *teaRunner
	board  *noticeBoard
	source Source
	keys   KeyMap
	logger *slog.Logger

	presetEngine formdeps.ID
	focus        focus
	endpoint     string
	fieldErrors  map[focus]string
	logLine      string
	logLevel     slog.Level
	width        int

	submission *Submission
	cancelled  bool
}

// NewModel creates the form model backed by source.
func NewModel(source Source, opts Options) (Model, error) {
	if source == nil {
		return Model{}, errors.New("source is required")
	}
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	form := formdeps.NewForm()
	runner := &teaRunner{}
	board := &noticeBoard{}
	ctrl, err := formdeps.NewController(formdeps.Dependencies{
		Engine:      form.Engine,
		Plan:        form.Plan,
		Environment: form.Environment,
		Endpoint:    form.Endpoint,
		Source:      source,
		Notifier:    board,
		Runner:      runner,
		Logger:      logger,
	})
	if err != nil {
		return Model{}, err
	}

	return Model{
		form:         form,
		ctrl:         ctrl,
		runner:       runner,
		board:        board,
		source:       source,
		keys:         keys,
		logger:       logger,
		presetEngine: opts.Engine,
		fieldErrors:  map[focus]string{},
	}, nil
}

// Form returns the fields the model edits.
func (m Model) Form() *formdeps.Form { return m.form }

// Submission returns the validated form once the user saved it.
func (m Model) Submission() (Submission, bool) {
	if m.submission == nil {
		return Submission{}, false
	}
	return *m.submission, true
}

// Cancelled reports whether the user left without saving.
func (m Model) Cancelled() bool { return m.cancelled }

// Close cancels the requests still in flight.
func (m Model) Close() { m.ctrl.Close() }

// Init loads the Engine options.
func (m Model) Init() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		opts, err := source.Engines(context.Background())
		return enginesMsg{options: opts, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case enginesMsg:
		m.loadEngines(msg)
		return m, m.runner.flush()

	case applyMsg:
		if msg.apply != nil {
			msg.apply()
		}
		return m, m.runner.flush()

	case logRecordMsg:
		m.logLine = msg.summary
		m.logLevel = msg.level
		return m, fadeLog(msg.summary)

	case logFadeMsg:
		if m.logLine == msg.summary {
			m.logLine = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) loadEngines(msg enginesMsg) {
	if msg.err != nil {
		m.logger.Warn("loading engines failed", "error", msg.err)
		m.board.Notify(formdeps.Notice(msg.err))
		return
	}
	m.form.Engine.Reset()
	m.form.Engine.Append(msg.options...)
	if !m.presetEngine.IsNone() && m.form.Engine.Select(m.presetEngine) {
		m.ctrl.EngineChanged()
	} else {
		// Endpoint starts visible; bring it in line with the empty Engine.
		m.ctrl.UpdateEndpointVisibility()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		m.ctrl.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)

	case key.Matches(msg, m.keys.Previous):
		m.moveFocus(-1)

	case key.Matches(msg, m.keys.Up):
		m.step(-1)

	case key.Matches(msg, m.keys.Down):
		m.step(1)

	case key.Matches(msg, m.keys.Submit):
		if m.submit() {
			m.ctrl.Close()
			return m, tea.Quit
		}

	case m.focus == focusEndpoint:
		m.editEndpoint(msg)
	}

	m.clampFocus()
	return m, m.runner.flush()
}

// focusable returns the fields the cursor can visit.
func (m Model) focusable() []focus {
	fields := []focus{focusEngine, focusPlan, focusEnvironment}
	if m.form.Endpoint.Visible() {
		fields = append(fields, focusEndpoint)
	}
	return fields
}

func (m *Model) moveFocus(delta int) {
	fields := m.focusable()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	m.focus = fields[pos]
}

// clampFocus moves the cursor off the Endpoint once it is hidden.
func (m *Model) clampFocus() {
	if m.focus == focusEndpoint && !m.form.Endpoint.Visible() {
		m.focus = focusEnvironment
	}
}

// step moves the selection of the focused select and fires its change
// handler.
func (m *Model) step(delta int) {
	field := m.selectField(m.focus)
	if field == nil {
		return
	}
	if !field.SelectIndex(field.Index() + delta) {
		return
	}
	delete(m.fieldErrors, m.focus)
	m.board.Notify("")

	switch m.focus {
	case focusEngine:
		m.ctrl.EngineChanged()
		m.clampFocus()
	case focusPlan:
		m.ctrl.PlanChanged()
	}
}

func (m *Model) editEndpoint(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyBackspace:
		if m.endpoint != "" {
			r := []rune(m.endpoint)
			m.endpoint = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.endpoint += string(msg.Runes)
	}
}

func (m Model) selectField(f focus) *formdeps.FieldState {
	switch f {
	case focusEngine:
		return m.form.Engine
	case focusPlan:
		return m.form.Plan
	case focusEnvironment:
		return m.form.Environment
	}
	return nil
}

// submit validates the form. A rejected form is redisplayed: the Plan
// options are reloaded, the Environment options cleared, and the previous
// Plan and Environment restored once the new options contain them.
func (m *Model) submit() bool {
	m.fieldErrors = map[focus]string{}
	for _, f := range []focus{focusEngine, focusPlan, focusEnvironment} {
		if m.selectField(f).Selected().IsNone() {
			m.fieldErrors[f] = "This field is required."
		}
	}
	endpoint := strings.TrimSpace(m.endpoint)
	if !m.form.Endpoint.Visible() {
		endpoint = ""
	}

	if len(m.fieldErrors) > 0 {
		m.board.Notify("Please correct the errors below.")
		m.logger.Debug("form rejected", "errors", len(m.fieldErrors))
		m.ctrl.EngineChanged()
		return false
	}

	m.submission = &Submission{
		Engine:      m.form.Engine.Selected(),
		Plan:        m.form.Plan.Selected(),
		Environment: m.form.Environment.Selected(),
		Endpoint:    endpoint,
	}
	return true
}
