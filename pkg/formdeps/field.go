package formdeps

import "context"

// DefaultPlaceholder is the label of the fixed first option of every
// dependent field.
const DefaultPlaceholder = "---------"

// Option is one entry of a field's option list.
type Option struct {
	ID    ID     `json:"id"`
	Label string `json:"name"`
}

// EngineField reads the current Engine selection: its id and display text.
type EngineField interface {
	Selection() (ID, string)
}

// SelectField is a dependent option list whose first entry is a placeholder.
type SelectField interface {
	// Selected returns the selected id, None when the placeholder is selected.
	Selected() ID
	// Select selects id if it is present among the options.
	Select(id ID) bool
	// Reset removes every option but the placeholder and selects it.
	Reset()
	// Append adds options after the existing ones, in the given order.
	Append(opts ...Option)
}

// Section is a form section that can be shown or hidden.
type Section interface {
	Visible() bool
	Show()
	Hide()
}

// Notifier reports a message to the user. Notices are informational; the
// form stays usable.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// OptionSource answers the two dependency queries of the form.
type OptionSource interface {
	// PlansForEngine returns the plans compatible with engineID.
	PlansForEngine(ctx context.Context, engineID ID) ([]Option, error)
	// EnvironmentsForPlan returns the environments a plan can be deployed to.
	EnvironmentsForPlan(ctx context.Context, planID ID) ([]Option, error)
}
