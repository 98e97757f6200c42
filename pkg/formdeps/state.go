package formdeps

import "sync"

// FieldState is an in-memory field: a placeholder followed by options, and
// the current selection. It implements EngineField and SelectField and is
// safe for concurrent use so renderers may read it from another goroutine.
type FieldState struct {
	mu          sync.RWMutex
	name        string
	placeholder Option
	options     []Option
	selected    ID
}

// NewFieldState returns a field holding only the placeholder.
func NewFieldState(name, placeholder string) *FieldState {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &FieldState{
		name:        name,
		placeholder: Option{ID: None, Label: placeholder},
	}
}

func (f *FieldState) Name() string { return f.name }

// Options returns a copy of the option list, placeholder first.
func (f *FieldState) Options() []Option {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Option, 0, len(f.options)+1)
	out = append(out, f.placeholder)
	return append(out, f.options...)
}

func (f *FieldState) Selected() ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selected
}

// Text returns the label of the selected option.
func (f *FieldState) Text() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.textLocked()
}

func (f *FieldState) textLocked() string {
	if f.selected == None {
		return f.placeholder.Label
	}
	for _, o := range f.options {
		if o.ID == f.selected {
			return o.Label
		}
	}
	return f.placeholder.Label
}

// Selection returns the selected id and its display text.
func (f *FieldState) Selection() (ID, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selected, f.textLocked()
}

// Select selects id. Selecting None always succeeds; any other id must be
// present among the options.
func (f *FieldState) Select(id ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == None {
		f.selected = None
		return true
	}
	for _, o := range f.options {
		if o.ID == id {
			f.selected = id
			return true
		}
	}
	return false
}

// Index returns the position of the selection in Options().
func (f *FieldState) Index() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i, o := range f.options {
		if o.ID == f.selected {
			return i + 1
		}
	}
	return 0
}

// SelectIndex selects the option at position i of Options(). Out of range
// positions are ignored.
func (f *FieldState) SelectIndex(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i > len(f.options) {
		return false
	}
	if i == 0 {
		f.selected = None
	} else {
		f.selected = f.options[i-1].ID
	}
	return true
}

func (f *FieldState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = nil
	f.selected = None
}

func (f *FieldState) Append(opts ...Option) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = append(f.options, opts...)
}

// Toggle is an in-memory Section. Shows and Hides count the transitions that
// actually happened.
type Toggle struct {
	mu      sync.RWMutex
	visible bool
	shows   int
	hides   int
}

// NewToggle returns a section with the given initial visibility.
func NewToggle(visible bool) *Toggle { return &Toggle{visible: visible} }

func (t *Toggle) Visible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.visible
}

func (t *Toggle) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = true
	t.shows++
}

func (t *Toggle) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = false
	t.hides++
}

// Transitions returns how many times Show and Hide were called.
func (t *Toggle) Transitions() (shows, hides int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shows, t.hides
}

// Form groups the fields of the database creation form.
type Form struct {
	Engine      *FieldState
	Plan        *FieldState
	Environment *FieldState
	Endpoint    *Toggle
}

// NewForm returns an empty form with the Endpoint section visible, which is
// how the page first renders before any Engine is chosen.
func NewForm() *Form {
	return &Form{
		Engine:      NewFieldState("engine", ""),
		Plan:        NewFieldState("plan", ""),
		Environment: NewFieldState("environment", ""),
		Endpoint:    NewToggle(true),
	}
}
