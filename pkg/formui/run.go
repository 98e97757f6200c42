package formui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned by Run when the user leaves without saving.
var ErrCancelled = errors.New("form cancelled")

// Run shows the form until it is saved or cancelled. When logs is not nil
// its records are shown in the form footer.
func Run(ctx context.Context, source Source, opts Options, logs *LogHandler, programOpts ...tea.ProgramOption) (Submission, error) {
	model, err := NewModel(source, opts)
	if err != nil {
		return Submission{}, err
	}
	defer model.Close()

	programOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, programOpts...)
	program := tea.NewProgram(model, programOpts...)
	if logs != nil {
		logs.SetProgram(program)
	}

	final, err := program.Run()
	if err != nil {
		return Submission{}, fmt.Errorf("run form: %w", err)
	}
	result, ok := final.(Model)
	if !ok {
		return Submission{}, fmt.Errorf("unexpected model type %T", final)
	}
	if sub, ok := result.Submission(); ok {
		return sub, nil
	}
	return Submission{}, ErrCancelled
}
