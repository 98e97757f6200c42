package formui

import tea "github.com/charmbracelet/bubbletea"

// applyMsg carries the completion of a controller job back into Update.
type applyMsg struct {
	apply func()
}

// teaRunner queues controller jobs while Update runs. The model turns the
// queue into commands, so jobs run on bubbletea's command goroutines and
// their completions come back as messages on the program loop.
type teaRunner struct {
	pending []func() func()
}

func (r *teaRunner) Go(job func() func()) {
	r.pending = append(r.pending, job)
}

// flush returns a command running every queued job, or nil.
func (r *teaRunner) flush() tea.Cmd {
	if len(r.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(r.pending))
	for _, job := range r.pending {
		cmds = append(cmds, func() tea.Msg {
			return applyMsg{apply: job()}
		})
	}
	r.pending = nil
	return tea.Batch(cmds...)
}
