package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"prochub/internal/update"
)

// Sender delivers messages to a running program; *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Presenter forwards update dialogs and notices into the TUI. Messages sent
// before Attach are held and flushed once a program is attached.
type Presenter struct {
	mu      sync.Mutex
	program Sender
	pending []tea.Msg
}

var _ update.Presenter = (*Presenter)(nil)

// NewPresenter returns a detached Presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Attach connects the presenter to a program and flushes held messages.
func (p *Presenter) Attach(program Sender) {
	p.mu.Lock()
	p.program = program
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, msg := range pending {
		program.Send(msg)
	}
}

// Confirm implements update.Presenter.
func (p *Presenter) Confirm(d update.ConfirmDialog) {
	p.send(confirmRequestMsg{dialog: d})
}

// Notice implements update.Presenter.
func (p *Presenter) Notice(kind update.NoticeKind, text string) {
	p.send(noticeMsg{kind: kind, text: text})
}

func (p *Presenter) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	if program == nil {
		p.pending = append(p.pending, msg)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	program.Send(msg)
}
