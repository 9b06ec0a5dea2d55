package display

import (
	"sync"

	"scriptures/mapped/internal/router"
)

// Panel keeps the most recently rendered view for the page to fetch.
type Panel struct {
	mu      sync.RWMutex
	view    router.View
	renders int
}

func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) Render(view router.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = view
	p.renders++
}

// Current returns the last rendered view; false until something rendered.
func (p *Panel) Current() (router.View, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view, p.renders > 0
}
