package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PageHandle is the page a step acts on. Steps receive the handle of the
// previous step and return the one the next step should use.
type PageHandle struct {
	Page  playwright.Page
	Index int
}

// Session is one engine, one browser and one isolated context. It is owned
// by exactly one run and must not be shared.
type Session struct {
	ID string

	browser playwright.Browser
	context playwright.BrowserContext
	stop    StopFunc
	logger  *zap.Logger

	mu       sync.Mutex
	released bool
}

// Context returns the session's browser context.
func (s *Session) Context() playwright.BrowserContext { return s.context }

// Pages returns every page the context has opened, oldest first.
func (s *Session) Pages() []playwright.Page { return s.context.Pages() }

// ActivePage returns a handle to the most recently opened page. The list is
// read from the live context so popups opened by a previous step win.
func (s *Session) ActivePage() (PageHandle, error) {
	if s.Released() {
		return PageHandle{}, fmt.Errorf("session %s already released", s.ID)
	}
	pages := s.context.Pages()
	if len(pages) == 0 {
		return PageHandle{}, fmt.Errorf("session %s has no open pages", s.ID)
	}
	return PageHandle{Page: pages[len(pages)-1], Index: len(pages) - 1}, nil
}

// Released reports whether Release has run.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Release closes the context, then the browser, then stops the engine.
// Errors are logged at warn level and never returned, so they cannot mask
// the run's own failure. Calls after the first do nothing.
func (s *Session) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			s.logger.Warn("failed to close browser context", zap.Error(err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("failed to close browser", zap.Error(err))
		}
	}
	if s.stop != nil {
		if err := s.stop(); err != nil {
			s.logger.Warn("failed to stop playwright", zap.Error(err))
		}
	}
	s.logger.Debug("session released")
}
