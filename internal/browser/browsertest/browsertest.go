// Package browsertest provides in-memory stand-ins for the playwright
// interfaces the runner touches. Each fake embeds the interface it replaces
// and overrides only the methods the runner calls; anything else panics.
package browsertest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Recorder collects calls across fakes in the order they happen.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a call.
func (r *Recorder) Record(format string, args ...any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many recorded calls start with prefix.
func (r *Recorder) Count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Timeout returns an error that matches playwright.ErrTimeout.
func Timeout(what string) error {
	return fmt.Errorf("%w: %s", playwright.ErrTimeout, what)
}

// Browser is a fake playwright.Browser.
type Browser struct {
	playwright.Browser

	Rec           *Recorder
	Ctx           *Context
	NewContextErr error
	CloseErr      error
}

func (b *Browser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.Rec.Record("browser.new_context")
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	return b.Ctx, nil
}

func (b *Browser) Close(options ...playwright.BrowserCloseOptions) error {
	b.Rec.Record("browser.close")
	return b.CloseErr
}

// RouteHandler is a handler registered through Context.Route.
type RouteHandler struct {
	Pattern string
	Handle  func(playwright.Route)
}

// Context is a fake playwright.BrowserContext. NewPage appends Page (or a
// fresh blank page) to PageList.
type Context struct {
	playwright.BrowserContext

	Rec            *Recorder
	PageList       []playwright.Page
	NextPage       *Page
	NewPageErr     error
	CloseErr       error
	RouteErr       error
	DefaultTimeout float64

	mu     sync.Mutex
	routes []RouteHandler
}

func (c *Context) NewPage() (playwright.Page, error) {
	c.Rec.Record("context.new_page")
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	p := c.NextPage
	if p == nil {
		p = &Page{Rec: c.Rec}
	}
	c.mu.Lock()
	c.PageList = append(c.PageList, p)
	c.mu.Unlock()
	return p, nil
}

func (c *Context) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]playwright.Page(nil), c.PageList...)
}

// AddPage simulates a popup opened by the target.
func (c *Context) AddPage(p playwright.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PageList = append(c.PageList, p)
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.Rec.Record("context.close")
	return c.CloseErr
}

func (c *Context) SetDefaultTimeout(timeout float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultTimeout = timeout
}

func (c *Context) Route(url interface{}, handler func(playwright.Route), times ...int) error {
	c.Rec.Record("context.route %v", url)
	if c.RouteErr != nil {
		return c.RouteErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, RouteHandler{Pattern: fmt.Sprint(url), Handle: handler})
	return nil
}

// Routes returns the registered route handlers.
func (c *Context) Routes() []RouteHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RouteHandler(nil), c.routes...)
}

// Route is a fake playwright.Route that keeps the fulfil options.
type Route struct {
	playwright.Route

	Fulfilled *playwright.RouteFulfillOptions
}

func (r *Route) Fulfill(options ...playwright.RouteFulfillOptions) error {
	if len(options) > 0 {
		r.Fulfilled = &options[0]
	} else {
		r.Fulfilled = &playwright.RouteFulfillOptions{}
	}
	return nil
}

// Element is a node in a fake page. Missing elements never attach.
// FailClicks makes that many clicks fail before ClickErr applies. OnClick
// runs after a successful click, e.g. to change the page URL.
type Element struct {
	Hidden     bool
	ClickErr   error
	FillErr    error
	FailClicks int
	OnClick    func(p *Page)
	Value      string
}

// Page is a fake playwright.Page backed by a selector -> elements map.
type Page struct {
	playwright.Page

	Rec          *Recorder
	Elements     map[string][]*Element
	FrameList    []playwright.Frame
	GotoErr      error
	LoadStateErr error

	// Redirects maps a navigation URL substring to the URL the page ends on.
	Redirects map[string]string

	mu  sync.Mutex
	url string
}

// Add attaches elements under selector.
func (p *Page) Add(selector string, els ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Elements == nil {
		p.Elements = make(map[string][]*Element)
	}
	p.Elements[selector] = append(p.Elements[selector], els...)
}

// SetURL moves the page without a navigation.
func (p *Page) SetURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	state := ""
	if len(options) > 0 && options[0].WaitUntil != nil {
		state = string(*options[0].WaitUntil)
	}
	p.Rec.Record("page.goto %s %s", url, state)
	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	final := url
	for fragment, to := range p.Redirects {
		if strings.Contains(url, fragment) {
			final = to
		}
	}
	p.SetURL(final)
	return nil, nil
}

func (p *Page) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	state := ""
	if len(options) > 0 && options[0].State != nil {
		state = string(*options[0].State)
	}
	p.Rec.Record("page.wait_for_load_state %s", state)
	return p.LoadStateErr
}

func (p *Page) Frames() []playwright.Frame { return p.FrameList }

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &Locator{page: p, selector: selector}
}

func (p *Page) WaitForURL(url interface{}, options ...playwright.PageWaitForURLOptions) error {
	p.Rec.Record("page.wait_for_url")
	current := p.URL()
	switch m := url.(type) {
	case *regexp.Regexp:
		if m.MatchString(current) {
			return nil
		}
	case string:
		if current == m {
			return nil
		}
	}
	return Timeout(fmt.Sprintf("waiting for url, current %s", current))
}

func (p *Page) WaitForTimeout(timeout float64) {
	p.Rec.Record("page.wait %.0f", timeout)
}

func (p *Page) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	data := []byte("fake-png")
	if len(options) > 0 && options[0].Path != nil {
		if err := os.WriteFile(*options[0].Path, data, 0o644); err != nil {
			return nil, err
		}
	}
	p.Rec.Record("page.screenshot")
	return data, nil
}

func (p *Page) element(selector string, nth int) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.Elements[selector]
	if nth < 0 || nth >= len(els) {
		return nil
	}
	return els[nth]
}

// pwLocator lets Locator embed the interface without a field named Locator
// shadowing the Locator method.
type pwLocator = playwright.Locator

// Locator is a fake playwright.Locator resolved lazily against its page.
type Locator struct {
	pwLocator

	page     *Page
	selector string
	nth      int
}

func (l *Locator) Nth(index int) playwright.Locator {
	return &Locator{page: l.page, selector: l.selector, nth: index}
}

func (l *Locator) First() playwright.Locator { return l.Nth(0) }

func (l *Locator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	state := string(*playwright.WaitForSelectorStateVisible)
	if len(options) > 0 && options[0].State != nil {
		state = string(*options[0].State)
	}
	l.page.Rec.Record("locator.wait_for %s %s", l.selector, state)
	el := l.page.element(l.selector, l.nth)
	if el == nil {
		return Timeout("waiting for " + l.selector)
	}
	if state == string(*playwright.WaitForSelectorStateVisible) && el.Hidden {
		return Timeout(l.selector + " not visible")
	}
	return nil
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	l.page.Rec.Record("locator.click %s", l.selector)
	el := l.page.element(l.selector, l.nth)
	if el == nil {
		return Timeout("waiting for " + l.selector)
	}
	l.page.mu.Lock()
	if el.FailClicks > 0 {
		el.FailClicks--
		l.page.mu.Unlock()
		return fmt.Errorf("element %s is covered by another element", l.selector)
	}
	l.page.mu.Unlock()
	if el.ClickErr != nil {
		return el.ClickErr
	}
	if el.OnClick != nil {
		el.OnClick(l.page)
	}
	return nil
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.page.Rec.Record("locator.fill %s", l.selector)
	el := l.page.element(l.selector, l.nth)
	if el == nil {
		return Timeout("waiting for " + l.selector)
	}
	if el.FillErr != nil {
		return el.FillErr
	}
	l.page.mu.Lock()
	el.Value = value
	l.page.mu.Unlock()
	return nil
}

// Frame is a fake playwright.Frame.
type Frame struct {
	playwright.Frame

	Rec          *Recorder
	Label        string
	LoadStateErr error
}

func (f *Frame) WaitForLoadState(options ...playwright.FrameWaitForLoadStateOptions) error {
	f.Rec.Record("frame.wait_for_load_state %s", f.Label)
	return f.LoadStateErr
}
