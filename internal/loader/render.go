package loader

import (
	"fmt"
	"html"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/widget"
)

// RootElementID identifies the widget root in the host page. Rendering
// always replaces the element under this id, which is what makes Render
// idempotent.
const RootElementID = "chatforge-widget-root"

// Element ids within the widget root.
const (
	buttonElementID  = "chatforge-widget-button"
	frameElementID   = "chatforge-widget-frame"
	badgeElementID   = "chatforge-widget-badge"
	loadingElementID = "chatforge-widget-loading"
)

// Page is the surface the renderer mounts into: a minimal host-document
// model keyed by element id. Mounting before the page body exists is
// deferred until SetReady fires, mirroring the DOM-ready guard a browser
// loader needs.
type Page struct {
	mu       sync.Mutex
	ready    bool
	deferred []func()
	elements map[string]string
}

// NewPage creates an empty, not-yet-ready page.
func NewPage() *Page {
	return &Page{elements: make(map[string]string)}
}

// SetReady marks the page body as available and runs every deferred mount
// in order.
func (p *Page) SetReady() {
	p.mu.Lock()
	p.ready = true
	pending := p.deferred
	p.deferred = nil
	p.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// WhenReady runs fn immediately if the page is ready, otherwise queues it.
func (p *Page) WhenReady(fn func()) {
	p.mu.Lock()
	if !p.ready {
		p.deferred = append(p.deferred, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn()
}

// Replace swaps the element under id for markup, creating it if absent.
func (p *Page) Replace(id, markup string) {
	p.mu.Lock()
	p.elements[id] = markup
	p.mu.Unlock()
}

// Remove deletes the element under id if present.
func (p *Page) Remove(id string) {
	p.mu.Lock()
	delete(p.elements, id)
	p.mu.Unlock()
}

// Element returns the markup mounted under id.
func (p *Page) Element(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	markup, ok := p.elements[id]
	return markup, ok
}

// ElementCount reports how many elements are mounted.
func (p *Page) ElementCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.elements)
}

// Renderer builds the floating toggle button and the content frame from a
// widget configuration and mounts them into a Page. All visual state for
// one widget instance lives here: the applied configuration, the
// open/closed flag, frame readiness, and whether the notification badge has
// been dismissed.
type Renderer struct {
	page         *Page
	frontendBase string
	backendBase  string
	logger       *zap.Logger

	mu             sync.Mutex
	cfg            widget.Config
	mounted        bool
	open           bool
	frameReady     bool
	badgeDismissed bool
}

// NewRenderer creates a renderer mounting into page. frontendBase is the
// origin serving the embed route; backendBase is forwarded to the framed
// document so it can reach the API before running its own discovery.
func NewRenderer(page *Page, frontendBase, backendBase string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		page:         page,
		frontendBase: frontendBase,
		backendBase:  backendBase,
		logger:       logger,
	}
}

// Render mounts the widget for cfg, replacing any previous mount under
// RootElementID. A configuration with IsActive false unmounts the widget
// entirely. Rendering before the page is ready is deferred to the ready
// signal. Open/closed state and badge dismissal survive re-renders within
// the same page load.
func (r *Renderer) Render(cfg widget.Config) {
	r.page.WhenReady(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.page.Remove(RootElementID)

		if !cfg.IsActive {
			r.mounted = false
			r.logger.Info("widget inactive, skipping mount",
				zap.String("deploy_status", cfg.DeployStatus),
				zap.String("paused_message", cfg.PausedMessage))
			return
		}

		r.cfg = cfg
		r.mounted = true
		r.page.Replace(RootElementID, r.markupLocked())
	})
}

// Toggle flips the open/closed state.
func (r *Renderer) Toggle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setOpenLocked(!r.open)
}

// Open reveals the content frame (or the loading placeholder until the
// frame signals readiness) and hides the toggle button. The notification
// badge is dismissed permanently for this page load on first open.
func (r *Renderer) Open() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setOpenLocked(true)
}

// Close hides the content frame and restores the toggle button.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setOpenLocked(false)
}

// IsOpen reports whether the widget is currently open.
func (r *Renderer) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// SetFrameReady marks the embedded frame as loaded; if the widget is open
// the loading placeholder is swapped for the live frame.
func (r *Renderer) SetFrameReady() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frameReady {
		return
	}
	r.frameReady = true
	r.refreshLocked()
}

// FrameReady reports whether the embedded frame has signaled readiness.
func (r *Renderer) FrameReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameReady
}

// Config returns the currently applied configuration.
func (r *Renderer) Config() widget.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *Renderer) setOpenLocked(open bool) {
	if open == r.open {
		return
	}
	r.open = open
	if open {
		r.badgeDismissed = true
	}
	r.refreshLocked()
}

func (r *Renderer) refreshLocked() {
	if !r.mounted {
		return
	}
	r.page.Replace(RootElementID, r.markupLocked())
}

// EmbedURL builds the content-frame URL, carrying the display fields as
// query parameters so the framed document can paint before its own fetch.
func (r *Renderer) EmbedURL(cfg widget.Config) string {
	q := url.Values{}
	q.Set("chatbotId", cfg.ChatbotID)
	q.Set("primaryColor", cfg.PrimaryColor)
	q.Set("accentColor", cfg.AccentColor)
	q.Set("title", cfg.Title)
	q.Set("subtitle", cfg.Subtitle)
	q.Set("greeting", cfg.Greeting)
	q.Set("backendUrl", r.backendBase)
	return r.frontendBase + "/embed?" + q.Encode()
}

func (r *Renderer) markupLocked() string {
	cfg := r.cfg
	size := widget.SizeFor(cfg.ButtonSize)
	theme := widget.ThemeFor(cfg.Theme)
	corner := widget.CornerCSS(cfg.Position, cfg.PaddingX, cfg.PaddingY)

	buttonDisplay := "flex"
	frameDisplay := "none"
	if r.open {
		buttonDisplay = "none"
		frameDisplay = "block"
	}

	var badge string
	if cfg.ShowNotificationBadge && theme.AllowBadge && !r.badgeDismissed {
		badge = fmt.Sprintf(`<span id="%s" style="position:absolute;top:0;right:0;width:12px;height:12px;border-radius:50%%;background:#ef4444;"></span>`, badgeElementID)
	}

	button := fmt.Sprintf(
		`<button id="%s" style="position:fixed;%sz-index:%d;width:%dpx;height:%dpx;display:%s;align-items:center;justify-content:center;border-radius:%s;border:%s;box-shadow:%s;background:linear-gradient(135deg,%s,%s);cursor:pointer;" data-icon-size="%d" data-animated="%t">%s</button>`,
		buttonElementID, corner, cfg.ZIndex, size.Width, size.Height, buttonDisplay,
		theme.BorderRadius, theme.Border, theme.BoxShadow,
		html.EscapeString(cfg.PrimaryColor), html.EscapeString(cfg.AccentColor),
		size.IconSize, theme.AnimateIcon, badge)

	frameBody := fmt.Sprintf(
		`<iframe src="%s" title="%s" style="width:100%%;height:100%%;border:none;"></iframe>`,
		html.EscapeString(r.EmbedURL(cfg)), html.EscapeString(cfg.Title))
	if r.open && !r.frameReady {
		frameBody = fmt.Sprintf(
			`<div id="%s" style="display:flex;align-items:center;justify-content:center;width:100%%;height:100%%;">%s</div>`,
			loadingElementID, html.EscapeString(cfg.Greeting))
	}

	frame := fmt.Sprintf(
		`<div id="%s" style="position:fixed;%sz-index:%d;width:380px;height:560px;display:%s;border-radius:16px;overflow:hidden;box-shadow:%s;background:#ffffff;">%s</div>`,
		frameElementID, corner, cfg.ZIndex, frameDisplay, theme.BoxShadow, frameBody)

	return fmt.Sprintf(`<div id="%s">%s%s</div>`, RootElementID, button, frame)
}
