package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// DefaultKeywords identify the game tab by URL or title.
var DefaultKeywords = []string{"ogame", "gameforge"}

// Options configure how a Session finds or starts its browser.
type Options struct {
	Host           string
	Ports          []int
	Launch         bool   // start a browser if none is listening
	BrowserPath    string // executable for Launch; empty lets chromedp search
	ProfileDir     string
	Headless       bool
	Keywords       []string
	ActionInterval time.Duration // minimum spacing between clicks and fills
	ActionTimeout  time.Duration
}

func (o *Options) defaults() {
	if len(o.Ports) == 0 {
		o.Ports = DefaultPorts
	}
	if len(o.Keywords) == 0 {
		o.Keywords = DefaultKeywords
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 30 * time.Second
	}
	if o.ProfileDir == "" {
		o.ProfileDir = "/tmp/ogbot-profile"
	}
}

// Session owns the DevTools connection and the attached game tab. It
// implements Page and the controller's Locator. It is not safe for
// concurrent use; the controller drives it from a single goroutine.
type Session struct {
	opts    Options
	limiter *rate.Limiter

	browserCtx context.Context
	cancels    []context.CancelFunc

	tabID     target.ID
	tabCtx    context.Context
	tabCancel context.CancelFunc
}

// Connect attaches to a browser already listening on one of opts.Ports, or
// launches one when opts.Launch is set and nothing answers.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	opts.defaults()

	s := &Session{opts: opts, limiter: newLimiter(opts.ActionInterval)}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc

	ep, err := Discover(ctx, nil, opts.Host, opts.Ports)
	switch {
	case err == nil:
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), ep.WebSocketURL)
	case opts.Launch:
		slog.Info("starting browser with remote debugging", "port", opts.Ports[0], "profile", opts.ProfileDir)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), launchOptions(opts)...)
	default:
		return nil, err
	}
	s.cancels = append(s.cancels, cancelAlloc)

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logf(slog.LevelDebug)),
		chromedp.WithLogf(logf(slog.LevelDebug)),
	)
	s.cancels = append(s.cancels, cancelBrowser)
	s.browserCtx = browserCtx

	startCtx, cancelStart := context.WithTimeout(browserCtx, opts.ActionTimeout)
	defer cancelStart()
	stop := context.AfterFunc(ctx, cancelStart)
	defer stop()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	slog.Info("connected to browser")
	return s, nil
}

func launchOptions(opts Options) []chromedp.ExecAllocatorOption {
	o := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(opts.Ports[0])),
		chromedp.UserDataDir(opts.ProfileDir),
		chromedp.NoFirstRun,
	)
	if opts.BrowserPath != "" {
		o = append(o, chromedp.ExecPath(opts.BrowserPath))
	}
	return o
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		slog.Log(context.Background(), level, "chromedp", "detail", fmt.Sprintf(format, args...))
	}
}

// Close detaches from the browser. A browser that was already running
// stays open for the player.
func (s *Session) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
}

// Locate finds the game tab and attaches to it. It returns false with no
// error when the browser is reachable but no game tab is open.
func (s *Session) Locate(ctx context.Context) (bool, error) {
	lctx, cancel := context.WithTimeout(s.browserCtx, s.opts.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	infos, err := chromedp.Targets(lctx)
	if err != nil {
		return false, fmt.Errorf("list targets: %w", err)
	}
	info := pickGameTab(infos, s.opts.Keywords)
	if info == nil {
		slog.Warn("no game tab found", "tabs", len(infos))
		s.detach()
		return false, nil
	}
	if s.tabCtx != nil && s.tabID == info.TargetID {
		return true, nil
	}

	s.detach()
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(info.TargetID))
	attachCtx, cancelAttach := context.WithTimeout(tabCtx, s.opts.ActionTimeout)
	defer cancelAttach()
	if err := chromedp.Run(attachCtx); err != nil {
		tabCancel()
		return false, fmt.Errorf("attach to tab %s: %w", info.TargetID, err)
	}
	s.tabID, s.tabCtx, s.tabCancel = info.TargetID, tabCtx, tabCancel
	slog.Info("switched to game tab", "title", info.Title, "url", info.URL)
	return true, nil
}

func (s *Session) detach() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	s.tabID, s.tabCtx, s.tabCancel = "", nil, nil
}

// pickGameTab returns the first page target whose URL or title contains
// one of the keywords.
func pickGameTab(infos []*target.Info, keywords []string) *target.Info {
	for _, info := range infos {
		if info == nil || info.Type != "page" {
			continue
		}
		hay := strings.ToLower(info.URL + " " + info.Title)
		for _, k := range keywords {
			if strings.Contains(hay, strings.ToLower(k)) {
				return info
			}
		}
	}
	return nil
}

// action derives a timeout-bound context from the tab that also ends when
// ctx does.
func (s *Session) action(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.tabCtx == nil {
		return nil, nil, ErrNoTab
	}
	actx, cancel := context.WithTimeout(s.tabCtx, s.opts.ActionTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return actx, func() { stop(); cancel() }, nil
}

func queryBy(sel Selector) chromedp.QueryOption {
	if sel.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

func (s *Session) nodes(actx context.Context, sel Selector) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(actx, chromedp.Nodes(sel.Query, &nodes, queryBy(sel), chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}
	return nodes, nil
}

func (s *Session) first(actx context.Context, sel Selector) ([]cdp.NodeID, error) {
	nodes, err := s.nodes(actx, sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return []cdp.NodeID{nodes[0].NodeID}, nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	actx, done, err := s.action(ctx)
	if err != nil {
		return "", err
	}
	defer done()
	var u string
	if err := chromedp.Run(actx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return u, nil
}

func (s *Session) Count(ctx context.Context, sel Selector) (int, error) {
	actx, done, err := s.action(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	nodes, err := s.nodes(actx, sel)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (s *Session) Text(ctx context.Context, sel Selector) (string, error) {
	actx, done, err := s.action(ctx)
	if err != nil {
		return "", err
	}
	defer done()
	ids, err := s.first(actx, sel)
	if err != nil {
		return "", err
	}
	var txt string
	if err := chromedp.Run(actx, chromedp.Text(ids, &txt, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("text %s: %w", sel, err)
	}
	return strings.TrimSpace(txt), nil
}

func (s *Session) Attr(ctx context.Context, sel Selector, name string) (string, error) {
	actx, done, err := s.action(ctx)
	if err != nil {
		return "", err
	}
	defer done()
	ids, err := s.first(actx, sel)
	if err != nil {
		return "", err
	}
	var v string
	if name == "value" {
		err = chromedp.Run(actx, chromedp.Value(ids, &v, chromedp.ByNodeID))
	} else {
		var ok bool
		err = chromedp.Run(actx, chromedp.AttributeValue(ids, name, &v, &ok, chromedp.ByNodeID))
	}
	if err != nil {
		return "", fmt.Errorf("attr %s of %s: %w", name, sel, err)
	}
	return v, nil
}

func (s *Session) Click(ctx context.Context, sel Selector) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	actx, done, err := s.action(ctx)
	if err != nil {
		return err
	}
	defer done()
	ids, err := s.first(actx, sel)
	if err != nil {
		return err
	}
	if err := chromedp.Run(actx, chromedp.Click(ids, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	slog.Debug("clicked", "selector", sel.String())
	return nil
}

func (s *Session) SetValue(ctx context.Context, sel Selector, value string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	actx, done, err := s.action(ctx)
	if err != nil {
		return err
	}
	defer done()
	ids, err := s.first(actx, sel)
	if err != nil {
		return err
	}
	if err := chromedp.Run(actx,
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, value, chromedp.ByNodeID),
	); err != nil {
		return fmt.Errorf("fill %s: %w", sel, err)
	}
	slog.Debug("filled", "selector", sel.String(), "value", value)
	return nil
}

// rowsScript flattens each match of a query into text, attributes and
// probe counts in a single round trip.
const rowsScript = `(function(query, probes) {
  return Array.from(document.querySelectorAll(query)).map(function(el, i) {
    var attrs = {};
    for (var j = 0; j < el.attributes.length; j++) {
      attrs[el.attributes[j].name] = el.attributes[j].value;
    }
    var found = {};
    probes.forEach(function(p) {
      var m = el.querySelectorAll(p);
      found[p] = {count: m.length, text: m.length ? (m[0].innerText || "").trim() : ""};
    });
    return {index: i, text: (el.innerText || "").trim(), attrs: attrs, probes: found};
  });
})(%s, %s)`

func (s *Session) Rows(ctx context.Context, query string, probes ...string) ([]Row, error) {
	actx, done, err := s.action(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	q, _ := json.Marshal(query)
	if probes == nil {
		probes = []string{}
	}
	p, _ := json.Marshal(probes)
	var rows []Row
	if err := chromedp.Run(actx, chromedp.Evaluate(fmt.Sprintf(rowsScript, q, p), &rows)); err != nil {
		return nil, fmt.Errorf("rows %s: %w", query, err)
	}
	return rows, nil
}

func (s *Session) ClickRow(ctx context.Context, query string, index int, inner string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	actx, done, err := s.action(ctx)
	if err != nil {
		return err
	}
	defer done()
	rows, err := s.nodes(actx, CSS(query))
	if err != nil {
		return err
	}
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%s[%d]: %w", query, index, ErrNotFound)
	}
	node := rows[index]
	if inner != "" {
		var sub []*cdp.Node
		if err := chromedp.Run(actx, chromedp.Nodes(inner, &sub, chromedp.ByQueryAll, chromedp.FromNode(node), chromedp.AtLeast(0))); err != nil {
			return fmt.Errorf("query %s in %s[%d]: %w", inner, query, index, err)
		}
		if len(sub) == 0 {
			return fmt.Errorf("%s in %s[%d]: %w", inner, query, index, ErrNotFound)
		}
		node = sub[0]
	}
	if err := chromedp.Run(actx, chromedp.Click([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click %s[%d] %s: %w", query, index, inner, err)
	}
	slog.Debug("clicked row", "query", query, "index", index, "inner", inner)
	return nil
}
