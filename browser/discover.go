package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultPorts are probed in order when looking for a debugging browser.
var DefaultPorts = []int{9223, 9222, 9224, 9225}

// Endpoint describes a browser answering on a remote-debugging port.
type Endpoint struct {
	Port         int    `json:"-"`
	Browser      string `json:"Browser"`
	WebSocketURL string `json:"webSocketDebuggerUrl"`
}

// Discover probes host on each port and returns the first browser that
// reports a DevTools websocket URL.
func Discover(ctx context.Context, client *http.Client, host string, ports []int) (Endpoint, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	if host == "" {
		host = "localhost"
	}
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return Endpoint{}, err
		}
		ep, err := probe(ctx, client, host, port)
		if err != nil {
			slog.Debug("debug port probe failed", "port", port, "error", err)
			continue
		}
		slog.Info("found browser with remote debugging", "port", port, "browser", ep.Browser)
		return ep, nil
	}
	return Endpoint{}, fmt.Errorf("probe ports %v: %w", ports, ErrNoEndpoint)
}

func probe(ctx context.Context, client *http.Client, host string, port int) (Endpoint, error) {
	u := "http://" + host + ":" + strconv.Itoa(port) + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Endpoint{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Endpoint{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Endpoint{}, fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
	}
	var ep Endpoint
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		return Endpoint{}, fmt.Errorf("decode version: %w", err)
	}
	if strings.TrimSpace(ep.WebSocketURL) == "" {
		return Endpoint{}, fmt.Errorf("version response missing websocket url")
	}
	ep.Port = port
	return ep, nil
}
