// Package httpclient implements the node's outbound calls to the manager,
// its own monitor, and peers. It is a thin wrapper over net/http: there is
// nothing here worth a third-party client for beyond what net/http already
// gives: per-call timeouts via context and connection reuse via a shared
// *http.Client.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/timokae/ma-node/internal/wire"
)

// Client issues the node's outbound wire calls.
type Client struct {
	http *http.Client
}

// New returns a Client sharing one *http.Client (and its connection pool)
// across every outbound call.
func New() *Client {
	return &Client{http: &http.Client{}}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// Register posts the bootstrap registration request to the manager.
func (c *Client) Register(ctx context.Context, managerAddr string, req wire.RegisterRequest) (wire.RegisterResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	var resp wire.RegisterResponse
	err := c.postJSON(ctx, managerAddr+"/api/register/node", req, &resp)
	if err != nil {
		return wire.RegisterResponse{}, fmt.Errorf("httpclient: register: %w", err)
	}
	return resp, nil
}

// Ping posts a ping payload to the node's own monitor.
func (c *Client) Ping(ctx context.Context, monitorAddr string, req wire.PingRequest) (wire.PingResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	var resp wire.PingResponse
	err := c.postJSON(ctx, monitorAddr+"/ping", req, &resp)
	if err != nil {
		return wire.PingResponse{}, fmt.Errorf("httpclient: ping: %w", err)
	}
	return resp, nil
}

// Lookup asks monitorAddr to resolve hash to a node address, optionally
// asking it to forward the lookup to other monitors.
func (c *Client) Lookup(ctx context.Context, monitorAddr, hash string, forward bool) (wire.LookupResponse, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/lookup/%s?forward=%t", monitorAddr, hash, forward)
	var resp wire.LookupResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return wire.LookupResponse{}, fmt.Errorf("httpclient: lookup: %w", err)
	}
	return resp, nil
}

// Download fetches raw bytes for hash from nodeAddr, returning the bytes,
// the Content-Type header, and the filename parsed out of
// Content-Disposition, if present.
func (c *Client) Download(ctx context.Context, nodeAddr, hash string) (data []byte, contentType, fileName string, err error) {
	ctx, cancel := withTimeout(ctx, 30*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/download/%s", nodeAddr, hash)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("httpclient: download: %w", err)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, "", "", fmt.Errorf("httpclient: download: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("httpclient: download: status %d", httpResp.StatusCode)
	}

	data, err = io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("httpclient: download: read body: %w", err)
	}

	contentType = httpResp.Header.Get("Content-Type")
	fileName = parseFileName(httpResp.Header.Get("Content-Disposition"))
	return data, contentType, fileName, nil
}

// Distribute posts a distribution request for hash to monitorAddr.
func (c *Client) Distribute(ctx context.Context, monitorAddr, hash string, req wire.DistributeRequest) error {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/distribute/%s?forward=false", monitorAddr, hash)
	if err := c.postJSON(ctx, url, req, nil); err != nil {
		return fmt.Errorf("httpclient: distribute: %w", err)
	}
	return nil
}

// NotifyShutdown tells monitorAddr this node is going away.
func (c *Client) NotifyShutdown(ctx context.Context, monitorAddr, fingerprint string) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/shutdown/%s", monitorAddr, fingerprint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpclient: shutdown notify: %w", err)
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("httpclient: shutdown notify: %w", err)
	}
	defer httpResp.Body.Close()
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("status %d", httpResp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseFileName extracts the unquoted filename=<name> parameter this
// node's own /download handler emits (:attachment; filename=<name>),
// returning "" if absent.
func parseFileName(header string) string {
	const marker = "filename="
	i := strings.Index(header, marker)
	if i < 0 {
		return ""
	}
	rest := header[i+len(marker):]
	if j := strings.IndexByte(rest, ';'); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
