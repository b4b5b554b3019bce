// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/presnap/pkg/config"
	"github.com/NVIDIA/presnap/pkg/defaults"
	apperrors "github.com/NVIDIA/presnap/pkg/errors"
)

// ErrAgentUnavailable marks a guest agent hostname query that could not be
// answered: the agent is not running, not installed, or the query failed.
// Callers treat this as "hostname unknown", not as a transport failure.
var ErrAgentUnavailable = errors.New("guest agent unavailable")

// Default client-side request pacing.
const (
	defaultRateLimit = rate.Limit(10) // requests per second
	defaultRateBurst = 20
)

// Client issues authenticated requests against one hypervisor endpoint.
// All operations are scoped to the endpoint's configured node.
type Client struct {
	baseURL string
	token   string
	node    string

	hc      *http.Client
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithRateLimit overrides the client-side request pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// New creates a Client for the given endpoint. TLS certificate verification
// follows the endpoint's verify_tls setting.
func New(ep config.Endpoint, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !ep.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // endpoint opt-out, matches curl -k
	}

	c := &Client{
		baseURL: strings.TrimRight(ep.URL, "/"),
		token:   ep.APIToken,
		node:    ep.Node,
		hc: &http.Client{
			Transport: transport,
			Timeout:   defaults.HTTPClientTimeout,
		},
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Node returns the endpoint's node identifier.
func (c *Client) Node() string {
	return c.node
}

// BaseURL returns the endpoint's API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the PVE response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do issues one request against a node-scoped path and returns the unwrapped
// data payload. Failures are TRANSPORT structured errors.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport, "request canceled while rate limited", err)
	}

	u := fmt.Sprintf("%s/api2/json/nodes/%s/%s", c.baseURL, c.node, path)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport, "failed to build request", err)
	}
	req.Header.Set("Authorization", "PVEAPIToken="+c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observeRequest(method, outcomeError, time.Since(start))
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeTransport,
			fmt.Sprintf("failed to connect to %s", u), err,
			map[string]any{"method": method, "node": c.node})
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observeRequest(method, outcomeError, time.Since(start))
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport,
			fmt.Sprintf("failed to read response from %s", u), err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		observeRequest(method, outcomeError, time.Since(start))
		return nil, apperrors.NewWithContext(apperrors.ErrCodeTransport,
			fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, u, strings.TrimSpace(string(raw))),
			map[string]any{"method": method, "status": resp.StatusCode, "node": c.node})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		observeRequest(method, outcomeError, time.Since(start))
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport,
			fmt.Sprintf("invalid JSON response from %s", u), err)
	}

	observeRequest(method, outcomeSuccess, time.Since(start))
	return env.Data, nil
}

// ListGuests lists guests of the given kind on the node, in the order the
// hypervisor returns them.
func (c *Client) ListGuests(ctx context.Context, kind GuestKind) ([]GuestSummary, error) {
	if !kind.Valid() {
		return nil, apperrors.Newf(apperrors.ErrCodeTransport, "unknown guest kind: %s", kind)
	}
	data, err := c.do(ctx, http.MethodGet, string(kind), nil)
	if err != nil {
		return nil, err
	}

	var guests []GuestSummary
	if err := json.Unmarshal(data, &guests); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport, "invalid guest list payload", err)
	}
	return guests, nil
}

// ContainerConfig fetches a container's full configuration.
func (c *Client) ContainerConfig(ctx context.Context, vmid int) (ContainerConfig, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("lxc/%d/config", vmid), nil)
	if err != nil {
		return nil, err
	}

	var cfg ContainerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeTransport, "invalid container config payload", err)
	}
	return cfg, nil
}

// AgentHostname queries a virtual machine's hostname through the QEMU guest
// agent. Any failure, including an agent that is simply not running, yields
// ErrAgentUnavailable rather than a transport error.
func (c *Client) AgentHostname(ctx context.Context, vmid int) (string, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("qemu/%d/agent/get-host-name", vmid), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}

	var payload struct {
		Result struct {
			HostName string `json:"host-name"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	if payload.Result.HostName == "" {
		return "", ErrAgentUnavailable
	}
	return payload.Result.HostName, nil
}

// CreateSnapshot requests a point-in-time snapshot of the guest and returns
// the asynchronous task identifier (UPID). Virtual machine snapshots always
// exclude memory state to bound snapshot latency during a deploy window.
func (c *Client) CreateSnapshot(ctx context.Context, kind GuestKind, vmid int, req SnapshotRequest) (string, error) {
	form := url.Values{}
	form.Set("snapname", req.Name)
	form.Set("description", req.Description)
	if kind == GuestVM {
		form.Set("vmstate", "0")
	}

	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/snapshot", kind, vmid), form)
	if err != nil {
		return "", err
	}

	var upid string
	if err := json.Unmarshal(data, &upid); err != nil || upid == "" {
		return "", apperrors.New(apperrors.ErrCodeTransport, "snapshot request did not return a task UPID")
	}
	return upid, nil
}

// DeleteContainerConfigKey removes one key from a container's configuration.
func (c *Client) DeleteContainerConfigKey(ctx context.Context, vmid int, key string) error {
	form := url.Values{}
	form.Set("delete", key)
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("lxc/%d/config", vmid), form)
	return err
}

// SetContainerConfigKey sets one key in a container's configuration to the
// given raw value. The call is an idempotent upsert.
func (c *Client) SetContainerConfigKey(ctx context.Context, vmid int, key, value string) error {
	form := url.Values{}
	form.Set(key, value)
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("lxc/%d/config", vmid), form)
	return err
}

// TaskStatus fetches the current status of an asynchronous task.
func (c *Client) TaskStatus(ctx context.Context, upid string) (TaskStatus, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("tasks/%s/status", url.PathEscape(upid)), nil)
	if err != nil {
		return TaskStatus{}, err
	}

	var st TaskStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return TaskStatus{}, apperrors.Wrap(apperrors.ErrCodeTransport, "invalid task status payload", err)
	}
	return st, nil
}
