// Package mcp implements a client for context-protocol servers that expose
// resources and tools over plain HTTP JSON, plus the generic tools that make
// those servers reachable from an agent. The agent core never talks to a
// server directly; everything goes through the tool layer.
package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Auth describes how the client authenticates against a server. Type is
// "bearer" (Token) or "basic" (Username/Password); empty means no auth.
type Auth struct {
	Type     string
	Token    string
	Username string
	Password string
}

// Config identifies one server.
type Config struct {
	Name string
	URL  string
	Auth Auth
}

// Resource is a piece of server-held context addressed by a scheme://path
// URI.
type Resource struct {
	URI      string         `json:"uri"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RemoteTool describes a tool hosted on a server.
type RemoteTool struct {
	URI         string         `json:"uri"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Client talks to a single server.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client for the given server.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.cfg.Name }

// ListResources returns the resource descriptors the server advertises.
func (c *Client) ListResources(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.get(ctx, c.cfg.URL+"/resources", &out); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return out, nil
}

// GetResource fetches one resource by its scheme://path URI.
func (c *Client) GetResource(ctx context.Context, uri string) (*Resource, error) {
	scheme, path, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	var body struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}
	endpoint := fmt.Sprintf("%s/resources/%s/%s", c.cfg.URL, url.PathEscape(scheme), path)
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("get resource %s: %w", uri, err)
	}
	return &Resource{URI: uri, Content: body.Content, Metadata: body.Metadata}, nil
}

// ListTools returns the tools the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]RemoteTool, error) {
	var out []RemoteTool
	if err := c.get(ctx, c.cfg.URL+"/tools", &out); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return out, nil
}

// ExecuteTool runs a remote tool by URI with the given parameters and
// returns the decoded JSON result.
func (c *Client) ExecuteTool(ctx context.Context, uri string, params map[string]any) (any, error) {
	scheme, path, err := splitURI(uri)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tools/%s/%s", c.cfg.URL, url.PathEscape(scheme), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	var out any
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("execute tool %s: %w", uri, err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server %s unreachable: %w", c.cfg.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s returned %d: %s", c.cfg.Name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", c.cfg.Name, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	switch c.cfg.Auth.Type {
	case "bearer":
		if c.cfg.Auth.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Auth.Token)
		}
	case "basic":
		if c.cfg.Auth.Username != "" {
			creds := base64.StdEncoding.EncodeToString(
				[]byte(c.cfg.Auth.Username + ":" + c.cfg.Auth.Password))
			req.Header.Set("Authorization", "Basic "+creds)
		}
	}
}

// splitURI breaks a scheme://path URI into its parts.
func splitURI(uri string) (scheme, path string, err error) {
	scheme, path, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" || path == "" {
		return "", "", fmt.Errorf("invalid URI %q: want scheme://path", uri)
	}
	return scheme, path, nil
}
