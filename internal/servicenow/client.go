// Package servicenow is a minimal ServiceNow Table API client: it creates
// incidents and resolves caller names from sys_user.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akmatori/snowbridge/internal/cache"
	"github.com/akmatori/snowbridge/internal/ratelimit"
	"github.com/akmatori/snowbridge/internal/ticket"
	"github.com/akmatori/snowbridge/internal/utils"
)

const (
	incidentPath = "/api/now/table/incident"
	userPath     = "/api/now/table/sys_user"

	// DefaultTimeout bounds every ServiceNow request
	DefaultTimeout = 30 * time.Second
	// DefaultCallerCacheTTL keeps resolved caller names
	DefaultCallerCacheTTL = 5 * time.Minute

	maxErrorBodyLen = 300
)

// Config holds ServiceNow connection settings
type Config struct {
	InstanceURL    string
	Username       string
	Password       string
	Timeout        time.Duration
	CallerCacheTTL time.Duration
	Limiter        *ratelimit.Limiter
	HTTPClient     *http.Client
}

// APIError is a non-2xx response from ServiceNow
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ServiceNow API error %d: %s", e.StatusCode, utils.TruncateText(e.Body, maxErrorBodyLen))
}

// Client talks to one ServiceNow instance using basic authentication
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	limiter  *ratelimit.Limiter
	callers  *cache.Cache[string]
	logger   *log.Logger
}

// NewClient creates a ServiceNow client
func NewClient(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	ttl := cfg.CallerCacheTTL
	if ttl <= 0 {
		ttl = DefaultCallerCacheTTL
	}

	return &Client{
		baseURL:  strings.TrimSuffix(cfg.InstanceURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     httpClient,
		limiter:  cfg.Limiter,
		callers:  cache.New[string](ttl, time.Minute),
		logger:   logger,
	}
}

// Username returns the account used to authenticate
func (c *Client) Username() string {
	return c.username
}

// Stop releases background resources
func (c *Client) Stop() {
	c.callers.Stop()
}

type incidentResponse struct {
	Result struct {
		SysID  string `json:"sys_id"`
		Number string `json:"number"`
	} `json:"result"`
}

type userListResponse struct {
	Result []struct {
		Name     string `json:"name"`
		UserName string `json:"user_name"`
		SysID    string `json:"sys_id"`
	} `json:"result"`
}

// CreateIncident files payload as a new incident and returns its number
func (c *Client) CreateIncident(ctx context.Context, payload *ticket.Payload, correlationID string) (string, error) {
	c.logger.Printf("ServiceNow: creating incident for ControlHub alert %s", correlationID)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal incident: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+incidentPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp incidentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse incident response: %w", err)
	}

	c.logger.Printf("ServiceNow: created incident %s for alert %s", resp.Result.Number, correlationID)
	return resp.Result.Number, nil
}

// ResolveCaller returns the display name of the sys_user with the given user name
func (c *Client) ResolveCaller(ctx context.Context, username string) (string, error) {
	if name, ok := c.callers.Get(username); ok {
		return name, nil
	}

	query := url.Values{}
	query.Set("sysparm_query", "user_name="+username)
	query.Set("sysparm_fields", "name,user_name,sys_id")
	query.Set("sysparm_limit", "1")

	respBody, err := c.do(ctx, http.MethodGet, c.baseURL+userPath+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	var resp userListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse sys_user response: %w", err)
	}
	if len(resp.Result) == 0 || resp.Result[0].Name == "" {
		return "", ticket.ErrCallerNotFound
	}

	name := resp.Result[0].Name
	c.callers.Set(username, name)
	return name, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
