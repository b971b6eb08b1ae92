// Package apiclient talks to the pricing endpoints of the lens retail API on
// behalf of the discount editor.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/types"
)

const (
	defaultTimeout        = 15 * time.Second
	responseBodyReadLimit = 32 << 20
	errorBodyReadLimit    = 64 << 10
	errorSnippetLimit     = 512
	headerIdempotencyKey  = "Idempotency-Key"
	hierarchyPathTemplate = "api/v1/price-mappings/customers/%d/hierarchy"
	applyDiscountsPath    = "api/v1/price-mappings/apply"
)

var errBaseURLRequired = errors.New("pricing api base url is required")

// Client calls the price hierarchy and discount apply endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	newKey     func() string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout replaces the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func withIdempotencyKeys(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// NewClient builds a client rooted at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		newKey:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Hierarchy fetches the brand tree with the customer's overrides attached.
func (c *Client) Hierarchy(ctx context.Context, customerID int64) (*types.PriceHierarchy, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pricing api client not configured")
	}
	if customerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a customer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(fmt.Sprintf(hierarchyPathTemplate, customerID)), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build hierarchy request")
	}

	var tree types.PriceHierarchy
	if err := c.do(req, &tree, "hierarchy"); err != nil {
		return nil, err
	}
	return &tree, nil
}

// ApplyDiscounts posts the batch. Each call carries a fresh idempotency key so
// a transport-level retry cannot write twice.
func (c *Client) ApplyDiscounts(ctx context.Context, body types.ApplyDiscountsRequest) (*types.ApplyDiscountsResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pricing api client not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal apply discounts request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(applyDiscountsPath), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build apply discounts request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerIdempotencyKey, c.newKey())

	var result types.ApplyDiscountsResult
	if err := c.do(req, &result, "apply discounts"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, out any, op string) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, op)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return pkgerrors.Newf(pkgerrors.CodeDependency, "%s response missing data", op)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s payload", op))
	}
	return nil
}

// decodeError maps the API error envelope back to a typed error so the editor
// can show the server's message. Anything unreadable is a dependency failure.
func decodeError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if typed := envelope.Typed(); typed != nil {
			return typed
		}
	}

	return pkgerrors.Wrap(
		pkgerrors.CodeDependency,
		fmt.Errorf("status %d: %s", resp.StatusCode, snippet(raw)),
		fmt.Sprintf("%s request failed", op),
	)
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > errorSnippetLimit {
		text = strings.ToValidUTF8(text[:errorSnippetLimit], "") + "..."
	}
	return text
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
