package thingsboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.uber.org/zap"
)

const authHeader = "X-Authorization"

// Client talks to a ThingsBoard-style REST API with a JWT obtained from the
// login endpoint or supplied up front.
type Client struct {
	baseURL  string
	username string
	password string
	logger   *zap.Logger
	client   *http.Client

	mu     sync.Mutex
	token  string
	tenant *entities.EntityRef
}

type Options struct {
	BaseURL  string
	Username string
	Password string
	Token    string
	Timeout  time.Duration
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  opts.BaseURL,
		username: opts.Username,
		password: opts.Password,
		token:    opts.Token,
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed with status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges the configured credentials for a token.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return errors.ValidationErrorf("backend username and password are required to log in")
	}

	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, "/api/auth/login", loginRequest{Username: c.username, Password: c.password}, &resp, ""); err != nil {
		return fmt.Errorf("login as %s: %w", c.username, err)
	}
	if resp.Token == "" {
		return errors.InternalErrorf("login response carried no token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	c.logger.Info("Logged into backend", zap.String("url", c.baseURL), zap.String("username", c.username))
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do sends an authenticated request. A 401 triggers one fresh login when
// credentials are available.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.currentToken()
	if token == "" && c.username != "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
		token = c.currentToken()
	}

	err := c.send(ctx, method, path, body, out, token)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusUnauthorized && c.username != "" {
		c.logger.Debug("Token rejected, logging in again", zap.String("path", path))
		if err := c.Login(ctx); err != nil {
			return err
		}
		return c.send(ctx, method, path, body, out, c.currentToken())
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "datamodels/1.0.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(authHeader, "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.CanceledErrorf("%s %s: %v", method, path, ctx.Err())
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		c.logger.Debug("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(respBody)))
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls the message field out of a backend error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

type userResponse struct {
	ID       entityID `json:"id"`
	TenantID entityID `json:"tenantId"`
	Email    string   `json:"email"`
}

// CurrentTenantID returns the tenant of the logged in user. The answer is
// cached for the life of the client.
func (c *Client) CurrentTenantID(ctx context.Context) (entities.EntityRef, error) {
	c.mu.Lock()
	cached := c.tenant
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	var user userResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &user); err != nil {
		return entities.EntityRef{}, fmt.Errorf("failed to resolve current tenant: %w", err)
	}
	if user.TenantID.ID == "" {
		return entities.EntityRef{}, errors.InternalErrorf("current user %s has no tenant", user.Email)
	}

	tenant := entities.EntityRef{ID: user.TenantID.ID, EntityType: entities.EntityTenant}
	c.mu.Lock()
	c.tenant = &tenant
	c.mu.Unlock()
	return tenant, nil
}

// entityID is the backend's {id, entityType} pair.
type entityID struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
}

func (e entityID) ref() entities.EntityRef {
	return entities.EntityRef{ID: e.ID, EntityType: entities.EntityType(e.EntityType)}
}

func toEntityID(ref entities.EntityRef) entityID {
	return entityID{ID: ref.ID, EntityType: string(ref.EntityType)}
}

var _ interfaces.BackendIntegration = &Client{}
