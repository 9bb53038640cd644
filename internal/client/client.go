// Package client is a typed HTTP client for the nodebucket REST API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ptran999/nodebucket/internal/models"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// FieldError is one payload problem reported by the API.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d)", e.Status)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// Health is the body of GET /health.
type Health struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Client wraps HTTP calls to the nodebucket API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client with the given timeout. A zero timeout uses
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// GetEmployee fetches the employee record used for sign-in.
func (c *Client) GetEmployee(ctx context.Context, empID int) (*models.Employee, error) {
	var e models.Employee
	if err := c.do(ctx, http.MethodGet, employeePath(empID), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetTasks fetches the employee's todo and done lists.
func (c *Client) GetTasks(ctx context.Context, empID int) (*models.TaskLists, error) {
	var lists models.TaskLists
	if err := c.do(ctx, http.MethodGet, tasksPath(empID), nil, &lists); err != nil {
		return nil, err
	}
	return &lists, nil
}

// CreateTask creates a task at the end of todo and returns its id.
func (c *Client) CreateTask(ctx context.Context, empID int, text string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, tasksPath(empID), body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("API returned no task id")
	}
	return result.ID, nil
}

// ReplaceTaskLists overwrites both lists on the server.
func (c *Client) ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) error {
	body := struct {
		Todo []models.Task `json:"todo"`
		Done []models.Task `json:"done"`
	}{models.CloneTasks(todo), models.CloneTasks(done)}
	return c.do(ctx, http.MethodPut, tasksPath(empID), body, nil)
}

// DeleteTask removes a task from whichever list holds it.
func (c *Client) DeleteTask(ctx context.Context, empID int, taskID string) error {
	return c.do(ctx, http.MethodDelete, tasksPath(empID)+"/"+url.PathEscape(taskID), nil, nil)
}

// CheckHealth returns the health payload. Unlike other calls it returns the
// parsed body alongside the error on non-200 responses.
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	var h Health
	if err := sonic.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &h, &APIError{Status: resp.StatusCode, Message: h.DB}
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := sonic.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func employeePath(empID int) string {
	return "/employees/" + strconv.Itoa(empID)
}

func tasksPath(empID int) string {
	return employeePath(empID) + "/tasks"
}
