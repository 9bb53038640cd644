package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store/memstore"
	"github.com/ptran999/nodebucket/internal/taskapi"
)

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	st := memstore.New()
	if err := st.UpsertEmployee(context.Background(), models.Employee{EmployeeID: 1007, FirstName: "Ada"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	logger, _ := test.NewNullLogger()
	srv := taskapi.NewServer(taskapi.NewService(st, nil, logger), "", "test", logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", time.Second)
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	e, err := c.GetEmployee(ctx, 1007)
	if err != nil {
		t.Fatalf("GetEmployee failed: %v", err)
	}
	if e.FirstName != "Ada" {
		t.Errorf("Unexpected employee %+v", e)
	}

	id, err := c.CreateTask(ctx, 1007, "write tests")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := c.ReplaceTaskLists(ctx, 1007, nil, []models.Task{{ID: id, Text: "write tests"}}); err != nil {
		t.Fatalf("ReplaceTaskLists failed: %v", err)
	}
	lists, err := c.GetTasks(ctx, 1007)
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if len(lists.Todo) != 0 || len(lists.Done) != 1 || lists.Done[0].ID != id {
		t.Fatalf("Unexpected lists %+v", lists)
	}

	if err := c.DeleteTask(ctx, 1007, id); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	lists, _ = c.GetTasks(ctx, 1007)
	if len(lists.Done) != 0 {
		t.Errorf("Expected task deleted, got %+v", lists)
	}
}

func TestClientAPIError(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	_, err := c.GetTasks(ctx, 999)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T (%v)", err, err)
	}
	if !apiErr.NotFound() || apiErr.Message != "employee not found with empId: 999" {
		t.Errorf("Unexpected error %+v", apiErr)
	}

	_, err = c.CreateTask(ctx, 1007, "")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %v", err)
	}
	if len(apiErr.Errors) == 0 || apiErr.Errors[0].Path != "text" {
		t.Errorf("Expected field error for text, got %+v", apiErr.Errors)
	}
}

func TestClientPlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	err := New(ts.URL, 0).DeleteTask(context.Background(), 1, "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Fatalf("Unexpected error %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	c := newTestAPI(t)

	h, err := c.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !h.OK || h.Version != "test" {
		t.Errorf("Unexpected health %+v", h)
	}

	if _, err := New("http://127.0.0.1:1", 200*time.Millisecond).CheckHealth(context.Background()); err == nil {
		t.Error("Expected error for unreachable API")
	}
}
