package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ptran999/nodebucket/internal/board"
	"github.com/ptran999/nodebucket/internal/client"
	"github.com/ptran999/nodebucket/internal/config"
	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store/memstore"
	"github.com/ptran999/nodebucket/internal/taskapi"
)

func newTestAPI(t *testing.T) (*client.Client, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	err := st.UpsertEmployee(context.Background(), models.Employee{
		EmployeeID: 1007,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Todo:       []models.Task{{ID: "aaaa1111", Text: "first"}, {ID: "aaaa2222", Text: "second"}},
		Done:       []models.Task{{ID: "bbbb1111", Text: "shipped"}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	logger, _ := test.NewNullLogger()
	srv := taskapi.NewServer(taskapi.NewService(st, nil, logger), "127.0.0.1:0", "test", logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL, 0), st
}

func TestSignIn(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	sess, err := signIn(ctx, c, " 1007 ")
	if err != nil {
		t.Fatalf("signIn failed: %v", err)
	}
	if sess.EmployeeID != 1007 || sess.Name != "Ada Lovelace" {
		t.Errorf("Unexpected session %+v", sess)
	}

	if _, err := signIn(ctx, c, "abc"); err == nil || !strings.Contains(err.Error(), "must be a number") {
		t.Errorf("Expected number error, got %v", err)
	}
	if _, err := signIn(ctx, c, "42"); err == nil || err.Error() != "employee not found with empId: 42" {
		t.Errorf("Expected not-found message, got %v", err)
	}
}

func TestResolveTask(t *testing.T) {
	c, _ := newTestAPI(t)
	b := board.New(board.Session{EmployeeID: 1007}, c)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	col, idx, err := resolveTask(b, "bbbb")
	if err != nil || col != models.ColumnDone || idx != 0 {
		t.Errorf("Expected done[0], got %s[%d] err=%v", col, idx, err)
	}
	col, idx, err = resolveTask(b, "aaaa2222")
	if err != nil || col != models.ColumnTodo || idx != 1 {
		t.Errorf("Expected todo[1], got %s[%d] err=%v", col, idx, err)
	}
	if _, _, err := resolveTask(b, "aaaa"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("Expected ambiguous error, got %v", err)
	}
	if _, _, err := resolveTask(b, "zzz"); err == nil {
		t.Error("Expected error for unknown id")
	}
}

func TestPrintLists(t *testing.T) {
	var buf bytes.Buffer
	printLists(&buf, nil, nil)
	if strings.TrimSpace(buf.String()) != "No tasks found" {
		t.Errorf("Unexpected output %q", buf.String())
	}

	buf.Reset()
	printLists(&buf,
		[]models.Task{{ID: "0123456789abcdef", Text: "write report"}},
		[]models.Task{{ID: "d1", Text: "done thing"}})
	out := buf.String()
	for _, want := range []string{"ID", "01234567 ", "todo", "write report", "d1", "done", "done thing"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("Expected long ids to be truncated")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate(strings.Repeat("日", 10), 6)
	if got != "日日日..." {
		t.Errorf("Expected 日日日..., got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncated text is not valid UTF-8: %q", got)
	}
	if got := truncate("short", 6); got != "short" {
		t.Errorf("Expected short text untouched, got %q", got)
	}
}

func TestParseColumn(t *testing.T) {
	if c, err := parseColumn(" DONE "); err != nil || c != models.ColumnDone {
		t.Errorf("Expected done, got %q err=%v", c, err)
	}
	if _, err := parseColumn("doing"); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	confirm := promptConfirmer(strings.NewReader("y\nno\n"), &out)

	if !confirm.Confirm(`Delete "a"?`) {
		t.Error("Expected y to confirm")
	}
	if confirm.Confirm(`Delete "b"?`) {
		t.Error("Expected no to decline")
	}
	if confirm.Confirm(`Delete "c"?`) {
		t.Error("Expected EOF to decline")
	}
	if !strings.Contains(out.String(), `Delete "a"? [y/N]`) {
		t.Errorf("Unexpected prompt output %q", out.String())
	}
}

func TestParseSeed(t *testing.T) {
	doc := `
employees:
  - empId: 1007
    firstName: Ada
    lastName: Lovelace
    todo:
      - text: "  write report "
      - id: fixed
        text: review
  - empId: 1008
    firstName: Grace
`
	n := 0
	newID := func() string { n++; return "gen-" + strconv.Itoa(n) }

	employees, err := parseSeed([]byte(doc), newID)
	if err != nil {
		t.Fatalf("parseSeed failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("Expected 2 employees, got %d", len(employees))
	}
	want := []models.Task{{ID: "gen-1", Text: "write report"}, {ID: "fixed", Text: "review"}}
	if !reflect.DeepEqual(employees[0].Todo, want) {
		t.Errorf("Expected todo %v, got %v", want, employees[0].Todo)
	}
	if employees[0].Done != nil || employees[1].Todo != nil {
		t.Error("Absent lists must stay nil so existing lists are kept")
	}
}

func TestParseSeedRejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "employees: [",
		"missing empId": "employees:\n  - firstName: Ada\n",
		"duplicate":     "employees:\n  - empId: 1\n  - empId: 1\n",
		"blank text":    "employees:\n  - empId: 1\n    todo:\n      - text: ' '\n",
		"duplicate ids": "employees:\n  - empId: 1\n    todo:\n      - {id: a, text: x}\n    done:\n      - {id: a, text: y}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseSeed([]byte(doc), func() string { return "x" }); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestOpenGatewayMemory(t *testing.T) {
	c := config.DefaultConfig()
	c.Store.Driver = config.DriverMemory
	logger, _ := test.NewNullLogger()

	gw, cleanup, err := openGateway(context.Background(), c, logger)
	if err != nil {
		t.Fatalf("openGateway failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := gw.UpsertEmployee(ctx, models.Employee{EmployeeID: 1}); err != nil {
		t.Fatalf("UpsertEmployee failed: %v", err)
	}
	if err := gw.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestOpenGatewayWithCache(t *testing.T) {
	c := config.DefaultConfig()
	c.Store.Driver = config.DriverSQLite
	c.Store.SQLitePath = t.TempDir() + "/nodebucket.db"
	c.Cache.RedisURL = "redis://" + newMiniredis(t)
	logger, _ := test.NewNullLogger()

	gw, cleanup, err := openGateway(context.Background(), c, logger)
	if err != nil {
		t.Fatalf("openGateway failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := gw.UpsertEmployee(ctx, models.Employee{EmployeeID: 7, FirstName: "Lin"}); err != nil {
		t.Fatalf("UpsertEmployee failed: %v", err)
	}
	sess, err := gw.Open(ctx)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()
	e, err := sess.FindEmployee(ctx, 7)
	if err != nil || e == nil || e.FirstName != "Lin" {
		t.Errorf("Expected seeded employee, got %+v err=%v", e, err)
	}

	c.Cache.RedisURL = "://bad"
	if _, _, err := openGateway(ctx, c, logger); err == nil {
		t.Error("Expected invalid redis url error")
	}
}

func newMiniredis(t *testing.T) string {
	t.Helper()
	return miniredis.RunT(t).Addr()
}
