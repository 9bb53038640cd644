package audit

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRecord(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRecorder(logger)

	r.Record(ActionCreate, map[string]string{"text": "write docs"}, "created", 1007)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an audit entry")
	}
	if entry.Level != log.InfoLevel {
		t.Errorf("Expected info level, got %v", entry.Level)
	}
	if entry.Data["action"] != ActionCreate {
		t.Errorf("Expected action %q, got %v", ActionCreate, entry.Data["action"])
	}
	if entry.Data["empId"] != 1007 {
		t.Errorf("Expected empId 1007, got %v", entry.Data["empId"])
	}
	if entry.Data["inputs_hash"] != HashInputs(map[string]string{"text": "write docs"}) {
		t.Errorf("Unexpected hash %v", entry.Data["inputs_hash"])
	}
}

func TestHashInputsStable(t *testing.T) {
	a := HashInputs(map[string]any{"todo": []string{"a"}, "done": []string{}})
	b := HashInputs(map[string]any{"done": []string{}, "todo": []string{"a"}})
	if a != b {
		t.Errorf("Expected key order not to matter: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if HashInputs(func() {}) != "hash_error" {
		t.Error("Expected hash_error for unencodable input")
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Record(ActionDelete, nil, "deleted", 1)
}
