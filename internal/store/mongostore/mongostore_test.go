package mongostore

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ptran999/nodebucket/internal/models"
)

func TestEmployeeDocDecodesObjectIDs(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"empId":     1007,
		"firstName": "Ada",
		"todo": bson.A{
			bson.M{"_id": oid, "text": "legacy"},
			bson.M{"_id": "c0ffee", "text": "fresh"},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc employeeDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := doc.toModel()

	want := []models.Task{{ID: oid.Hex(), Text: "legacy"}, {ID: "c0ffee", Text: "fresh"}}
	if !reflect.DeepEqual(e.Todo, want) {
		t.Errorf("Expected todo %v, got %v", want, e.Todo)
	}
	if e.Done != nil {
		t.Errorf("Expected missing done to stay nil, got %v", e.Done)
	}
	if e.EmployeeID != 1007 || e.FirstName != "Ada" {
		t.Errorf("Unexpected employee: %+v", e)
	}
}

func TestToTaskDocsRoundTrip(t *testing.T) {
	tasks := []models.Task{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}}
	raw, err := bson.Marshal(bson.M{"todo": toTaskDocs(tasks)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc employeeDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := fromTaskDocs(doc.Todo); !reflect.DeepEqual(got, tasks) {
		t.Errorf("Expected %v, got %v", tasks, got)
	}
}

func TestToTaskDocsNilIsEmptyArray(t *testing.T) {
	docs := toTaskDocs(nil)
	if docs == nil || len(docs) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", docs)
	}
}
