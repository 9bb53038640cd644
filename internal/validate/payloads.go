package validate

import (
	"fmt"

	"github.com/ptran999/nodebucket/internal/models"
)

var taskItem = Object{
	Fields: []Field{
		{Name: "id", Required: true, Schema: String{MinLength: 1}},
		{Name: "text", Required: true, Schema: String{MinLength: 1}},
	},
}

// CreateTaskSchema accepts exactly {"text": "<non-empty>"}.
var CreateTaskSchema = Object{
	Fields: []Field{
		{Name: "text", Required: true, Schema: String{MinLength: 1}},
	},
}

// ReplaceListsSchema accepts exactly {"todo": [...], "done": [...]} where
// every item is exactly {"id", "text"}.
var ReplaceListsSchema = Object{
	Fields: []Field{
		{Name: "todo", Required: true, Schema: Array{Items: taskItem}},
		{Name: "done", Required: true, Schema: Array{Items: taskItem}},
	},
}

// CreateTaskPayload validates a create-task body and returns its text.
func CreateTaskPayload(body []byte) (string, error) {
	v, err := Decode(body, CreateTaskSchema)
	if err != nil {
		return "", err
	}
	return v.(map[string]any)["text"].(string), nil
}

// ReplaceListsPayload validates a replace-lists body and returns both lists.
// Task ids must be unique across todo and done.
func ReplaceListsPayload(body []byte) (todo, done []models.Task, err error) {
	v, err := Decode(body, ReplaceListsSchema)
	if err != nil {
		return nil, nil, err
	}
	obj := v.(map[string]any)
	todo = toTasks(obj["todo"])
	done = toTasks(obj["done"])

	var errs Errors
	seen := make(map[string]string)
	for _, col := range []struct {
		name  string
		tasks []models.Task
	}{{"todo", todo}, {"done", done}} {
		for i, t := range col.tasks {
			path := fmt.Sprintf("%s[%d].id", col.name, i)
			if first, ok := seen[t.ID]; ok {
				errs.add(path, "duplicate task id (already at %s)", first)
				continue
			}
			seen[t.ID] = path
		}
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}
	return todo, done, nil
}

func toTasks(v any) []models.Task {
	items := v.([]any)
	tasks := make([]models.Task, 0, len(items))
	for _, item := range items {
		m := item.(map[string]any)
		tasks = append(tasks, models.Task{ID: m["id"].(string), Text: m["text"].(string)})
	}
	return tasks
}
