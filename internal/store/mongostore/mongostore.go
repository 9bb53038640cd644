// Package mongostore implements the employee gateway on MongoDB. Employee
// documents embed their todo and done arrays, matching the layout of the
// original nodebucket collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "nodebucket"
	// EmployeesCollection holds one document per employee.
	EmployeesCollection = "employees"

	connectTimeout = 10 * time.Second
)

// Store is a MongoDB-backed store.Gateway.
type Store struct {
	client    *mongo.Client
	employees *mongo.Collection
}

// New connects to uri and verifies the deployment is reachable.
func New(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client:    client,
		employees: client.Database(database).Collection(EmployeesCollection),
	}, nil
}

// Ping checks the deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Open starts a driver session; every operation of the returned session runs
// inside it.
func (s *Store) Open(ctx context.Context) (store.Session, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start mongo session: %w", err)
	}
	return &session{sess: sess, employees: s.employees}, nil
}

// UpsertEmployee creates the employee document or updates its names. Task
// lists are only written when provided.
func (s *Store) UpsertEmployee(ctx context.Context, e models.Employee) error {
	set := bson.M{"firstName": e.FirstName, "lastName": e.LastName}
	if e.Todo != nil {
		set["todo"] = toTaskDocs(e.Todo)
	}
	if e.Done != nil {
		set["done"] = toTaskDocs(e.Done)
	}
	_, err := s.employees.UpdateOne(ctx,
		bson.M{"empId": e.EmployeeID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert employee: %w", err)
	}
	return nil
}

type session struct {
	sess      mongo.Session
	employees *mongo.Collection
}

func (s *session) Close() error {
	s.sess.EndSession(context.Background())
	return nil
}

func (s *session) ctx(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.sess)
}

var employeeProjection = bson.M{"empId": 1, "firstName": 1, "lastName": 1, "todo": 1, "done": 1}

// FindEmployee looks the employee up by empId. It returns nil, nil when absent.
func (s *session) FindEmployee(ctx context.Context, empID int) (*models.Employee, error) {
	var doc employeeDoc
	err := s.employees.FindOne(s.ctx(ctx),
		bson.M{"empId": empID},
		options.FindOne().SetProjection(employeeProjection),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return doc.toModel(), nil
}

// ReplaceTaskLists overwrites both arrays with a single $set.
func (s *session) ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) (bool, error) {
	result, err := s.employees.UpdateOne(s.ctx(ctx),
		bson.M{"empId": empID},
		bson.M{"$set": bson.M{"todo": toTaskDocs(todo), "done": toTaskDocs(done)}},
	)
	if err != nil {
		return false, fmt.Errorf("replace task lists: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// AppendTodo pushes task onto the todo array.
func (s *session) AppendTodo(ctx context.Context, empID int, task models.Task) (int64, error) {
	result, err := s.employees.UpdateOne(s.ctx(ctx),
		bson.M{"empId": empID},
		bson.M{"$push": bson.M{"todo": taskDoc{ID: task.ID, Text: task.Text}}},
	)
	if err != nil {
		return 0, fmt.Errorf("append todo: %w", err)
	}
	return result.ModifiedCount, nil
}

type taskDoc struct {
	ID   any    `bson:"_id"`
	Text string `bson:"text"`
}

type employeeDoc struct {
	EmpID     int       `bson:"empId"`
	FirstName string    `bson:"firstName,omitempty"`
	LastName  string    `bson:"lastName,omitempty"`
	Todo      []taskDoc `bson:"todo,omitempty"`
	Done      []taskDoc `bson:"done,omitempty"`
}

func (d employeeDoc) toModel() *models.Employee {
	return &models.Employee{
		EmployeeID: d.EmpID,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Todo:       fromTaskDocs(d.Todo),
		Done:       fromTaskDocs(d.Done),
	}
}

func toTaskDocs(tasks []models.Task) []taskDoc {
	docs := make([]taskDoc, len(tasks))
	for i, t := range tasks {
		docs[i] = taskDoc{ID: t.ID, Text: t.Text}
	}
	return docs
}

func fromTaskDocs(docs []taskDoc) []models.Task {
	if docs == nil {
		return nil
	}
	tasks := make([]models.Task, len(docs))
	for i, d := range docs {
		tasks[i] = models.Task{ID: idString(d.ID), Text: d.Text}
	}
	return tasks
}

// idString renders stored ids as strings. Older documents carry ObjectIDs.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

var (
	_ store.Gateway     = (*Store)(nil)
	_ store.Provisioner = (*Store)(nil)
)
