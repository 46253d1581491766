// Package mongostore reads and writes the workflow catalog in MongoDB: the
// workflow metadata collection and the task result collection written by
// the execution layer.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
)

// DefaultTimeout bounds a single store call when none is configured.
const DefaultTimeout = 5 * time.Second

// Connect opens a client for uri and pings the primary. Embedded documents
// decode as bson.M so that task results round-trip to JSON as objects.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, domain.Unavailable("mongo ping", err)
	}
	return client, nil
}

// Store implements catalog.Store and engine.RecordStore.
type Store struct {
	workflows *mongo.Collection
	tasks     *mongo.Collection
	timeout   time.Duration
}

var (
	_ catalog.Store      = (*Store)(nil)
	_ engine.RecordStore = (*Store)(nil)
)

// New creates a Store over database dbName. Every call is bounded by
// timeout, or DefaultTimeout when timeout is not positive.
func New(client *mongo.Client, dbName string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	db := client.Database(dbName)
	return &Store{
		workflows: db.Collection(domain.WorkflowCollection),
		tasks:     db.Collection(domain.TaskCollection),
		timeout:   timeout,
	}
}

// FindPendingWorkflowIDs returns workflows none of whose steps has a task run.
func (s *Store) FindPendingWorkflowIDs(ctx context.Context, appID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"steps.task_runs.0": bson.M{"$exists": false}}
	if appID != "" {
		filter["app_id"] = appID
	}
	cur, err := s.workflows.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, classify("find pending workflows", err)
	}
	var docs []idDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify("find pending workflows", err)
	}
	return idsOf(docs), nil
}

// DistinctActiveTaskWorkflowIDs returns the workflow back-references of
// task records that are not in a terminal state.
func (s *Store) DistinctActiveTaskWorkflowIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"status": bson.M{"$nin": statusStrings(domain.TerminalStatuses())}}
	vals, err := s.tasks.Distinct(ctx, "kwargs.workflow_id", filter)
	if err != nil {
		return nil, classify("distinct running workflows", err)
	}
	return stringsOf(vals), nil
}

// AggregateWorkflowIDs answers count and page with one $facet aggregation so
// both describe the same evaluation.
func (s *Store) AggregateWorkflowIDs(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.workflows.Aggregate(ctx, pagePipeline(q))
	if err != nil {
		return catalog.Page{}, classify("aggregate workflows", err)
	}
	var out []struct {
		Metadata []struct {
			Total int64 `bson:"total"`
		} `bson:"metadata"`
		Results []idDoc `bson:"results"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return catalog.Page{}, classify("aggregate workflows", err)
	}

	page := catalog.Page{IDs: []string{}}
	if len(out) == 0 {
		return page, nil
	}
	if len(out[0].Metadata) > 0 {
		page.Total = out[0].Metadata[0].Total
	}
	page.IDs = idsOf(out[0].Results)
	// $limit must be positive, so a zero limit fetches one row and drops it.
	if len(page.IDs) > q.Limit {
		page.IDs = page.IDs[:q.Limit]
	}
	return page, nil
}

// AggregateStatusCounts groups workflows by stored status, skipping records
// without one.
func (s *Store) AggregateStatusCounts(ctx context.Context, appID string) (map[domain.Status]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	match := bson.M{"_status": bson.M{"$ne": nil}}
	if appID != "" {
		match["app_id"] = appID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$_status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.workflows.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify("count workflows by status", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, classify("count workflows by status", err)
	}

	counts := make(map[domain.Status]int64, len(rows))
	for _, r := range rows {
		counts[domain.Status(r.Status)] += r.Count
	}
	return counts, nil
}

// DeleteWorkflow removes one metadata record. Task records are kept.
func (s *Store) DeleteWorkflow(ctx context.Context, workflowID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.workflows.DeleteOne(ctx, bson.M{"_id": workflowID})
	if err != nil {
		return 0, classify("delete workflow", err)
	}
	return res.DeletedCount, nil
}

// DistinctTaskSteps returns the distinct step labels of task records.
func (s *Store) DistinctTaskSteps(ctx context.Context, appID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{}
	if appID != "" {
		filter["kwargs.app_id"] = appID
	}
	vals, err := s.tasks.Distinct(ctx, "kwargs.step", filter)
	if err != nil {
		return nil, classify("distinct task steps", err)
	}
	return stringsOf(vals), nil
}

// InsertWorkflow stores a new workflow record.
func (s *Store) InsertWorkflow(ctx context.Context, wf *domain.WorkflowRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.workflows.InsertOne(ctx, wf); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("workflow %s already exists: %w", wf.ID, err)
		}
		return classify("insert workflow", err)
	}
	return nil
}

// GetWorkflow loads one workflow record.
func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var wf domain.WorkflowRecord
	if err := s.workflows.FindOne(ctx, bson.M{"_id": workflowID}).Decode(&wf); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WorkflowNotFound(workflowID)
		}
		return nil, classify("get workflow", err)
	}
	return &wf, nil
}

// FindTasks loads task records by ID.
func (s *Store) FindTasks(ctx context.Context, taskIDs []string) (map[string]domain.TaskExecutionRecord, error) {
	out := make(map[string]domain.TaskExecutionRecord, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.tasks.Find(ctx, bson.M{"_id": bson.M{"$in": taskIDs}})
	if err != nil {
		return nil, classify("find tasks", err)
	}
	var tasks []domain.TaskExecutionRecord
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, classify("find tasks", err)
	}
	for _, t := range tasks {
		out[t.ID] = t
	}
	return out, nil
}

// EnsureIndexes creates the indexes the catalog queries rely on. It is safe
// to run repeatedly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 4*s.timeout)
	defer cancel()

	if _, err := s.tasks.Indexes().CreateMany(ctx, ascending("status", "kwargs.app_id", "kwargs.step", "kwargs.workflow_id")); err != nil {
		return classify("create task indexes", err)
	}
	if _, err := s.workflows.Indexes().CreateMany(ctx, ascending("_status", "app_id", "created_at")); err != nil {
		return classify("create workflow indexes", err)
	}
	return nil
}

type idDoc struct {
	ID string `bson:"_id"`
}

func idsOf(docs []idDoc) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func stringsOf(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, string(st))
	}
	return out
}

func ascending(fields ...string) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	return models
}

func classify(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return domain.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
