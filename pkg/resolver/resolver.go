package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/model"
)

// Resolver turns records into resolved trees using a knack.Fetcher.
type Resolver struct {
	fetcher     knack.Fetcher
	pairing     model.Pairing
	maxDepth    int
	concurrency int
	maxInFlight int
	cycle       CyclePolicy
	logger      *zap.Logger
}

// New constructs a Resolver. The fetcher is required; every other setting
// has a default.
func New(fetcher knack.Fetcher, options ...Option) *Resolver {
	r := &Resolver{
		fetcher:     fetcher,
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultConcurrency,
		maxInFlight: DefaultMaxInFlight,
		cycle:       CycleTruncate,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	if r.maxInFlight < 1 {
		r.maxInFlight = 1
	}
	if r.cycle != CycleFail {
		r.cycle = CycleTruncate
	}
	return r
}

// Resolve fetches the object's schema and resolves the record against it.
func (r *Resolver) Resolve(ctx context.Context, objectID, recordID string) (model.Tree, error) {
	if err := r.check(ctx, objectID, recordID); err != nil {
		return nil, err
	}
	p := r.newPass()
	schema, err := p.fields(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, objectID, recordID, schema)
}

// ResolveWithSchema resolves the record against a schema the caller already
// holds, skipping the schema fetch.
func (r *Resolver) ResolveWithSchema(ctx context.Context, objectID, recordID string, schema []knack.FieldSchema) (model.Tree, error) {
	if err := r.check(ctx, objectID, recordID); err != nil {
		return nil, err
	}
	return r.newPass().run(ctx, objectID, recordID, schema)
}

func (r *Resolver) check(ctx context.Context, objectID, recordID string) error {
	if ctx == nil {
		return errors.New("resolver: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.fetcher == nil {
		return errors.New("resolver: fetcher is nil")
	}
	if strings.TrimSpace(objectID) == "" {
		return errors.New("resolver: object id is required")
	}
	if strings.TrimSpace(recordID) == "" {
		return errors.New("resolver: record id is required")
	}
	return nil
}

// pass holds the state of one resolution: the request limiter and counters
// for debug output. Nothing survives across passes.
type pass struct {
	*Resolver
	id       string
	requests *semaphore.Weighted
	fetches  atomic.Int64
}

func (r *Resolver) newPass() *pass {
	return &pass{
		Resolver: r,
		id:       uuid.NewString(),
		requests: semaphore.NewWeighted(int64(r.maxInFlight)),
	}
}

func (p *pass) run(ctx context.Context, objectID, recordID string, schema []knack.FieldSchema) (model.Tree, error) {
	tree, err := p.resolve(ctx, objectID, recordID, schema, 0, []string{nodeKey(objectID, recordID)})
	if err != nil {
		p.logger.Debug("resolution failed",
			zap.String("pass", p.id),
			zap.String("object", objectID),
			zap.String("record", recordID),
			zap.Error(err),
		)
		return nil, err
	}
	p.logger.Debug("resolved record",
		zap.String("pass", p.id),
		zap.String("object", objectID),
		zap.String("record", recordID),
		zap.Int("fields", len(tree)),
		zap.Int("depth", tree.Depth()),
		zap.Int64("fetches", p.fetches.Load()),
	)
	return tree, nil
}

func (p *pass) resolve(ctx context.Context, objectID, recordID string, schema []knack.FieldSchema, depth int, ancestry []string) (model.Tree, error) {
	if p.maxDepth >= 0 && depth > p.maxDepth {
		return nil, &DepthError{Limit: p.maxDepth, ObjectID: objectID, RecordID: recordID}
	}

	record, err := p.record(ctx, objectID, recordID)
	if err != nil {
		return nil, err
	}

	tree := make(model.Tree, 0, len(schema))
	for _, field := range schema {
		if field.IsConnection() {
			node, err := p.connection(ctx, objectID, recordID, record, field, depth, ancestry)
			if err != nil {
				return nil, err
			}
			tree = append(tree, node)
			continue
		}

		html, ok := record.Display(field.Key)
		if !ok {
			return nil, &SchemaMismatchError{ObjectID: objectID, RecordID: recordID, FieldKey: field.Key, Reason: "record has no value for field"}
		}
		raw, _ := record.Raw(field.Key)
		tree = append(tree, &model.ScalarField{Schema: field, HTML: html, Raw: raw})
	}
	return tree, nil
}

func (p *pass) connection(ctx context.Context, objectID, recordID string, record knack.RawRecord, field knack.FieldSchema, depth int, ancestry []string) (*model.ConnectionField, error) {
	mismatch := func(reason string, err error) error {
		return &SchemaMismatchError{ObjectID: objectID, RecordID: recordID, FieldKey: field.Key, Reason: reason, Err: err}
	}

	related := field.RelatedObject()
	if related == "" {
		return nil, mismatch("connection field has no related object", nil)
	}

	stubs, present, err := record.Stubs(field.Key)
	if err != nil {
		return nil, mismatch("unreadable connection value", err)
	}
	if !present {
		return nil, mismatch("record has no raw value for connection", nil)
	}

	node := &model.ConnectionField{Schema: field, Connections: make([]model.Connection, len(stubs))}
	if len(stubs) == 0 {
		return node, nil
	}

	childSchema, err := p.fields(ctx, related)
	if err != nil {
		return nil, err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)
	for idx, stub := range stubs {
		group.Go(func() error {
			conn, err := p.link(groupCtx, related, stub, childSchema, depth+1, ancestry)
			if err != nil {
				return err
			}
			node.Connections[idx] = conn
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *pass) link(ctx context.Context, objectID string, stub knack.Stub, schema []knack.FieldSchema, depth int, ancestry []string) (model.Connection, error) {
	conn := model.Connection{ID: stub.ID, Identifier: stub.Identifier}

	key := nodeKey(objectID, stub.ID)
	if slices.Contains(ancestry, key) {
		if p.cycle == CycleFail {
			return conn, &CycleError{Path: append(slices.Clone(ancestry), key)}
		}
		p.logger.Debug("connection cycle truncated",
			zap.String("pass", p.id),
			zap.String("record", key),
		)
		conn.Truncated = true
		conn.Records = model.Tree{}
		conn.Body = &model.RecordList{Records: conn.Records}
		return conn, nil
	}

	lineage := make([]string, len(ancestry), len(ancestry)+1)
	copy(lineage, ancestry)
	lineage = append(lineage, key)

	records, err := p.resolve(ctx, objectID, stub.ID, schema, depth, lineage)
	if err != nil {
		return conn, err
	}
	conn.Records = records
	conn.Body = p.pairing.Classify(records)
	return conn, nil
}

func (p *pass) fields(ctx context.Context, objectID string) ([]knack.FieldSchema, error) {
	if err := p.requests.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.requests.Release(1)
	p.fetches.Add(1)

	fields, err := p.fetcher.FetchFields(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *pass) record(ctx context.Context, objectID, recordID string) (knack.RawRecord, error) {
	if err := p.requests.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.requests.Release(1)
	p.fetches.Add(1)

	record, err := p.fetcher.FetchRecord(ctx, objectID, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("resolver: fetcher returned no record for %s", nodeKey(objectID, recordID))
	}
	return record, nil
}

func nodeKey(objectID, recordID string) string {
	return objectID + "/" + recordID
}
