package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

type backendCall struct {
	Method string
	Ref    entities.EntityRef
	Other  entities.EntityRef
	Name   string
	Type   string
	Count  int
}

// fakeBackend records calls in order and hands out sequential ids.
type fakeBackend struct {
	mu        sync.Mutex
	calls     []backendCall
	nextID    int
	failOn    map[string]error
	relations map[string][]entities.RelationInfo
	queries   []entities.RelationsQuery
	tenant    entities.EntityRef
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		failOn:    make(map[string]error),
		relations: make(map[string][]entities.RelationInfo),
		tenant:    entities.EntityRef{ID: "tenant-1", EntityType: entities.EntityTenant},
	}
}

func (f *fakeBackend) record(call backendCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if err, ok := f.failOn[call.Method]; ok {
		return err
	}
	return nil
}

func (f *fakeBackend) create(method string, t entities.EntityType, draft entities.EntityDraft) (entities.EntityRef, error) {
	f.mu.Lock()
	f.nextID++
	ref := entities.EntityRef{ID: fmt.Sprintf("%s-%d", t, f.nextID), EntityType: t}
	f.mu.Unlock()
	if err := f.record(backendCall{Method: method, Ref: ref, Name: draft.Name, Type: draft.Type}); err != nil {
		return entities.EntityRef{}, err
	}
	return ref, nil
}

func (f *fakeBackend) CreateCustomer(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return f.create("CreateCustomer", entities.EntityCustomer, draft)
}

func (f *fakeBackend) CreateAsset(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return f.create("CreateAsset", entities.EntityAsset, draft)
}

func (f *fakeBackend) CreateDevice(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return f.create("CreateDevice", entities.EntityDevice, draft)
}

func (f *fakeBackend) DeleteCustomer(ctx context.Context, id string) error {
	return f.record(backendCall{Method: "DeleteCustomer", Ref: entities.EntityRef{ID: id, EntityType: entities.EntityCustomer}})
}

func (f *fakeBackend) DeleteAsset(ctx context.Context, id string) error {
	return f.record(backendCall{Method: "DeleteAsset", Ref: entities.EntityRef{ID: id, EntityType: entities.EntityAsset}})
}

func (f *fakeBackend) DeleteDevice(ctx context.Context, id string) error {
	return f.record(backendCall{Method: "DeleteDevice", Ref: entities.EntityRef{ID: id, EntityType: entities.EntityDevice}})
}

func (f *fakeBackend) ChangeOwner(ctx context.Context, owner, entity entities.EntityRef) error {
	return f.record(backendCall{Method: "ChangeOwner", Ref: entity, Other: owner})
}

func (f *fakeBackend) SaveAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, attributes []entities.AttributeKV) error {
	return f.record(backendCall{Method: "SaveAttributes", Ref: ref, Type: string(scope), Count: len(attributes)})
}

func (f *fakeBackend) SaveTimeseries(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, points []entities.TimeseriesPoint) error {
	key := ""
	if len(points) > 0 {
		key = points[0].Key
	}
	return f.record(backendCall{Method: "SaveTimeseries", Ref: ref, Name: key, Count: len(points)})
}

func (f *fakeBackend) GetAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, keys []string) ([]entities.AttributeKV, error) {
	return nil, nil
}

func (f *fakeBackend) SaveRelation(ctx context.Context, relation entities.Relation) error {
	return f.record(backendCall{Method: "SaveRelation", Ref: relation.To, Other: relation.From, Type: relation.Type})
}

func (f *fakeBackend) FindInfoByQuery(ctx context.Context, query entities.RelationsQuery) ([]entities.RelationInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err, ok := f.failOn["FindInfoByQuery"]; ok {
		return nil, err
	}
	return f.relations[query.RootID+"/"+query.RelationType], nil
}

func (f *fakeBackend) CurrentTenantID(ctx context.Context) (entities.EntityRef, error) {
	return f.tenant, nil
}

var _ interfaces.BackendIntegration = (*fakeBackend)(nil)

func (f *fakeBackend) callsOf(method string) []backendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backendCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

// Mock repository for testing
type mockModelRepository struct {
	mock.Mock
}

func (m *mockModelRepository) GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.SavedModel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModelRepository) SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error {
	args := m.Called(ctx, tenantID, model)
	return args.Error(0)
}

// memoryModelRepository keeps saved models in a map.
type memoryModelRepository struct {
	mu     sync.Mutex
	models map[string]*entities.SavedModel
}

func newMemoryModelRepository() *memoryModelRepository {
	return &memoryModelRepository{models: make(map[string]*entities.SavedModel)}
}

func (r *memoryModelRepository) GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, ok := r.models[tenantID]
	if !ok {
		return nil, errors.NotFoundErrorf("no saved model for tenant %s", tenantID)
	}
	copied := *saved
	return &copied, nil
}

func (r *memoryModelRepository) SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *model
	r.models[tenantID] = &copied
	return nil
}

// testNode builds a graph node whose connectors are id+"-in" and id+"-out".
func testNode(id, name string, t entities.ElementType) entities.GraphNode {
	n := entities.GraphNode{ID: id, Name: name, Type: t}
	if t != entities.ElementTenant {
		n.Connectors = append(n.Connectors, entities.Connector{ID: id + "-in", Type: entities.ConnectorInput})
	}
	n.Connectors = append(n.Connectors, entities.Connector{ID: id + "-out", Type: entities.ConnectorOutput})
	return n
}

func testEdge(from, to, label string) entities.GraphEdge {
	return entities.GraphEdge{Source: from + "-out", Destination: to + "-in", Label: label}
}

// exampleModel is Tenant -> Customer "Region" -> Device "Sensor".
func exampleModel() *entities.DataModel {
	sensor := testNode("3", "Sensor", entities.ElementDevice)
	sensor.AdditionalFields = entities.AdditionalFields{
		entities.FieldAttributes: {
			{Name: "serial", Type: entities.ValueString},
			{Name: "mode", Type: entities.ValueString, IsEnum: true, EnumOptions: []string{"auto", "manual"}},
		},
		entities.FieldTelemetries: {
			{Name: "temperature"},
		},
	}
	return &entities.DataModel{
		Nodes: []entities.GraphNode{
			testNode("1", "Tenant", entities.ElementTenant),
			testNode("2", "Region", entities.ElementCustomer),
			sensor,
		},
		Edges: []entities.GraphEdge{
			testEdge("1", "2", "hasRegion"),
			testEdge("2", "3", "hasSensor"),
		},
	}
}
