package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/events"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type GeneratorService interface {
	// AutoGenerateHierarchyData creates demo entities for every node of tree and
	// returns a copy of the tree carrying the created entities. The report is
	// returned even when some calls failed.
	AutoGenerateHierarchyData(ctx context.Context, tree *entities.HierarchyTree, tenant entities.EntityRef, settings entities.AutoGeneratingSettings) (*entities.HierarchyTree, *entities.GenerationReport, error)
	GetCreatedEntities() []entities.EntityRef
	SetCreatedEntities(refs []entities.EntityRef)
	MergeCreatedEntities(refs []entities.EntityRef)
	ClearCreatedEntities()
	// DeleteCreatedEntities removes devices, then assets, then customers.
	// Failed deletes are logged and otherwise ignored.
	DeleteCreatedEntities(ctx context.Context, refs []entities.EntityRef) error
}

type generatorService struct {
	backend   interfaces.BackendIntegration
	sequencer *Sequencer
	logger    *zap.Logger

	mu     sync.Mutex
	ledger []entities.EntityRef
	known  map[string]bool

	running atomic.Bool
	newRand func() *rand.Rand
	now     func() time.Time
}

func NewGeneratorService(backend interfaces.BackendIntegration, sequencer *Sequencer, logger *zap.Logger) *generatorService {
	return &generatorService{
		backend:   backend,
		sequencer: sequencer,
		logger:    logger,
		known:     make(map[string]bool),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now: time.Now,
	}
}

// pairing links one parent entity to one child entity of the next level.
type pairing struct {
	parent       entities.EntityRef
	child        entities.EntityRef
	relationType string
	changeOwner  bool
}

// generationRun is the state owned by a single run.
type generationRun struct {
	tree     *entities.HierarchyTree
	tenant   entities.EntityRef
	settings entities.AutoGeneratingSettings
	counters *runCounters
	values   *demoValues

	slots    map[*entities.HierarchyTreeNode][]*entities.CreatedEntity
	pairings []pairing
}

func (s *generatorService) AutoGenerateHierarchyData(ctx context.Context, tree *entities.HierarchyTree, tenant entities.EntityRef, settings entities.AutoGeneratingSettings) (*entities.HierarchyTree, *entities.GenerationReport, error) {
	if tree == nil {
		return nil, nil, errors.ValidationErrorf("hierarchy tree is required")
	}
	if tenant.IsZero() {
		return nil, nil, errors.ValidationErrorf("tenant id is required")
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, nil, err
	}
	planned, err := PlannedEntities(tree, settings.Count)
	if err != nil {
		return nil, nil, err
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, nil, errors.DuplicateErrorf("a generation run is already in progress")
	}
	defer s.running.Store(false)

	s.ClearCreatedEntities()

	counters := newRunCounters()
	run := &generationRun{
		tree:     tree.Clone(),
		tenant:   tenant,
		settings: settings,
		counters: counters,
		values:   &demoValues{counters: counters, rand: s.newRand(), now: s.now()},
		slots:    make(map[*entities.HierarchyTreeNode][]*entities.CreatedEntity),
	}
	for _, node := range run.tree.Nodes() {
		node.Entities = nil
	}

	report := entities.NewGenerationReport()
	s.logger.Info("Starting generation run",
		zap.String("run_id", report.RunID),
		zap.Int("count", settings.Count),
		zap.String("prefix", settings.Prefix),
		zap.Int("max_level", run.tree.MaxLevel),
		zap.Int("planned_entities", planned))

	report.Phases = s.sequencer.Run(ctx, report.RunID, []Phase{
		{Name: entities.PhaseCreateEntities, Build: func() []Task { return s.creationTasks(run) }, Settled: func() { s.commitCreated(run) }},
		{Name: entities.PhaseChangeOwner, Build: func() []Task { return s.ownershipTasks(run) }},
		{Name: entities.PhaseCreateRelations, Build: func() []Task { return s.relationTasks(run) }},
		{Name: entities.PhaseSaveAttributes, Build: func() []Task { return s.attributeTasks(run) }},
		{Name: entities.PhaseSaveTelemetry, Build: func() []Task { return s.telemetryTasks(run) }},
	})
	report.FinishedAt = time.Now()
	events.PublishRunCompleted(report)

	var errs error
	for _, phase := range report.Phases {
		if phase.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", phase.Name, phase.Err))
		}
	}
	if errs != nil {
		return run.tree, report, errors.InternalErrorf("generation run %s finished with %d failed calls: %v", report.RunID, report.Failed(), errs)
	}

	s.logger.Info("Generation run completed",
		zap.String("run_id", report.RunID),
		zap.Int("calls", report.Dispatched()),
		zap.Int("entities", len(s.GetCreatedEntities())))
	return run.tree, report, nil
}

func (s *generatorService) creationTasks(run *generationRun) []Task {
	var tasks []Task
	run.tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		if node.IsTenant() {
			return true
		}
		fanOut := FanOut(run.settings.Count, node.Level)
		slots := make([]*entities.CreatedEntity, fanOut)
		run.slots[node] = slots
		entityType := node.Type.EntityType()
		for i := range slots {
			name, n := run.counters.entityName(run.settings.Prefix, entityType, node.Name)
			draft := entities.EntityDraft{Name: name, Type: node.Name, Label: node.Name}
			if entityType == entities.EntityCustomer {
				draft = entities.EntityDraft{Name: name, Email: fmt.Sprintf("customer-email%d@site.net", n)}
			}
			tasks = append(tasks, func(ctx context.Context) error {
				ref, err := s.create(ctx, entityType, draft)
				if err != nil {
					return fmt.Errorf("create %s %q: %w", entityType, name, err)
				}
				slots[i] = &entities.CreatedEntity{Ref: ref, Name: name}
				return nil
			})
		}
		return true
	})
	return tasks
}

func (s *generatorService) create(ctx context.Context, t entities.EntityType, draft entities.EntityDraft) (entities.EntityRef, error) {
	switch t {
	case entities.EntityCustomer:
		return s.backend.CreateCustomer(ctx, draft)
	case entities.EntityAsset:
		return s.backend.CreateAsset(ctx, draft)
	case entities.EntityDevice:
		return s.backend.CreateDevice(ctx, draft)
	}
	return entities.EntityRef{}, errors.ValidationErrorf("cannot generate entities of type %s", t)
}

// commitCreated moves the created entities into their nodes in creation order,
// records them in the ledger and stamps each paired entity with its parent.
// Failed creations leave no trace.
func (s *generatorService) commitCreated(run *generationRun) {
	var created []entities.EntityRef
	run.tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		for _, slot := range run.slots[node] {
			if slot == nil {
				continue
			}
			node.Entities = append(node.Entities, *slot)
			created = append(created, slot.Ref)
		}
		return true
	})
	s.MergeCreatedEntities(created)
	run.pairings = distribute(run.tree, run.tenant)

	parents := make(map[string]entities.EntityRef, len(run.pairings))
	for _, p := range run.pairings {
		parents[p.child.ID] = p.parent
	}
	run.tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		for i := range node.Entities {
			if parent, ok := parents[node.Entities[i].Ref.ID]; ok {
				node.Entities[i].Parent = &parent
			}
		}
		return true
	})
}

// distribute pairs every child entity with a parent entity. Each parent takes
// floor(children/parents) consecutive children; entities under the tenant
// pair with the tenant itself.
func distribute(tree *entities.HierarchyTree, tenant entities.EntityRef) []pairing {
	var pairings []pairing
	tree.Walk(func(node, parent *entities.HierarchyTreeNode) bool {
		if parent == nil || node.IsTenant() {
			return true
		}
		parents := parent.EntityRefs()
		if parent.IsTenant() {
			parents = []entities.EntityRef{tenant}
		}
		children := node.EntityRefs()
		if len(parents) == 0 || len(children) == 0 {
			return true
		}
		ratio := len(children) / len(parents)
		next := 0
		for _, p := range parents {
			for k := 0; k < ratio; k++ {
				child := children[next]
				next++
				pairings = append(pairings, pairing{
					parent:       p,
					child:        child,
					relationType: node.Data.RelationType,
					changeOwner: p.EntityType == entities.EntityCustomer &&
						(child.EntityType == entities.EntityAsset || child.EntityType == entities.EntityDevice),
				})
			}
		}
		return true
	})
	return pairings
}

func (s *generatorService) ownershipTasks(run *generationRun) []Task {
	var tasks []Task
	for _, p := range run.pairings {
		if !p.changeOwner {
			continue
		}
		tasks = append(tasks, func(ctx context.Context) error {
			if err := s.backend.ChangeOwner(ctx, p.parent, p.child); err != nil {
				return fmt.Errorf("change owner of %s %s: %w", p.child.EntityType, p.child.ID, err)
			}
			return nil
		})
	}
	return tasks
}

func (s *generatorService) relationTasks(run *generationRun) []Task {
	tasks := make([]Task, 0, len(run.pairings))
	for _, p := range run.pairings {
		relation := entities.NewRelation(p.parent, p.child, p.relationType)
		tasks = append(tasks, func(ctx context.Context) error {
			if err := s.backend.SaveRelation(ctx, relation); err != nil {
				return fmt.Errorf("save relation %s %s -> %s: %w", relation.Type, relation.From.ID, relation.To.ID, err)
			}
			return nil
		})
	}
	return tasks
}

func (s *generatorService) attributeTasks(run *generationRun) []Task {
	var tasks []Task
	run.tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		if len(node.Data.Attributes) == 0 {
			return true
		}
		for _, entity := range node.Entities {
			ref := entity.Ref
			kvs := run.values.attributes(node.Data.Attributes)
			tasks = append(tasks, func(ctx context.Context) error {
				if err := s.backend.SaveAttributes(ctx, ref, entities.ScopeServer, kvs); err != nil {
					return fmt.Errorf("save attributes of %s %s: %w", ref.EntityType, ref.ID, err)
				}
				return nil
			})
		}
		return true
	})
	return tasks
}

func (s *generatorService) telemetryTasks(run *generationRun) []Task {
	var tasks []Task
	run.tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		for _, entity := range node.Entities {
			ref := entity.Ref
			for _, field := range node.Data.Telemetries {
				points := run.values.telemetry(field.Name)
				tasks = append(tasks, func(ctx context.Context) error {
					if err := s.backend.SaveTimeseries(ctx, ref, entities.ScopeAny, points); err != nil {
						return fmt.Errorf("save telemetry %s of %s %s: %w", field.Name, ref.EntityType, ref.ID, err)
					}
					return nil
				})
			}
		}
		return true
	})
	return tasks
}

func (s *generatorService) GetCreatedEntities() []entities.EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.EntityRef(nil), s.ledger...)
}

func (s *generatorService) SetCreatedEntities(refs []entities.EntityRef) {
	s.mu.Lock()
	s.ledger = nil
	s.known = make(map[string]bool)
	s.mu.Unlock()
	s.MergeCreatedEntities(refs)
}

// MergeCreatedEntities appends refs that are not in the ledger yet.
func (s *generatorService) MergeCreatedEntities(refs []entities.EntityRef) {
	s.mu.Lock()
	for _, ref := range refs {
		if ref.IsZero() || s.known[ref.ID] {
			continue
		}
		s.known[ref.ID] = true
		s.ledger = append(s.ledger, ref)
	}
	size := len(s.ledger)
	s.mu.Unlock()
	events.PublishLedgerChanged(size)
}

func (s *generatorService) ClearCreatedEntities() {
	s.SetCreatedEntities(nil)
}

func (s *generatorService) DeleteCreatedEntities(ctx context.Context, refs []entities.EntityRef) error {
	byType := make(map[entities.EntityType][]string)
	for _, ref := range refs {
		byType[ref.EntityType] = append(byType[ref.EntityType], ref.ID)
	}

	deletePhase := func(name entities.PhaseName, t entities.EntityType, del func(context.Context, string) error) Phase {
		return Phase{Name: name, Build: func() []Task {
			tasks := make([]Task, 0, len(byType[t]))
			for _, id := range byType[t] {
				tasks = append(tasks, func(ctx context.Context) error {
					if err := del(ctx, id); err != nil {
						s.logger.Warn("Failed to delete generated entity, treating it as gone",
							zap.String("entity_type", string(t)),
							zap.String("id", id),
							zap.Error(err))
					}
					return nil
				})
			}
			return tasks
		}}
	}

	reports := s.sequencer.Run(ctx, "delete", []Phase{
		deletePhase(entities.PhaseDeleteDevices, entities.EntityDevice, s.backend.DeleteDevice),
		deletePhase(entities.PhaseDeleteAssets, entities.EntityAsset, s.backend.DeleteAsset),
		deletePhase(entities.PhaseDeleteCustomers, entities.EntityCustomer, s.backend.DeleteCustomer),
	})

	deleted := 0
	for _, r := range reports {
		deleted += r.Dispatched - r.Failed
	}
	s.logger.Info("Deleted generated entities", zap.Int("requested", len(refs)), zap.Int("deleted", deleted))
	return ctx.Err()
}

var _ GeneratorService = &generatorService{}
