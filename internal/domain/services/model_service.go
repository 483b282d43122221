package services

import (
	"context"
	"sync"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.uber.org/zap"
)

type ModelService interface {
	GetModel(ctx context.Context) (*entities.ModelState, error)
	SaveModel(ctx context.Context, model *entities.DataModel) error
	ResetModel(ctx context.Context) (*entities.DataModel, error)
	GetTree(ctx context.Context) (*entities.HierarchyTree, error)
	ValidateEdge(ctx context.Context, edge entities.GraphEdge) error
	AutoFill(ctx context.Context, settings entities.AutoGeneratingSettings) (*entities.HierarchyTree, *entities.GenerationReport, error)
	DeleteGenerated(ctx context.Context) (int, error)
	LoadRealTree(ctx context.Context) (*entities.DisplayTree, error)
	PlanDashboard(ctx context.Context) (*entities.DashboardPlan, error)
}

type modelService struct {
	modelRepo  interfaces.ModelRepository
	tenants    interfaces.TenantProvider
	generator  GeneratorService
	loader     *RealTreeLoader
	dashboards interfaces.DashboardGenerator
	validator  *RelationValidator
	logger     *zap.Logger

	// serializes read-modify-write cycles on the saved model
	mu sync.Mutex
}

func NewModelService(
	modelRepo interfaces.ModelRepository,
	tenants interfaces.TenantProvider,
	generator GeneratorService,
	loader *RealTreeLoader,
	dashboards interfaces.DashboardGenerator,
	logger *zap.Logger,
) *modelService {
	return &modelService{
		modelRepo:  modelRepo,
		tenants:    tenants,
		generator:  generator,
		loader:     loader,
		dashboards: dashboards,
		validator:  NewRelationValidator(),
		logger:     logger,
	}
}

// load reads the saved state of the current tenant. A tenant without a saved
// model gets the default model. An unreadable ledger is logged and dropped so
// the model itself stays usable.
func (s *modelService) load(ctx context.Context) (*entities.ModelState, entities.EntityRef, error) {
	tenant, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return nil, entities.EntityRef{}, err
	}

	state := &entities.ModelState{TenantID: tenant.ID}
	saved, err := s.modelRepo.GetSavedModel(ctx, tenant.ID)
	if err != nil {
		if _, ok := err.(*errors.NotFoundError); !ok {
			return nil, tenant, err
		}
		state.Model = entities.NewDefaultDataModel()
		return state, tenant, nil
	}

	model, err := saved.DataModel()
	if err != nil {
		return nil, tenant, errors.InternalErrorf("saved model of tenant %s is unreadable: %v", tenant.ID, err)
	}
	state.Model = model
	state.GeneratedDashboardID = saved.GeneratedDashboardID

	ledger, err := saved.Ledger()
	if err != nil {
		s.logger.Warn("Ignoring unreadable generated entities", zap.String("tenant_id", tenant.ID), zap.Error(err))
		ledger = nil
	}
	state.GeneratedEntities = ledger
	return state, tenant, nil
}

func (s *modelService) persist(ctx context.Context, state *entities.ModelState) error {
	saved, err := entities.NewSavedModel(state.Model, state.GeneratedEntities, state.GeneratedDashboardID)
	if err != nil {
		return errors.InternalErrorf("failed to encode saved model: %v", err)
	}
	return s.modelRepo.SaveSavedModel(ctx, state.TenantID, saved)
}

func (s *modelService) GetModel(ctx context.Context) (*entities.ModelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.generator.MergeCreatedEntities(state.GeneratedEntities)
	return state, nil
}

func (s *modelService) SaveModel(ctx context.Context, model *entities.DataModel) error {
	if model == nil {
		return errors.ValidationErrorf("model is required")
	}
	if err := s.validator.ValidateModel(model); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	state.Model = model
	state.GeneratedEntities = union(state.GeneratedEntities, s.generator.GetCreatedEntities())
	if err := s.persist(ctx, state); err != nil {
		return err
	}

	s.logger.Info("Saved data model",
		zap.String("tenant_id", state.TenantID),
		zap.Int("nodes", len(model.Nodes)),
		zap.Int("edges", len(model.Edges)))
	return nil
}

// ResetModel replaces the saved model with the default one. The ledger and
// dashboard id survive so generated data can still be removed.
func (s *modelService) ResetModel(ctx context.Context) (*entities.DataModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	state.Model = entities.NewDefaultDataModel()
	if err := s.persist(ctx, state); err != nil {
		return nil, err
	}
	return state.Model, nil
}

func (s *modelService) GetTree(ctx context.Context) (*entities.HierarchyTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(state.Model), nil
}

func (s *modelService) ValidateEdge(ctx context.Context, edge entities.GraphEdge) error {
	s.mu.Lock()
	state, _, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.validator.CanConnect(edge, state.Model); err != nil {
		return err
	}
	return s.validator.ValidateEdgeLabel(edge, state.Model)
}

// AutoFill generates demo data for the saved hierarchy. The ledger is saved
// even when the run failed part way, so the partial data can be deleted later.
func (s *modelService) AutoFill(ctx context.Context, settings entities.AutoGeneratingSettings) (*entities.HierarchyTree, *entities.GenerationReport, error) {
	s.mu.Lock()
	state, tenant, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	tree := BuildTree(state.Model)
	if tree.Tenant() == nil || len(tree.Tenant().Children) == 0 {
		return nil, nil, errors.ValidationErrorf("the model has nothing below the tenant to generate")
	}

	populated, report, runErr := s.generator.AutoGenerateHierarchyData(ctx, tree, tenant, settings)
	if report == nil {
		return nil, nil, runErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// persist with a fresh state so edits saved during the run are kept
	current, _, err := s.load(context.WithoutCancel(ctx))
	if err != nil {
		return populated, report, err
	}
	current.GeneratedEntities = union(current.GeneratedEntities, s.generator.GetCreatedEntities())
	if err := s.persist(context.WithoutCancel(ctx), current); err != nil {
		s.logger.Error("Failed to save generated entities", zap.String("run_id", report.RunID), zap.Error(err))
		return populated, report, err
	}
	return populated, report, runErr
}

// DeleteGenerated removes every entity known to the saved or in-memory ledger
// and empties both.
func (s *modelService) DeleteGenerated(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	refs := union(state.GeneratedEntities, s.generator.GetCreatedEntities())
	if err := s.generator.DeleteCreatedEntities(ctx, refs); err != nil {
		return 0, errors.CanceledErrorf("deleting generated entities was interrupted: %v", err)
	}

	s.generator.ClearCreatedEntities()
	state.GeneratedEntities = nil
	if err := s.persist(ctx, state); err != nil {
		return len(refs), err
	}
	return len(refs), nil
}

func (s *modelService) LoadRealTree(ctx context.Context) (*entities.DisplayTree, error) {
	s.mu.Lock()
	state, tenant, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.loader.LoadRealTree(ctx, BuildTree(state.Model), tenant)
}

func (s *modelService) PlanDashboard(ctx context.Context) (*entities.DashboardPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := s.dashboards.Generate(ctx, BuildTree(state.Model), state.GeneratedDashboardID)
	if err != nil {
		return nil, err
	}
	state.GeneratedDashboardID = &plan.ID
	if err := s.persist(ctx, state); err != nil {
		return nil, err
	}
	return plan, nil
}

// union keeps the order of a followed by the refs of b not in a.
func union(a, b []entities.EntityRef) []entities.EntityRef {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]entities.EntityRef, 0, len(a)+len(b))
	for _, list := range [][]entities.EntityRef{a, b} {
		for _, ref := range list {
			if ref.IsZero() || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			out = append(out, ref)
		}
	}
	return out
}

var _ ModelService = &modelService{}
