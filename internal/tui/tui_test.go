package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"
	"github.com/drujensen/datamodels/internal/impl/defaults"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockModelService struct {
	mock.Mock
}

func (m *mockModelService) GetModel(ctx context.Context) (*entities.ModelState, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.ModelState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModelService) SaveModel(ctx context.Context, model *entities.DataModel) error {
	return m.Called(ctx, model).Error(0)
}

func (m *mockModelService) ResetModel(ctx context.Context) (*entities.DataModel, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.DataModel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModelService) GetTree(ctx context.Context) (*entities.HierarchyTree, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.HierarchyTree), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModelService) ValidateEdge(ctx context.Context, edge entities.GraphEdge) error {
	return m.Called(ctx, edge).Error(0)
}

func (m *mockModelService) AutoFill(ctx context.Context, settings entities.AutoGeneratingSettings) (*entities.HierarchyTree, *entities.GenerationReport, error) {
	args := m.Called(ctx, settings)
	var tree *entities.HierarchyTree
	var report *entities.GenerationReport
	if args.Get(0) != nil {
		tree = args.Get(0).(*entities.HierarchyTree)
	}
	if args.Get(1) != nil {
		report = args.Get(1).(*entities.GenerationReport)
	}
	return tree, report, args.Error(2)
}

func (m *mockModelService) DeleteGenerated(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockModelService) LoadRealTree(ctx context.Context) (*entities.DisplayTree, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.DisplayTree), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockModelService) PlanDashboard(ctx context.Context) (*entities.DashboardPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.DashboardPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleTree() *entities.HierarchyTree {
	return services.BuildTree(defaults.SampleModel())
}

func findNode(tree *entities.HierarchyTree, name string) *entities.HierarchyTreeNode {
	for _, node := range tree.Nodes() {
		if node.Name == name {
			return node
		}
	}
	return nil
}

func TestRenderTree(t *testing.T) {
	out := RenderTree(sampleTree(), 2)

	assert.Contains(t, out, "Tenant [TENANT] level 0")
	assert.Contains(t, out, "└─ Building Owner [CUSTOMER] hasOwner level 1 ×1")
	assert.Contains(t, out, "   └─ Building [ASSET] hasBuilding level 2 ×2")
	assert.Contains(t, out, "├─ Thermostat [DEVICE] hasThermostat level 3 ×4")
	assert.Contains(t, out, "└─ Energy Meter [DEVICE] hasMeter level 3 ×4")

	assert.NotContains(t, RenderTree(sampleTree(), 0), "×")
	assert.Contains(t, RenderTree(nil, 1), "(empty model)")
}

func TestRenderTree_Entities(t *testing.T) {
	tree := sampleTree()
	thermostat := findNode(tree, "Thermostat")
	require.NotNil(t, thermostat)
	for _, name := range []string{"Thermostat (1)", "Thermostat (2)", "Thermostat (3)", "Thermostat (4)"} {
		thermostat.Entities = append(thermostat.Entities, entities.CreatedEntity{Name: name})
	}

	out := RenderTree(tree, 0)

	assert.Contains(t, out, "• Thermostat (3)")
	assert.NotContains(t, out, "• Thermostat (4)")
	assert.Contains(t, out, "… and 1 more")
}

func TestRenderDisplayTree(t *testing.T) {
	customer := entities.EntityRef{ID: "c1", EntityType: entities.EntityCustomer}
	asset := entities.EntityRef{ID: "a1", EntityType: entities.EntityAsset}
	display := &entities.DisplayTree{Nodes: []entities.DisplayNode{
		entities.NewDisplayNode(customer, "Owner (1)", entities.DisplayRootParent, "3"),
		entities.NewDisplayNode(asset, "Building (1)", "c1", "6"),
	}}

	assert.Equal(t, "Customer: Owner (1)\n  Asset: Building (1)\n", RenderDisplayTree(display))
	assert.Contains(t, RenderDisplayTree(&entities.DisplayTree{}), "no entities")
}

func TestRenderReport(t *testing.T) {
	report := entities.NewGenerationReport()
	report.FinishedAt = report.StartedAt.Add(time.Second)
	report.Phases = []entities.PhaseReport{
		{Name: entities.PhaseCreateEntities, Dispatched: 3, Duration: 20 * time.Millisecond},
		{Name: entities.PhaseChangeOwner, Dispatched: 2, Failed: 2, Duration: 5 * time.Millisecond},
	}

	out := RenderReport(report)

	assert.Contains(t, out, "create-entities")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "5 calls in 1s, 2 failed")
	assert.Empty(t, RenderReport(nil))
}

func TestRenderLedger(t *testing.T) {
	refs := []entities.EntityRef{
		{ID: "d1", EntityType: entities.EntityDevice},
		{ID: "a1", EntityType: entities.EntityAsset},
		{ID: "d2", EntityType: entities.EntityDevice},
	}

	assert.Equal(t, "3 generated entities (1 asset, 2 device)", RenderLedger(refs))
	assert.Equal(t, "no generated entities", RenderLedger(nil))
}

func TestTUI_GenerationFlow(t *testing.T) {
	svc := new(mockModelService)
	svc.On("GetModel", mock.Anything).Return(&entities.ModelState{TenantID: "tenant-1", Model: defaults.SampleModel()}, nil)
	settings := entities.AutoGeneratingSettings{Count: 2, Prefix: "Demo-"}

	ui := NewTUI(svc, settings)
	defer ui.Close()

	var model tea.Model = ui
	model, _ = model.Update(loadTreeCmd(svc)())
	assert.Contains(t, model.View(), "Building Owner")

	_, cmd := model.Update(key("g"))
	require.NotNil(t, cmd)
	assert.IsType(t, startGenerationMsg{}, cmd())

	model, _ = model.Update(startGenerationMsg{})
	assert.Equal(t, "generation/progress", model.(TUI).state)

	model, _ = model.Update(phaseStartedMsg{RunID: "run-1", Phase: entities.PhaseCreateEntities, Calls: 7})
	model, _ = model.Update(phaseSettledMsg{RunID: "run-1", Phase: entities.PhaseCreateEntities, Calls: 7, Failed: 1})
	view := model.View()
	assert.Contains(t, view, "create-entities")
	assert.Contains(t, view, "1 failed")

	report := entities.NewGenerationReport()
	report.FinishedAt = report.StartedAt
	populated := sampleTree()
	owner := findNode(populated, "Building Owner")
	owner.Entities = []entities.CreatedEntity{{Name: "Demo-Building Owner (1)"}}

	model, _ = model.Update(generationDoneMsg{tree: populated, report: report})
	assert.Equal(t, "tree/view", model.(TUI).state)
	view = model.View()
	assert.Contains(t, view, "Demo-Building Owner (1)")
	assert.Contains(t, view, "Run "+report.RunID+" finished")
}

func TestTUI_DeleteAndToggle(t *testing.T) {
	svc := new(mockModelService)
	svc.On("GetModel", mock.Anything).Return(&entities.ModelState{Model: defaults.SampleModel()}, nil)
	svc.On("DeleteGenerated", mock.Anything).Return(3, nil)
	svc.On("LoadRealTree", mock.Anything).Return(&entities.DisplayTree{Nodes: []entities.DisplayNode{
		entities.NewDisplayNode(entities.EntityRef{ID: "c1", EntityType: entities.EntityCustomer}, "Demo-Owner (1)", entities.DisplayRootParent, "3"),
	}}, nil)

	ui := NewTUI(svc, entities.AutoGeneratingSettings{Count: 1})
	defer ui.Close()
	var model tea.Model = ui

	_, cmd := model.Update(key("d"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, deletedMsg{count: 3}, msg)
	model, cmd = model.Update(msg)
	require.NotNil(t, cmd)
	assert.Contains(t, model.View(), "Deleted 3 generated entities")
	model, _ = model.Update(cmd())
	assert.Contains(t, model.View(), "Building Owner")

	model, cmd = model.Update(key("r"))
	require.NotNil(t, cmd)
	model, _ = model.Update(cmd())
	view := model.View()
	assert.Contains(t, view, "Backend entities")
	assert.Contains(t, view, "Customer: Demo-Owner (1)")

	model, _ = model.Update(key("r"))
	assert.Contains(t, model.View(), "Hierarchy model")
	svc.AssertExpectations(t)
}

func TestTUI_Help(t *testing.T) {
	ui := NewTUI(new(mockModelService), entities.AutoGeneratingSettings{Count: 1})
	defer ui.Close()
	var model tea.Model = ui

	_, cmd := model.Update(key("?"))
	model, _ = model.Update(cmd())
	assert.True(t, strings.Contains(model.View(), "Delete generated entities"))

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	model, _ = model.Update(cmd())
	assert.Equal(t, "tree/view", model.(TUI).state)
}

func TestProgressView_Cancel(t *testing.T) {
	canceled := false
	view, _ := NewProgressView().Start(entities.AutoGeneratingSettings{Count: 1}, func() { canceled = true })

	view, _ = view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, canceled)
	assert.Contains(t, view.View(), "Canceling")

	view, _ = view.Update(phaseStartedMsg{RunID: "other", Phase: entities.PhaseCreateEntities})
	view = view.Stop()
	view, _ = view.Update(phaseStartedMsg{RunID: "late", Phase: entities.PhaseChangeOwner})
	assert.NotContains(t, view.View(), "change-owner")
}
