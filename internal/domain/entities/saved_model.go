package entities

import (
	"encoding/json"
	"fmt"
)

// SavedModelAttributeKey is the server-side tenant attribute holding the saved model.
const SavedModelAttributeKey = "hierarchy-model"

// SavedModel is the persisted form of a data model. Model and GeneratedEntities
// hold JSON documents so the whole value fits a single attribute.
type SavedModel struct {
	GeneratedDashboardID *string `json:"generatedDashboardId" bson:"generated_dashboard_id"`
	Model                string  `json:"model" bson:"model"`
	GeneratedEntities    string  `json:"generatedEntities" bson:"generated_entities"`
}

func NewSavedModel(model *DataModel, ledger []EntityRef, dashboardID *string) (*SavedModel, error) {
	modelJSON, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	if ledger == nil {
		ledger = []EntityRef{}
	}
	ledgerJSON, err := json.Marshal(ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generated entities: %w", err)
	}
	return &SavedModel{
		GeneratedDashboardID: dashboardID,
		Model:                string(modelJSON),
		GeneratedEntities:    string(ledgerJSON),
	}, nil
}

func (s *SavedModel) DataModel() (*DataModel, error) {
	var model DataModel
	if err := json.Unmarshal([]byte(s.Model), &model); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &model, nil
}

// Ledger decodes the generated entity refs. An empty string is an empty ledger.
func (s *SavedModel) Ledger() ([]EntityRef, error) {
	if s.GeneratedEntities == "" {
		return nil, nil
	}
	var refs []EntityRef
	if err := json.Unmarshal([]byte(s.GeneratedEntities), &refs); err != nil {
		return nil, fmt.Errorf("failed to decode generated entities: %w", err)
	}
	return refs, nil
}

// ModelState is a decoded SavedModel.
type ModelState struct {
	TenantID             string      `json:"tenantId"`
	Model                *DataModel  `json:"model"`
	GeneratedDashboardID *string     `json:"generatedDashboardId"`
	GeneratedEntities    []EntityRef `json:"generatedEntities"`
}
