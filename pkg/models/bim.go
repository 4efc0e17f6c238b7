package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
)

// LatestVersion selects the highest version_index per model name.
const LatestVersion = -1

// Model types stored in bim.models.model_type.
const (
	ModelTypeVolumes  = "volumes"
	ModelTypePremises = "premise"
)

// ObjectStage is one construction object requested at one stage.
type ObjectStage struct {
	ObjectID string `json:"construction_object_id"`
	Name     string `json:"name"`
	Stage    string `json:"stage"`
}

// ModelStage is a row of bim.model_stages.
type ModelStage struct {
	ID       string `json:"model_stage_id"`
	StageID  string `json:"stage_id"`
	ObjectID string `json:"construction_object_id"`
}

// Model is a row of bim.models.
type Model struct {
	ID           string `json:"model_id"`
	ModelStageID string `json:"model_stage_id"`
	Name         string `json:"name"`
	ModelType    string `json:"model_type"`
	IsArchived   bool   `json:"is_archived"`
}

// ModelVersion is a row of bim.model_versions.
type ModelVersion struct {
	ID           string `json:"model_version_id"`
	ModelID      string `json:"model_id"`
	VersionIndex int    `json:"version_index"`
}

// Calculation is a row of the calculations relation.
type Calculation struct {
	ID             string    `json:"calc_id"`
	ModelVersionID string    `json:"model_version_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResolvedCalculation is the authoritative calculation of one model together
// with the chain of ids that led to it.
type ResolvedCalculation struct {
	CalcID         string    `json:"calc_id"`
	ModelVersionID string    `json:"model_version_id"`
	VersionIndex   int       `json:"version_index"`
	ModelID        string    `json:"model_id"`
	ModelName      string    `json:"name"`
	ModelStageID   string    `json:"model_stage_id"`
	ObjectID       string    `json:"construction_object_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ElementType describes one structural-element type to collect: its
// recognition value, the parameter summed for statistics and the parameters
// used to group the nomenclature export.
type ElementType struct {
	Name      string   `json:"name"`
	Measure   string   `json:"measure"`
	GroupBy   []string `json:"group_by"`
	ShortName string   `json:"short_name,omitempty"`
}

// SplitGroupParams splits a comma-separated parameter list, trimming blanks.
func SplitGroupParams(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseID validates an identifier and returns it in canonical lowercase form.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidIdentifier, s)
	}
	return id.String(), nil
}
