package repositories

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
)

// BIMRepository reads the object -> stage -> model -> version -> calculation
// hierarchy of the upstream BIM store.
type BIMRepository interface {
	GetModelStages(ctx context.Context, stageID string, objectIDs []string) ([]*models.ModelStage, error)
	// GetModels returns non-archived models of modelType.
	GetModels(ctx context.Context, modelStageIDs []string, modelType string) ([]*models.Model, error)
	GetModelVersions(ctx context.Context, modelIDs []string) ([]*models.ModelVersion, error)
	GetCalculations(ctx context.Context, modelVersionIDs []string) ([]*models.Calculation, error)
}

type bimRepository struct {
	exec   datasource.QueryExecutor
	schema models.Schema
}

// NewBIMRepository creates a BIMRepository. The calculations relation comes
// from schema because its name differs between upstream revisions.
func NewBIMRepository(exec datasource.QueryExecutor, schema models.Schema) BIMRepository {
	return &bimRepository{exec: exec, schema: schema}
}

var _ BIMRepository = (*bimRepository)(nil)

func (r *bimRepository) GetModelStages(ctx context.Context, stageID string, objectIDs []string) ([]*models.ModelStage, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	stage, err := toUUIDs([]string{stageID})
	if err != nil {
		return nil, err
	}
	objects, err := toUUIDs(objectIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT model_stage_id, stage_id, construction_object_id
		FROM bim.model_stages
		WHERE stage_id = $1 AND construction_object_id = ANY($2)`

	res, err := r.exec.Query(ctx, query, stage[0], objects)
	if err != nil {
		return nil, fmt.Errorf("failed to query model stages: %w", err)
	}

	out := make([]*models.ModelStage, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, &models.ModelStage{
			ID:       asString(row["model_stage_id"]),
			StageID:  asString(row["stage_id"]),
			ObjectID: asString(row["construction_object_id"]),
		})
	}
	return out, nil
}

func (r *bimRepository) GetModels(ctx context.Context, modelStageIDs []string, modelType string) ([]*models.Model, error) {
	if len(modelStageIDs) == 0 {
		return nil, nil
	}
	ids, err := toUUIDs(modelStageIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT model_id, model_stage_id, name, model_type, is_archived
		FROM bim.models
		WHERE model_stage_id = ANY($1) AND model_type = $2 AND NOT is_archived`

	res, err := r.exec.Query(ctx, query, ids, modelType)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	out := make([]*models.Model, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, &models.Model{
			ID:           asString(row["model_id"]),
			ModelStageID: asString(row["model_stage_id"]),
			Name:         asString(row["name"]),
			ModelType:    asString(row["model_type"]),
			IsArchived:   asBool(row["is_archived"]),
		})
	}
	return out, nil
}

func (r *bimRepository) GetModelVersions(ctx context.Context, modelIDs []string) ([]*models.ModelVersion, error) {
	if len(modelIDs) == 0 {
		return nil, nil
	}
	ids, err := toUUIDs(modelIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT model_version_id, model_id, version_index
		FROM bim.model_versions
		WHERE model_id = ANY($1)`

	res, err := r.exec.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query model versions: %w", err)
	}

	out := make([]*models.ModelVersion, 0, len(res.Rows))
	for _, row := range res.Rows {
		idx, err := asInt(row["version_index"])
		if err != nil {
			return nil, fmt.Errorf("model version %s: %w", asString(row["model_version_id"]), err)
		}
		out = append(out, &models.ModelVersion{
			ID:           asString(row["model_version_id"]),
			ModelID:      asString(row["model_id"]),
			VersionIndex: idx,
		})
	}
	return out, nil
}

func (r *bimRepository) GetCalculations(ctx context.Context, modelVersionIDs []string) ([]*models.Calculation, error) {
	if len(modelVersionIDs) == 0 {
		return nil, nil
	}
	ids, err := toUUIDs(modelVersionIDs)
	if err != nil {
		return nil, err
	}
	calcs, err := relation(r.exec, r.schema.CalcsRelation)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT calc_id, model_version_id, created_at
		FROM ` + calcs + `
		WHERE model_version_id = ANY($1)`

	res, err := r.exec.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}

	out := make([]*models.Calculation, 0, len(res.Rows))
	for _, row := range res.Rows {
		created, err := asTime(row["created_at"])
		if err != nil {
			return nil, fmt.Errorf("calculation %s: %w", asString(row["calc_id"]), err)
		}
		out = append(out, &models.Calculation{
			ID:             asString(row["calc_id"]),
			ModelVersionID: asString(row["model_version_id"]),
			CreatedAt:      created,
		})
	}
	return out, nil
}
