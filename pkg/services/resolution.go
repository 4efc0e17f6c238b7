package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// ResolutionService resolves construction objects to the calculations that
// hold their current parameter values.
type ResolutionService interface {
	// ResolveCalculations walks object -> model stage -> model -> version ->
	// calculation. version is models.LatestVersion or an explicit
	// version_index. Objects without a model stage for their stage are
	// reported in Resolution.Missing and do not stop the others. An unknown
	// stage name fails the whole call.
	ResolveCalculations(ctx context.Context, objects []models.ObjectStage, modelType string, version int) (*Resolution, error)
}

// Resolution is the outcome of ResolveCalculations.
type Resolution struct {
	Calculations []models.ResolvedCalculation
	Missing      []*apperrors.StageNotFoundError
}

// Empty reports whether nothing resolved. Callers treat it as "no data".
func (r *Resolution) Empty() bool {
	return r == nil || len(r.Calculations) == 0
}

// CalcIDs returns the resolved calculation ids in resolution order.
func (r *Resolution) CalcIDs() []string {
	out := make([]string, 0, len(r.Calculations))
	for _, c := range r.Calculations {
		out = append(out, c.CalcID)
	}
	return out
}

// ObjectIDs returns the distinct construction objects that resolved.
func (r *Resolution) ObjectIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.Calculations {
		if !seen[c.ObjectID] {
			seen[c.ObjectID] = true
			out = append(out, c.ObjectID)
		}
	}
	return out
}

// ModelInfo returns one row per calculation with the model columns merged
// onto elements: calc_id, name, model_id and version_index.
func (r *Resolution) ModelInfo() *table.Table {
	t := table.New(ColCalcID, ColModelName, ColModelID, ColVersionIndex)
	for _, c := range r.Calculations {
		t.Append(c.CalcID, c.ModelName, c.ModelID, float64(c.VersionIndex))
	}
	return t
}

// ObjectByModel maps model ids to their construction object.
func (r *Resolution) ObjectByModel() map[string]string {
	out := make(map[string]string, len(r.Calculations))
	for _, c := range r.Calculations {
		out[c.ModelID] = c.ObjectID
	}
	return out
}

type resolutionService struct {
	repo   repositories.BIMRepository
	stages models.StageMap
	logger *zap.Logger
}

// NewResolutionService creates a ResolutionService using the given stage lookup.
func NewResolutionService(repo repositories.BIMRepository, stages models.StageMap, logger *zap.Logger) ResolutionService {
	return &resolutionService{
		repo:   repo,
		stages: stages,
		logger: logger.Named("resolution"),
	}
}

var _ ResolutionService = (*resolutionService)(nil)

func (s *resolutionService) ResolveCalculations(ctx context.Context, objects []models.ObjectStage, modelType string, version int) (*Resolution, error) {
	res := &Resolution{}

	// Group object ids by stage, keeping first-seen order.
	var stageOrder []string
	byStage := make(map[string][]string)
	seen := make(map[string]bool)
	for _, o := range objects {
		if _, ok := s.stages.Lookup(o.Stage); !ok {
			return nil, &apperrors.UnknownStageError{Stage: o.Stage}
		}
		id, err := models.ParseID(o.ObjectID)
		if err != nil {
			return nil, err
		}
		key := o.Stage + "\x00" + id
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := byStage[o.Stage]; !ok {
			stageOrder = append(stageOrder, o.Stage)
		}
		byStage[o.Stage] = append(byStage[o.Stage], id)
	}

	stageObject := make(map[string]string)
	var modelStageIDs []string
	for _, stage := range stageOrder {
		stageID, _ := s.stages.Lookup(stage)
		ids := byStage[stage]
		rows, err := s.repo.GetModelStages(ctx, stageID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve model stages for %q: %w", stage, err)
		}
		found := make(map[string]bool)
		for _, ms := range rows {
			found[ms.ObjectID] = true
			if _, dup := stageObject[ms.ID]; !dup {
				stageObject[ms.ID] = ms.ObjectID
				modelStageIDs = append(modelStageIDs, ms.ID)
			}
		}
		for _, id := range ids {
			if !found[id] {
				s.logger.Warn("Model stage not found",
					zap.String("construction_object_id", id),
					zap.String("stage", stage))
				res.Missing = append(res.Missing, &apperrors.StageNotFoundError{ObjectID: id, Stage: stage})
			}
		}
	}
	if len(modelStageIDs) == 0 {
		return res, nil
	}

	modelRows, err := s.repo.GetModels(ctx, modelStageIDs, modelType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve models: %w", err)
	}
	modelByID := make(map[string]*models.Model, len(modelRows))
	modelIDs := make([]string, 0, len(modelRows))
	for _, m := range modelRows {
		if m.IsArchived {
			continue
		}
		if _, dup := modelByID[m.ID]; dup {
			continue
		}
		modelByID[m.ID] = m
		modelIDs = append(modelIDs, m.ID)
	}
	if len(modelIDs) == 0 {
		s.logger.Warn("No models of the requested type", zap.String("model_type", modelType))
		return res, nil
	}

	versions, err := s.repo.GetModelVersions(ctx, modelIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model versions: %w", err)
	}
	selected := selectVersions(versions, modelByID, stageObject, version)
	if len(selected) == 0 {
		s.logger.Warn("No model versions selected", zap.Int("version", version))
		return res, nil
	}

	versionIDs := make([]string, 0, len(selected))
	for _, v := range selected {
		versionIDs = append(versionIDs, v.ID)
	}
	calcs, err := s.repo.GetCalculations(ctx, versionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calculations: %w", err)
	}
	latest := latestCalculations(calcs)

	for _, v := range selected {
		c, ok := latest[v.ID]
		if !ok {
			s.logger.Warn("Model version has no calculation", zap.String("model_version_id", v.ID))
			continue
		}
		m := modelByID[v.ModelID]
		res.Calculations = append(res.Calculations, models.ResolvedCalculation{
			CalcID:         c.ID,
			ModelVersionID: v.ID,
			VersionIndex:   v.VersionIndex,
			ModelID:        m.ID,
			ModelName:      m.Name,
			ModelStageID:   m.ModelStageID,
			ObjectID:       stageObject[m.ModelStageID],
			CreatedAt:      c.CreatedAt,
		})
	}
	sort.SliceStable(res.Calculations, func(a, b int) bool {
		ca, cb := res.Calculations[a], res.Calculations[b]
		if ca.ObjectID != cb.ObjectID {
			return ca.ObjectID < cb.ObjectID
		}
		if ca.ModelName != cb.ModelName {
			return ca.ModelName < cb.ModelName
		}
		return ca.CalcID < cb.CalcID
	})

	s.logger.Info("Resolved calculations",
		zap.Int("objects", len(seen)),
		zap.Int("calculations", len(res.Calculations)),
		zap.Int("missing", len(res.Missing)))
	return res, nil
}

// selectVersions keeps, per (construction object, model name), the version
// with the highest version_index, or every version with the requested index.
// Ties on the index go to the smaller version id.
func selectVersions(versions []*models.ModelVersion, modelByID map[string]*models.Model, stageObject map[string]string, version int) []*models.ModelVersion {
	type groupKey struct{ object, name string }
	best := make(map[groupKey]*models.ModelVersion)
	var order []groupKey
	var out []*models.ModelVersion

	for _, v := range versions {
		m, ok := modelByID[v.ModelID]
		if !ok {
			continue
		}
		if version != models.LatestVersion {
			if v.VersionIndex == version {
				out = append(out, v)
			}
			continue
		}
		k := groupKey{stageObject[m.ModelStageID], m.Name}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = v
			continue
		}
		if v.VersionIndex > cur.VersionIndex || (v.VersionIndex == cur.VersionIndex && v.ID < cur.ID) {
			best[k] = v
		}
	}
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// latestCalculations keeps the most recently created calculation per model
// version. Ties on created_at go to the larger calculation id.
func latestCalculations(calcs []*models.Calculation) map[string]*models.Calculation {
	out := make(map[string]*models.Calculation)
	for _, c := range calcs {
		cur, ok := out[c.ModelVersionID]
		if !ok || c.CreatedAt.After(cur.CreatedAt) || (c.CreatedAt.Equal(cur.CreatedAt) && c.ID > cur.ID) {
			out[c.ModelVersionID] = c
		}
	}
	return out
}
