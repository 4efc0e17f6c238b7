package services

import "github.com/ekaya-inc/ekaya-bim/pkg/repositories"

// Fixed column names of the pipeline tables. Parameter columns are named by
// parameter titles from models.Vocabulary instead.
const (
	ColCalcID       = "calc_id"
	ColElementID    = "model_version_element_id"
	ColValue        = "value"
	ColTitle        = "title"
	ColModelName    = "name"
	ColModelID      = "model_id"
	ColVersionIndex = "version_index"
	ColObjectID     = repositories.ColObjectID
	ColSectionID    = repositories.ColSectionID
)
