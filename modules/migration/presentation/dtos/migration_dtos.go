package dtos

import (
	"github.com/wildroots/wildroots/pkg/constants"
)

// RunMigrationRequest carries the raw export file inline. Files are a few
// megabytes at most; the upload size cap is enforced by the controller.
type RunMigrationRequest struct {
	CSVContent string `json:"csvContent" validate:"required"`
	DryRun     bool   `json:"dryRun"`
}

func (d *RunMigrationRequest) Validate() error {
	return constants.Validate.Struct(d)
}
