package domain

import (
	"fmt"
	"strings"
)

// CreateExperimentInput holds the arguments for creating an experiment.
type CreateExperimentInput struct {
	Name                 string
	Description          string
	PlateFormat          int
	MicroscopeType       string
	PlateAcquisitionMode string
}

func (in CreateExperimentInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if in.PlateFormat < 0 {
		return fmt.Errorf("plate format must not be negative")
	}
	return nil
}

// DeleteOutcome is the result of deleting a remote experiment. Failure is
// only set in legacy error mode, where a failed delete does not return an
// error.
type DeleteOutcome struct {
	Deleted bool
	Failure *ServiceError
}
