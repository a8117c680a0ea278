package controller

import (
	"encoding/json"

	vgfs "github.com/stratastream/stateful/libs/fs"
	"github.com/stratastream/stateful/types"

	"github.com/pkg/errors"
)

// LoadPlan reads and validates the physical plan at path.
func LoadPlan(path string) (*types.PhysicalPlan, error) {
	buf, err := vgfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plan := &types.PhysicalPlan{}
	if err := json.Unmarshal(buf, plan); err != nil {
		return nil, errors.Wrapf(err, "could not parse physical plan %s", path)
	}
	if err := plan.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid physical plan %s", path)
	}
	return plan, nil
}

// SavePlan writes plan to path.
func SavePlan(path string, plan *types.PhysicalPlan) error {
	buf, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal physical plan")
	}
	return vgfs.WriteFile(path, buf)
}
