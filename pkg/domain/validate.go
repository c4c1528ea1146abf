package domain

import (
	"errors"
	"fmt"
)

// Validate checks the context invariants and returns every violation joined.
// The returned error wraps ErrInvalidContext.
func (c *Context) Validate() error {
	var errs []error

	if !c.Mode.Valid() {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Step < 0 {
		errs = append(errs, fmt.Errorf("negative step counter %d", c.Step))
	}

	if c.Mode.InDesign() {
		switch {
		case c.Design == nil:
			errs = append(errs, fmt.Errorf("mode %s requires a design session", c.Mode))
		case !c.Design.Phase.Valid():
			errs = append(errs, fmt.Errorf("mode %s has invalid phase %q", c.Mode, c.Design.Phase))
		}
	}
	if c.Mode == ModeDesignBranch && c.Branch.Status != BranchProposed && c.Branch.Status != BranchActive {
		errs = append(errs, fmt.Errorf("mode %s requires a proposed or active branch, got %q", c.Mode, c.Branch.Status))
	}
	if c.Mode == ModeBranchMerge && c.Branch.Status != BranchMergePending {
		errs = append(errs, fmt.Errorf("mode %s requires a merge_pending branch, got %q", c.Mode, c.Branch.Status))
	}

	for topic, at := range c.LastMicroStep {
		if at > c.Step {
			errs = append(errs, fmt.Errorf("micro cooldown for %q at step %d is ahead of step %d", topic, at, c.Step))
		}
	}
	for topic, at := range c.LastNudgeStep {
		if at > c.Step {
			errs = append(errs, fmt.Errorf("nudge cooldown for %q at step %d is ahead of step %d", topic, at, c.Step))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidContext, errors.Join(errs...))
}
