package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/google/uuid"
)

const (
	RequiredActiveDays      = 7
	RequiredTrainingModules = 8
)

// Eligibility is the derived group-creation check for one user.
type Eligibility struct {
	Eligible        bool            `json:"eligible"`
	Bypassed        bool            `json:"bypassed"`
	Role            models.UserRole `json:"role"`
	RoleAllowed     bool            `json:"roleAllowed"`
	ActivityMet     bool            `json:"activityMet"`
	DaysActive      int             `json:"daysActive"`
	RequiredDays    int             `json:"requiredDays"`
	MissingDates    []string        `json:"missingDates"`
	TrainingMet     bool            `json:"trainingMet"`
	TrainingModules int             `json:"trainingModules"`
	RequiredModules int             `json:"requiredModules"`
	Reasons         []string        `json:"reasons,omitempty"`
}

// CheckEligibility decides whether userID may create a group. Super admins
// skip every gate; anyone else needs the activity window, the training
// count and a sponsor-capable role. Joining never requires this.
func (r *GroupRegistry) CheckEligibility(ctx context.Context, userID uuid.UUID) (*Eligibility, error) {
	role := models.UserRoleParticipant
	profile, err := r.store.Users().Get(ctx, userID)
	switch {
	case err == nil:
		role = profile.Role
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load profile: %w", err)
	}

	e := &Eligibility{
		Role:            role,
		RequiredDays:    RequiredActiveDays,
		RequiredModules: RequiredTrainingModules,
		MissingDates:    []string{},
	}

	if role == models.UserRoleSuperAdmin {
		e.Eligible = true
		e.Bypassed = true
		e.RoleAllowed = true
		e.ActivityMet = true
		e.TrainingMet = true
		return e, nil
	}

	window, err := r.tracker.CheckActivityEligibility(ctx, userID, RequiredActiveDays)
	if err != nil {
		return nil, fmt.Errorf("check activity window: %w", err)
	}
	e.ActivityMet = window.Met
	e.DaysActive = window.DaysActive
	e.MissingDates = window.MissingDates

	modules, err := r.store.Activities().CountTrainingModules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count training modules: %w", err)
	}
	e.TrainingModules = modules
	e.TrainingMet = modules >= RequiredTrainingModules
	e.RoleAllowed = role.CanSponsor()

	if !e.ActivityMet {
		e.Reasons = append(e.Reasons, fmt.Sprintf("active on %d of the last %d days", e.DaysActive, RequiredActiveDays))
	}
	if !e.TrainingMet {
		e.Reasons = append(e.Reasons, fmt.Sprintf("completed %d of %d training modules", modules, RequiredTrainingModules))
	}
	if !e.RoleAllowed {
		e.Reasons = append(e.Reasons, fmt.Sprintf("role %q cannot sponsor a group", role))
	}
	e.Eligible = e.ActivityMet && e.TrainingMet && e.RoleAllowed
	return e, nil
}
