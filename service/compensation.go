package service

import (
	"context"
	"fmt"

	"jobflow/models"
	"jobflow/notifications"
	"jobflow/permissions"
	"jobflow/repository"
	"jobflow/timetracking"
)

// CompensationSubject resolves whose compensation balance actor acts on.
// userID 0 or actor's own id means actor; anyone else requires
// ManageCompensation.
func (s *TimeService) CompensationSubject(ctx context.Context, actor *models.User, userID uint) (*models.User, error) {
	if userID == 0 || userID == actor.ID {
		return actor, nil
	}
	if !actor.Can(permissions.ManageCompensation) {
		return nil, ErrForbidden
	}
	return s.repos.Users.FindByID(ctx, userID)
}

// AvailableCompensation returns the user's spendable compensation hours.
func (s *TimeService) AvailableCompensation(ctx context.Context, user *models.User) (float64, error) {
	return s.repos.Snapshots.AvailableCompensation(ctx, user.ID)
}

// CheckCompensation reports whether the user may earn newHours more
// compensation under the balance cap.
func (s *TimeService) CheckCompensation(ctx context.Context, user *models.User, newHours float64) (timetracking.CompensationCheck, error) {
	current, err := s.AvailableCompensation(ctx, user)
	if err != nil {
		return timetracking.CompensationCheck{}, fmt.Errorf("looking up compensation balance: %w", err)
	}
	return s.calc.CanEarnCompensation(current, newHours), nil
}

// RequestBulkCompensation books time off against the user's compensation
// balance. The balance check and the insert of the pending entries run in
// one transaction holding the user's row lock. The user's managers are
// notified afterwards.
func (s *TimeService) RequestBulkCompensation(ctx context.Context, user *models.User, action timetracking.BulkCompensationAction) (timetracking.BulkCompensationResult, error) {
	action.UserID = user.ID
	for i, d := range action.Dates {
		action.Dates[i] = d.In(s.loc)
	}

	var result timetracking.BulkCompensationResult
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Users.LockForUpdate(ctx, user.ID); err != nil {
			return fmt.Errorf("locking user: %w", err)
		}
		var err error
		result, err = s.spender.WithLookup(tx.Snapshots).Process(ctx, action)
		if err != nil || !result.Success {
			return err
		}
		if err := tx.TimeEntries.CreateBatch(ctx, result.Entries); err != nil {
			return fmt.Errorf("storing compensation entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return timetracking.BulkCompensationResult{}, err
	}
	if !result.Success {
		return result, nil
	}
	s.invalidate(ctx, user.ID)
	s.log.Info("compensation requested",
		"user_id", user.ID,
		"batch_id", result.BatchID,
		"days", len(result.Entries),
		"hours", result.RequestedHours)

	managers, err := s.repos.Users.ManagersOf(ctx, user)
	if err != nil {
		s.log.Warn("failed to load managers", "user_id", user.ID, "error", err)
	}
	for i := range managers {
		s.notify(ctx, &managers[i], notifications.TypeCompensationRequested, map[string]any{
			"Name":   user.DisplayName(),
			"Hours":  result.RequestedHours,
			"Days":   len(result.Entries),
			"Reason": action.Reason,
		})
	}
	return result, nil
}
