package service

import (
	"context"
	"fmt"

	"jobflow/models"
	"jobflow/notifications"
	"jobflow/permissions"
)

// PendingApprovals lists the unapproved entries reviewer may act on.
func (s *TimeService) PendingApprovals(ctx context.Context, reviewer *models.User) ([]models.TimeEntry, error) {
	if !reviewer.Can(permissions.ApproveTime) {
		return nil, ErrForbidden
	}
	if reviewer.Can(permissions.ViewAllTime) {
		return s.repos.TimeEntries.ListPending(ctx, nil)
	}

	teamIDs, err := s.repos.Users.ManagedTeamIDs(ctx, reviewer.ID)
	if err != nil || len(teamIDs) == 0 {
		return nil, err
	}
	members, err := s.repos.Users.ListActive(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	for _, m := range members {
		if m.ID != reviewer.ID {
			ids = append(ids, m.ID)
		}
	}
	return s.repos.TimeEntries.ListPending(ctx, ids)
}

func (s *TimeService) reviewable(ctx context.Context, reviewer *models.User, entryID uint) (*models.TimeEntry, *models.User, error) {
	entry, err := s.repos.TimeEntries.FindByID(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	owner := entry.User
	if owner == nil {
		if owner, err = s.repos.Users.FindByID(ctx, entry.UserID); err != nil {
			return nil, nil, err
		}
	}
	ok, err := s.canReview(ctx, reviewer, owner)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrForbidden
	}
	if entry.Approved || entry.IsOpen() {
		return nil, nil, ErrNotPending
	}
	return entry, owner, nil
}

// ApproveEntry approves a pending entry. The owner is notified when a
// compensation request is approved.
func (s *TimeService) ApproveEntry(ctx context.Context, reviewer *models.User, entryID uint) (*models.TimeEntry, error) {
	entry, owner, err := s.reviewable(ctx, reviewer, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.TimeEntries.Approve(ctx, entry, reviewer.ID, s.Now()); err != nil {
		return nil, fmt.Errorf("approving entry: %w", err)
	}
	s.log.Info("entry approved", "entry_id", entry.ID, "approver_id", reviewer.ID)

	if entry.WorkType == models.WorkCompensationUsed {
		s.notify(ctx, owner, notifications.TypeCompensationApproved, map[string]any{
			"Date":     entry.ClockIn.Format("02-01-2006"),
			"Hours":    entry.CalculatedHours,
			"Approver": reviewer.DisplayName(),
		})
	}
	return entry, nil
}

// RejectEntry removes a pending entry. A rejected compensation request
// returns its hours to the balance.
func (s *TimeService) RejectEntry(ctx context.Context, reviewer *models.User, entryID uint) error {
	entry, owner, err := s.reviewable(ctx, reviewer, entryID)
	if err != nil {
		return err
	}
	if err := s.repos.TimeEntries.Reject(ctx, entry); err != nil {
		return fmt.Errorf("rejecting entry: %w", err)
	}
	s.invalidate(ctx, owner.ID)
	s.log.Info("entry rejected", "entry_id", entry.ID, "reviewer_id", reviewer.ID)
	return nil
}
