package repository

import (
	"context"
	"time"

	"jobflow/models"
)

type InviteRepository struct {
	base
}

func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	start := time.Now()
	return r.done("invites.create", start, r.db.WithContext(ctx).Create(invite).Error)
}

func (r *InviteRepository) FindByCode(ctx context.Context, code string) (*models.Invite, error) {
	start := time.Now()
	var invite models.Invite
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error
	if err = r.done("invites.find_by_code", start, err); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *InviteRepository) MarkUsed(ctx context.Context, invite *models.Invite) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Model(invite).Update("used", true).Error
	if err == nil {
		invite.Used = true
	}
	return r.done("invites.mark_used", start, err)
}

func (r *InviteRepository) ListByCreator(ctx context.Context, userID uint) ([]models.Invite, error) {
	start := time.Now()
	var invites []models.Invite
	err := r.db.WithContext(ctx).Where("created_by = ?", userID).Order("created_at desc").Find(&invites).Error
	return invites, r.done("invites.list", start, err)
}
