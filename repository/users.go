package repository

import (
	"context"
	"time"

	"jobflow/models"

	"gorm.io/gorm/clause"
)

type UserRepository struct {
	base
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := r.db.WithContext(ctx).Preload("Team").First(&user, id).Error
	if err = r.done("users.find_by_id", start, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// LockForUpdate row-locks the user until the surrounding transaction ends.
func (r *UserRepository) LockForUpdate(ctx context.Context, id uint) error {
	start := time.Now()
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, id).Error
	return r.done("users.lock", start, err)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err = r.done("users.find_by_username", start, err); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	start := time.Now()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, r.done("users.username_exists", start, err)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	start := time.Now()
	return r.done("users.create", start, r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	start := time.Now()
	return r.done("users.save", start, r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

// ListActive returns active users, optionally restricted to teamIDs.
func (r *UserRepository) ListActive(ctx context.Context, teamIDs []uint) ([]models.User, error) {
	start := time.Now()
	var users []models.User
	q := r.db.WithContext(ctx).Preload("Team").Where("active = ?", true)
	if teamIDs != nil {
		q = q.Where("team_id IN ?", teamIDs)
	}
	err := q.Order("username").Find(&users).Error
	return users, r.done("users.list_active", start, err)
}

func (r *UserRepository) CreateTeam(ctx context.Context, team *models.Team) error {
	start := time.Now()
	return r.done("teams.create", start, r.db.WithContext(ctx).Create(team).Error)
}

func (r *UserRepository) AssignManager(ctx context.Context, userID, teamID uint) error {
	start := time.Now()
	err := r.db.WithContext(ctx).
		Where(models.TeamManager{UserID: userID, TeamID: teamID}).
		FirstOrCreate(&models.TeamManager{}).Error
	return r.done("teams.assign_manager", start, err)
}

// ManagedTeamIDs returns the teams userID manages.
func (r *UserRepository) ManagedTeamIDs(ctx context.Context, userID uint) ([]uint, error) {
	start := time.Now()
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.TeamManager{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error
	return ids, r.done("teams.managed_ids", start, err)
}

// ManagersOf returns the managers of the user's team.
func (r *UserRepository) ManagersOf(ctx context.Context, user *models.User) ([]models.User, error) {
	if user.TeamID == nil {
		return nil, nil
	}
	start := time.Now()
	var managers []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN team_managers ON team_managers.user_id = users.id AND team_managers.deleted_at IS NULL").
		Where("team_managers.team_id = ? AND users.active = ?", *user.TeamID, true).
		Find(&managers).Error
	return managers, r.done("teams.managers_of", start, err)
}

func (r *UserRepository) ListTeams(ctx context.Context) ([]models.Team, error) {
	start := time.Now()
	var teams []models.Team
	err := r.db.WithContext(ctx).Order("name").Find(&teams).Error
	return teams, r.done("teams.list", start, err)
}

func (r *UserRepository) FindTeam(ctx context.Context, id uint) (*models.Team, error) {
	start := time.Now()
	var team models.Team
	err := r.db.WithContext(ctx).First(&team, id).Error
	if err = r.done("teams.find", start, err); err != nil {
		return nil, err
	}
	return &team, nil
}

// TeamManagers lists every manager assignment with user and team loaded.
func (r *UserRepository) TeamManagers(ctx context.Context) ([]models.TeamManager, error) {
	start := time.Now()
	var assignments []models.TeamManager
	err := r.db.WithContext(ctx).Preload("User").Preload("Team").Find(&assignments).Error
	return assignments, r.done("teams.managers", start, err)
}

func (r *UserRepository) RemoveManager(ctx context.Context, userID, teamID uint) error {
	start := time.Now()
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Delete(&models.TeamManager{})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrNotFound
	}
	r.metrics.ObserveQuery("teams.remove_manager", start, res.Error)
	return err
}
