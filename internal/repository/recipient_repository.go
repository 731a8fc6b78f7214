package repository

import (
	"context"
	"fmt"

	"podly/internal/models"

	"gorm.io/gorm"
)

// RecipientRepository implements services.RecipientRepository: it maps a pod
// to the accounts a reminder fans out to.
type RecipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

func (r *RecipientRepository) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, fmt.Errorf("loading account %s: %w", username, err)
	}
	return &account, nil
}

// ParticipantsOf returns the accounts of approved members. The owner's
// membership row is created at pod creation, so the owner is included.
func (r *RecipientRepository) ParticipantsOf(ctx context.Context, podID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Joins("JOIN pod_member ON pod_member.username = account.username").
		Where("pod_member.pod_id = ? AND pod_member.status = ?", podID, models.MemberApproved).
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("querying participants of pod %d: %w", podID, err)
	}
	return accounts, nil
}

func (r *RecipientRepository) LikersOf(ctx context.Context, podID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Joins("JOIN pod_like ON pod_like.username = account.username").
		Where("pod_like.pod_id = ?", podID).
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("querying likers of pod %d: %w", podID, err)
	}
	return accounts, nil
}

func (r *RecipientRepository) ReviewerIDsOf(ctx context.Context, podID uint) (map[string]bool, error) {
	var usernames []string
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("pod_id = ?", podID).
		Pluck("username", &usernames).Error; err != nil {
		return nil, fmt.Errorf("querying reviewers of pod %d: %w", podID, err)
	}
	reviewers := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		reviewers[u] = true
	}
	return reviewers, nil
}

// ClearPushToken drops a token the push gateway reported as dead.
func (r *RecipientRepository) ClearPushToken(ctx context.Context, username string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ?", username).
		Update("push_token", "").Error; err != nil {
		return fmt.Errorf("clearing push token of %s: %w", username, err)
	}
	return nil
}
