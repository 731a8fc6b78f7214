// Package repository holds the GORM-backed implementations of the
// collaborator contracts declared in internal/services.
package repository

import (
	"context"
	"fmt"
	"time"

	"podly/internal/models"

	"gorm.io/gorm"
)

// PodRepository implements services.PodRepository on Postgres.
type PodRepository struct {
	db *gorm.DB
}

func NewPodRepository(db *gorm.DB) *PodRepository {
	return &PodRepository{db: db}
}

// FindByStatus returns all non-deleted pods in the given status. Soft-deleted
// (canceled) pods are excluded by GORM's default scope, which is what keeps
// the cancel sweep idempotent.
func (r *PodRepository) FindByStatus(ctx context.Context, status models.PodStatus) ([]models.Pod, error) {
	var pods []models.Pod
	if err := r.db.WithContext(ctx).Where("status = ?", status).Find(&pods).Error; err != nil {
		return nil, fmt.Errorf("querying pods by status %s: %w", status, err)
	}
	return pods, nil
}

// FindByStatusAndDate returns pods in the given status meeting on date's UTC
// calendar day.
func (r *PodRepository) FindByStatusAndDate(ctx context.Context, status models.PodStatus, date time.Time) ([]models.Pod, error) {
	var pods []models.Pod
	day := date.UTC().Format("2006-01-02")
	if err := r.db.WithContext(ctx).
		Where("status = ? AND meet_date = ?", status, day).
		Find(&pods).Error; err != nil {
		return nil, fmt.Errorf("querying pods by status %s on %s: %w", status, day, err)
	}
	return pods, nil
}

// UpdateStatus sets the pod's status and, when softDelete is set, marks the
// row deleted in the same call.
func (r *PodRepository) UpdateStatus(ctx context.Context, podID uint, status models.PodStatus, softDelete bool) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if softDelete {
		updates["deleted_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&models.Pod{}).Where("id = ?", podID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating pod %d to %s: %w", podID, status, res.Error)
	}
	return nil
}
