package repository

import (
	"athos_explorer_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(event *model.ActivityEvent) error {
	return r.DB.Create(event).Error
}

// ExistingEventIDs 返回已入库的事件 ID
func (r *ActivityRepository) ExistingEventIDs(ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []string
	err := r.DB.Model(&model.ActivityEvent{}).Where("event_id IN ?", ids).Pluck("event_id", &existing).Error
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// CreateBatch 重复的 event_id 被忽略
func (r *ActivityRepository) CreateBatch(events []model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).CreateInBatches(events, 100).Error
}

func (r *ActivityRepository) ListByUser(userID uint, eventType string, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	query := r.DB.Where("user_id = ?", userID)
	if eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	err := query.Order("occurred_at DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}

type EventTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func (r *ActivityRepository) CountByType(userID uint, since time.Time) ([]EventTypeCount, error) {
	var counts []EventTypeCount
	err := r.DB.Model(&model.ActivityEvent{}).
		Select("type, COUNT(*) AS count").
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Group("type").
		Order("type ASC").
		Scan(&counts).Error
	return counts, err
}
