package repository

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

func (r *ProgressRepository) FindByUserID(userID uint) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreate 首次访问时插入空文档；并发插入由唯一索引兜底
func (r *ProgressRepository) GetOrCreate(userID uint) (*model.Progress, error) {
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(model.NewProgress(userID)).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(userID)
}

// SaveVersioned 以 version 做比较交换，版本不一致返回 ErrProgressConflict
func (r *ProgressRepository) SaveVersioned(p *model.Progress) error {
	now := time.Now()
	res := r.DB.Model(&model.Progress{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"modules":            p.Modules,
			"content_progress":   p.ContentProgress,
			"quiz_progress":      p.QuizProgress,
			"achievements":       p.Achievements,
			"overall_completion": p.OverallCompletion,
			"version":            p.Version + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrProgressConflict
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

// HardDelete 重置进度时使用，不走软删除
func (r *ProgressRepository) HardDelete(userID uint) error {
	return r.DB.Unscoped().Where("user_id = ?", userID).Delete(&model.Progress{}).Error
}

func (r *ProgressRepository) Create(p *model.Progress) error {
	return r.DB.Create(p).Error
}
