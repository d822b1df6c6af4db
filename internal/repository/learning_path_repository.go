package repository

import (
	"athos_explorer_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) WithTx(tx *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: tx}
}

func (r *LearningPathRepository) FindByUserID(userID uint) (*model.LearningPath, error) {
	var lp model.LearningPath
	err := r.DB.Where("user_id = ?", userID).First(&lp).Error
	if err != nil {
		return nil, err
	}
	return &lp, nil
}

// CreateIfMissing 已存在时不覆盖，返回库中的记录
func (r *LearningPathRepository) CreateIfMissing(lp *model.LearningPath) (*model.LearningPath, error) {
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(lp).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(lp.UserID)
}

func (r *LearningPathRepository) Save(lp *model.LearningPath) error {
	return r.DB.Save(lp).Error
}

func (r *LearningPathRepository) HardDelete(userID uint) error {
	return r.DB.Unscoped().Where("user_id = ?", userID).Delete(&model.LearningPath{}).Error
}
