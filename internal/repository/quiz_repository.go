package repository

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"fmt"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

// Create 连同题目一起写入；0 分题目允许存在，不计入总分
func (r *QuizRepository) Create(quiz *model.Quiz) error {
	ve := &util.ValidationError{}
	for i, q := range quiz.Questions {
		if q.Points < 0 {
			ve.Add(fmt.Sprintf("questions[%d].points", i), "must not be negative")
		}
	}
	if err := ve.Err(); err != nil {
		return err
	}
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindPublishedWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, id ASC")
	}).Where("id = ? AND published = ?", id, true).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindPublishedForSection 同一小节存在多个已发布测验时取 ID 最小的一个
func (r *QuizRepository) FindPublishedForSection(moduleID, sectionID string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("module_id = ? AND section_id = ? AND published = ?", moduleID, sectionID, true).
		Order("id ASC").
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}
