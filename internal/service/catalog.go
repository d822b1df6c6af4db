package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"errors"

	"gorm.io/gorm"
)

// Catalog 推荐与完成度计算读取的内容目录
type Catalog interface {
	ListPublishedBySection(moduleID, sectionID string, limit int) ([]model.ContentItem, error)
	ListPublishedByStyle(style model.LearningStyle, excludeModule string, limit int) ([]model.ContentItem, error)
	ListPopular(exclude []uint, limit int) ([]model.ContentItem, error)
	// PublishedQuiz 小节没有已发布测验时返回 (nil, nil)
	PublishedQuiz(moduleID, sectionID string) (*model.Quiz, error)
	SectionCatalog(moduleID, sectionID string) (SectionCatalog, error)
}

type RepositoryCatalog struct {
	ContentRepo *repository.ContentRepository
	QuizRepo    *repository.QuizRepository
}

func NewRepositoryCatalog(contentRepo *repository.ContentRepository, quizRepo *repository.QuizRepository) *RepositoryCatalog {
	return &RepositoryCatalog{ContentRepo: contentRepo, QuizRepo: quizRepo}
}

// WithTx 事务内读取，保证与进度写入看到同一份数据
func (c *RepositoryCatalog) WithTx(tx *gorm.DB) *RepositoryCatalog {
	return &RepositoryCatalog{ContentRepo: c.ContentRepo.WithTx(tx), QuizRepo: c.QuizRepo.WithTx(tx)}
}

func (c *RepositoryCatalog) ListPublishedBySection(moduleID, sectionID string, limit int) ([]model.ContentItem, error) {
	return c.ContentRepo.ListPublishedBySection(moduleID, sectionID, limit)
}

func (c *RepositoryCatalog) ListPublishedByStyle(style model.LearningStyle, excludeModule string, limit int) ([]model.ContentItem, error) {
	return c.ContentRepo.ListPublishedByStyle(style, excludeModule, limit)
}

func (c *RepositoryCatalog) ListPopular(exclude []uint, limit int) ([]model.ContentItem, error) {
	return c.ContentRepo.ListPopular(exclude, limit)
}

func (c *RepositoryCatalog) PublishedQuiz(moduleID, sectionID string) (*model.Quiz, error) {
	quiz, err := c.QuizRepo.FindPublishedForSection(moduleID, sectionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return quiz, err
}

func (c *RepositoryCatalog) SectionCatalog(moduleID, sectionID string) (SectionCatalog, error) {
	ids, err := c.ContentRepo.ListPublishedIDsBySection(moduleID, sectionID)
	if err != nil {
		return SectionCatalog{}, err
	}
	cat := SectionCatalog{ContentIDs: ids}
	quiz, err := c.PublishedQuiz(moduleID, sectionID)
	if err != nil {
		return SectionCatalog{}, err
	}
	if quiz != nil {
		cat.QuizID = quiz.ID
		cat.HasQuiz = true
	}
	return cat, nil
}
