package repository

import (
	"athos_explorer_backend/internal/model"

	"gorm.io/gorm"
)

type ContentFilter struct {
	ModuleID      string
	SectionID     string
	LearningStyle model.LearningStyle
	Difficulty    model.Difficulty
	Type          model.ContentType
	Page          int
	Limit         int
}

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) WithTx(tx *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: tx}
}

func (r *ContentRepository) published() *gorm.DB {
	return r.DB.Model(&model.ContentItem{}).Where("published = ?", true)
}

func (r *ContentRepository) Create(item *model.ContentItem) error {
	return r.DB.Create(item).Error
}

func (r *ContentRepository) FindByID(id uint) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.First(&item, id).Error
	return &item, err
}

func (r *ContentRepository) FindPublishedByID(id uint) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.published().Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListPublishedIDsBySection 完成度计算只需要 ID
func (r *ContentRepository) ListPublishedIDsBySection(moduleID, sectionID string) ([]uint, error) {
	var ids []uint
	err := r.published().
		Where("module_id = ? AND section_id = ?", moduleID, sectionID).
		Order("sort_order ASC, id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// ListPublishedBySection limit <= 0 表示不限
func (r *ContentRepository) ListPublishedBySection(moduleID, sectionID string, limit int) ([]model.ContentItem, error) {
	var items []model.ContentItem
	query := r.published().
		Where("module_id = ? AND section_id = ?", moduleID, sectionID).
		Order("sort_order ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

// ListPublishedByStyle 按学习风格匹配，排除指定模块，最新优先。
// LIKE 在 sqlite 和 mysql 默认排序规则下不区分大小写，取回后再按标签精确过滤
func (r *ContentRepository) ListPublishedByStyle(style model.LearningStyle, excludeModule string, limit int) ([]model.ContentItem, error) {
	var items []model.ContentItem
	err := r.published().
		Where("learning_styles LIKE ?", model.StyleTagPattern(style)).
		Where("module_id <> ?", excludeModule).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	matched := items[:0]
	for _, item := range items {
		if item.HasStyle(style) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// ListPopular 浏览量降序，ID 升序保证结果稳定
func (r *ContentRepository) ListPopular(exclude []uint, limit int) ([]model.ContentItem, error) {
	var items []model.ContentItem
	query := r.published()
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	err := query.Order("views DESC, id ASC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *ContentRepository) List(filter ContentFilter) ([]model.ContentItem, int64, error) {
	var items []model.ContentItem
	var total int64

	query := r.published()
	if filter.ModuleID != "" {
		query = query.Where("module_id = ?", filter.ModuleID)
	}
	if filter.SectionID != "" {
		query = query.Where("section_id = ?", filter.SectionID)
	}
	if filter.LearningStyle != "" {
		query = query.Where("learning_styles LIKE ?", model.StyleTagPattern(filter.LearningStyle))
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	err := query.Order("module_id ASC, section_id ASC, sort_order ASC, id ASC").Find(&items).Error
	return items, total, err
}

func (r *ContentRepository) IncrementViews(id uint) error {
	return r.DB.Model(&model.ContentItem{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).
		Error
}
