package model

import (
	"strings"

	"gorm.io/gorm"
)

type ContentType string

const (
	ContentLesson      ContentType = "lesson"
	ContentArticle     ContentType = "article"
	ContentVideo       ContentType = "video"
	ContentInteractive ContentType = "interactive"
)

// ContentItem 课程内容单元，归属唯一的 (module, section)
// swagger:model ContentItem
type ContentItem struct {
	BaseModel
	ModuleID   string      `gorm:"size:64;not null;index:idx_content_section,priority:1" json:"moduleId"`
	SectionID  string      `gorm:"size:64;not null;index:idx_content_section,priority:2" json:"sectionId"`
	Title      string      `gorm:"size:255;not null" json:"title"`
	Summary    string      `gorm:"type:text" json:"summary"`
	Body       string      `gorm:"type:text" json:"body,omitempty"`
	Type       ContentType `gorm:"size:20;not null" json:"type"`
	Order      int         `gorm:"column:sort_order;default:0" json:"order"`
	Difficulty Difficulty  `gorm:"size:20;default:'beginner'" json:"difficulty"`
	Views      int         `gorm:"default:0" json:"views"`
	Published  bool        `gorm:"default:false;index" json:"published"`

	// 以 ",visual,textual," 形式存储，便于 LIKE 过滤
	StyleTags      string   `gorm:"column:learning_styles;size:255" json:"-"`
	LearningStyles []string `gorm:"-" json:"learningStyles"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

func (c *ContentItem) BeforeSave(tx *gorm.DB) error {
	if len(c.LearningStyles) == 0 {
		c.StyleTags = ""
		return nil
	}
	c.StyleTags = "," + strings.Join(c.LearningStyles, ",") + ","
	return nil
}

func (c *ContentItem) AfterFind(tx *gorm.DB) error {
	c.LearningStyles = splitStyleTags(c.StyleTags)
	return nil
}

func (c *ContentItem) HasStyle(style LearningStyle) bool {
	for _, s := range c.LearningStyles {
		if s == string(style) {
			return true
		}
	}
	return false
}

// StyleTagPattern 构造 learning_styles 列的 LIKE 匹配串
func StyleTagPattern(style LearningStyle) string {
	return "%," + string(style) + ",%"
}

func splitStyleTags(tags string) []string {
	tags = strings.Trim(tags, ",")
	if tags == "" {
		return []string{}
	}
	return strings.Split(tags, ",")
}
