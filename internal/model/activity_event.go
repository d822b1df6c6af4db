package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventProgressUpdate = "progress_update"
	EventSectionAccess  = "section_access"
	EventQuizSubmit     = "quiz_submit"
	EventContentView    = "content_view"
	EventProgressReset  = "progress_reset"
	EventSuggestionOpen = "suggestion_click"
)

const (
	SourceServer = "server"
	SourceClient = "client"
)

// ActivityEvent 学习行为事件，EventID 用于客户端批量重发去重
type ActivityEvent struct {
	BaseModel
	EventID    string            `gorm:"size:36;uniqueIndex;not null" json:"eventId"`
	UserID     uint              `gorm:"index;not null" json:"userId"`
	Type       string            `gorm:"size:50;index;not null" json:"type"`
	Source     string            `gorm:"size:20;default:'server'" json:"source"`
	ModuleID   string            `gorm:"size:64" json:"moduleId,omitempty"`
	SectionID  string            `gorm:"size:64" json:"sectionId,omitempty"`
	ContentID  uint              `json:"contentId,omitempty"`
	QuizID     uint              `json:"quizId,omitempty"`
	Score      *int              `json:"score,omitempty"`
	Payload    datatypes.JSONMap `json:"payload,omitempty"`
	OccurredAt time.Time         `gorm:"index" json:"occurredAt"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
