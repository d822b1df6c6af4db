package model

import (
	"time"

	"gorm.io/datatypes"
)

// LearningPath 每个用户一条：当前位置 + 最近一次推荐结果
// swagger:model LearningPath
type LearningPath struct {
	BaseModel
	UserID              uint                                    `gorm:"uniqueIndex;not null" json:"userId"`
	CurrentModule       string                                  `gorm:"size:64" json:"currentModule"`
	CurrentSection      string                                  `gorm:"size:64" json:"currentSection"`
	RecommendedContent  datatypes.JSONSlice[uint]               `json:"recommendedContent"`
	AdaptiveSuggestions datatypes.JSONSlice[AdaptiveSuggestion] `json:"adaptiveSuggestions"`
	LearningStyle       LearningStyle                           `gorm:"size:20;default:'balanced'" json:"learningStyle"`
	Difficulty          Difficulty                              `gorm:"size:20;default:'beginner'" json:"difficulty"`
	LastUpdated         time.Time                               `json:"lastUpdated"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

type AdaptiveSuggestion struct {
	ContentID   uint       `json:"contentId"`
	Reason      string     `json:"reason"`
	Priority    int        `json:"priority"`
	SuggestedAt time.Time  `json:"suggestedAt"`
	ClickedAt   *time.Time `json:"clickedAt,omitempty"`
	Completed   bool       `json:"completed"`
}

func NewLearningPath(userID uint, moduleID, sectionID string, style LearningStyle, difficulty Difficulty) *LearningPath {
	return &LearningPath{
		UserID:              userID,
		CurrentModule:       moduleID,
		CurrentSection:      sectionID,
		RecommendedContent:  datatypes.JSONSlice[uint]{},
		AdaptiveSuggestions: datatypes.JSONSlice[AdaptiveSuggestion]{},
		LearningStyle:       style,
		Difficulty:          difficulty,
	}
}

func (lp *LearningPath) Suggestion(contentID uint) *AdaptiveSuggestion {
	for i := range lp.AdaptiveSuggestions {
		if lp.AdaptiveSuggestions[i].ContentID == contentID {
			return &lp.AdaptiveSuggestions[i]
		}
	}
	return nil
}
