package model

import "gorm.io/datatypes"

type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"
	MultipleSelect QuestionType = "multiple-select"
)

// Quiz 每个 (module, section) 至多一个已发布测验
// swagger:model Quiz
type Quiz struct {
	BaseModel
	ModuleID    string         `gorm:"size:64;not null;index:idx_quiz_section,priority:1" json:"moduleId"`
	SectionID   string         `gorm:"size:64;not null;index:idx_quiz_section,priority:2" json:"sectionId"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	Questions   []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID      uint                        `gorm:"index;not null" json:"quizId"`
	Order       int                         `gorm:"column:sort_order;default:0" json:"order"`
	Type        QuestionType                `gorm:"size:20;not null" json:"type"`
	Prompt      string                      `gorm:"type:text;not null" json:"prompt"`
	Options     datatypes.JSONSlice[string] `json:"options"`
	Points      int                         `gorm:"not null" json:"points"`
	Explanation string                      `gorm:"type:text" json:"explanation,omitempty"`

	// 单选/判断/简答只有一个元素，多选为集合
	CorrectAnswers datatypes.JSONSlice[string] `json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
