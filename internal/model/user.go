package model

type UserRole string

const (
	Learner UserRole = "learner"
	Editor  UserRole = "editor"
	Admin   UserRole = "admin"
)

type LearningStyle string

const (
	StyleVisual      LearningStyle = "visual"
	StyleTextual     LearningStyle = "textual"
	StyleInteractive LearningStyle = "interactive"
	StyleBalanced    LearningStyle = "balanced"
)

func (s LearningStyle) Valid() bool {
	switch s {
	case StyleVisual, StyleTextual, StyleInteractive, StyleBalanced:
		return true
	}
	return false
}

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// User 账号与学习偏好；Password 存 bcrypt 哈希
// swagger:model User
type User struct {
	BaseModel
	Name          string        `gorm:"size:100;not null" json:"name"`
	Email         string        `gorm:"size:100;unique;not null" json:"email"`
	Password      string        `gorm:"size:255" json:"-"`
	Role          UserRole      `gorm:"size:20;default:'learner'" json:"role"`
	LearningStyle LearningStyle `gorm:"size:20;default:'balanced'" json:"learningStyle"`
	Difficulty    Difficulty    `gorm:"size:20;default:'beginner'" json:"difficulty"`
}

func (User) TableName() string {
	return "users"
}
