package model

import (
	"time"

	"gorm.io/datatypes"
)

// Progress 每个用户一条，模块/内容/测验进度以 JSON 子文档存储
// swagger:model Progress
type Progress struct {
	BaseModel
	UserID            uint                                 `gorm:"uniqueIndex;not null" json:"userId"`
	Modules           datatypes.JSONSlice[ModuleProgress]  `json:"modules"`
	ContentProgress   datatypes.JSONSlice[ContentProgress] `json:"contentProgress"`
	QuizProgress      datatypes.JSONSlice[QuizProgress]    `json:"quizProgress"`
	Achievements      datatypes.JSONSlice[Achievement]     `json:"achievements"`
	OverallCompletion int                                  `gorm:"default:0" json:"overallCompletion"`
	Version           int                                  `gorm:"not null;default:0" json:"version"`
}

func (Progress) TableName() string {
	return "progress"
}

type ModuleProgress struct {
	ModuleID     string            `json:"moduleId"`
	Completion   int               `json:"completion"`
	LastAccessed time.Time         `json:"lastAccessed"`
	Sections     []SectionProgress `json:"sections"`
}

type SectionProgress struct {
	SectionID    string    `json:"sectionId"`
	Completion   int       `json:"completion"`
	LastAccessed time.Time `json:"lastAccessed"`
}

type ContentProgress struct {
	ContentID    uint      `json:"contentId"`
	ModuleID     string    `json:"moduleId"`
	SectionID    string    `json:"sectionId"`
	Progress     int       `json:"progress"`
	Completed    bool      `json:"completed"`
	TimeSpent    int       `json:"timeSpent"`
	LastAccessed time.Time `json:"lastAccessed"`
}

type QuizProgress struct {
	QuizID      uint      `json:"quizId"`
	ModuleID    string    `json:"moduleId"`
	SectionID   string    `json:"sectionId"`
	Score       int       `json:"score"`
	Attempts    int       `json:"attempts"`
	Completed   bool      `json:"completed"`
	LastAttempt time.Time `json:"lastAttempt"`
}

func NewProgress(userID uint) *Progress {
	return &Progress{
		UserID:          userID,
		Modules:         datatypes.JSONSlice[ModuleProgress]{},
		ContentProgress: datatypes.JSONSlice[ContentProgress]{},
		QuizProgress:    datatypes.JSONSlice[QuizProgress]{},
		Achievements:    datatypes.JSONSlice[Achievement]{},
	}
}

// Module 返回切片内元素的指针，追加模块后旧指针失效
func (p *Progress) Module(moduleID string) *ModuleProgress {
	for i := range p.Modules {
		if p.Modules[i].ModuleID == moduleID {
			return &p.Modules[i]
		}
	}
	return nil
}

func (p *Progress) Section(moduleID, sectionID string) *SectionProgress {
	m := p.Module(moduleID)
	if m == nil {
		return nil
	}
	for i := range m.Sections {
		if m.Sections[i].SectionID == sectionID {
			return &m.Sections[i]
		}
	}
	return nil
}

// EnsureSection 确保 (module, section) 各只出现一次，不修改访问时间
func (p *Progress) EnsureSection(moduleID, sectionID string) *SectionProgress {
	m := p.Module(moduleID)
	if m == nil {
		p.Modules = append(p.Modules, ModuleProgress{ModuleID: moduleID, Sections: []SectionProgress{}})
		m = &p.Modules[len(p.Modules)-1]
	}
	for i := range m.Sections {
		if m.Sections[i].SectionID == sectionID {
			return &m.Sections[i]
		}
	}
	m.Sections = append(m.Sections, SectionProgress{SectionID: sectionID})
	return &m.Sections[len(m.Sections)-1]
}

// TouchSection 同 EnsureSection，并刷新模块与小节的访问时间
func (p *Progress) TouchSection(moduleID, sectionID string, now time.Time) *SectionProgress {
	sec := p.EnsureSection(moduleID, sectionID)
	sec.LastAccessed = now
	p.Module(moduleID).LastAccessed = now
	return sec
}

func (p *Progress) Content(contentID uint) *ContentProgress {
	for i := range p.ContentProgress {
		if p.ContentProgress[i].ContentID == contentID {
			return &p.ContentProgress[i]
		}
	}
	return nil
}

func (p *Progress) Quiz(quizID uint) *QuizProgress {
	for i := range p.QuizProgress {
		if p.QuizProgress[i].QuizID == quizID {
			return &p.QuizProgress[i]
		}
	}
	return nil
}

func (p *Progress) CompletedContentCount() int {
	n := 0
	for _, c := range p.ContentProgress {
		if c.Completed {
			n++
		}
	}
	return n
}
