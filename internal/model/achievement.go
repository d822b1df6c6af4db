package model

import "time"

// Achievement 只追加，按 ID 去重
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ModuleID    string    `json:"moduleId,omitempty"`
	EarnedAt    time.Time `json:"earnedAt"`
}

func (p *Progress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// AddAchievement 已存在时返回 false
func (p *Progress) AddAchievement(a Achievement) bool {
	if p.HasAchievement(a.ID) {
		return false
	}
	p.Achievements = append(p.Achievements, a)
	return true
}
