package service

import (
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"fmt"
	"time"
)

// AwardAchievements 根据当前进度补发成就，返回本次新增的部分
func AwardAchievements(p *model.Progress, now time.Time) []model.Achievement {
	var earned []model.Achievement
	add := func(a model.Achievement) {
		a.EarnedAt = now
		if p.AddAchievement(a) {
			earned = append(earned, a)
		}
	}

	if p.CompletedContentCount() > 0 {
		add(model.Achievement{
			ID:          util.AchievementFirstContent,
			Title:       "First Steps on the Holy Mountain",
			Description: "Completed your first lesson",
		})
	}

	for _, m := range p.Modules {
		for _, s := range m.Sections {
			if s.Completion < 100 {
				continue
			}
			add(model.Achievement{
				ID:          fmt.Sprintf("%s:%s:%s", util.AchievementSectionComplete, m.ModuleID, s.SectionID),
				Title:       "Section Complete",
				Description: fmt.Sprintf("Completed every lesson and quiz in %s/%s", m.ModuleID, s.SectionID),
				ModuleID:    m.ModuleID,
			})
		}
		if moduleFullyComplete(p, m.ModuleID) {
			add(model.Achievement{
				ID:          fmt.Sprintf("%s:%s", util.AchievementModuleComplete, m.ModuleID),
				Title:       "Module Complete",
				Description: fmt.Sprintf("Completed every section of %s", m.ModuleID),
				ModuleID:    m.ModuleID,
			})
		}
	}

	for _, q := range p.QuizProgress {
		if q.Score < 100 {
			continue
		}
		add(model.Achievement{
			ID:          fmt.Sprintf("%s:%d", util.AchievementQuizPerfect, q.QuizID),
			Title:       "Perfect Score",
			Description: "Answered every question of a quiz correctly",
			ModuleID:    q.ModuleID,
		})
	}

	return earned
}

// moduleFullyComplete 要求课程表中该模块的每个小节都达到 100
func moduleFullyComplete(p *model.Progress, moduleID string) bool {
	ids := curriculum.SectionIDs(moduleID)
	if len(ids) == 0 {
		return false
	}
	for _, sid := range ids {
		s := p.Section(moduleID, sid)
		if s == nil || s.Completion < 100 {
			return false
		}
	}
	return true
}
