package service

import (
	"athos_explorer_backend/internal/model"
	"math"
)

// SectionCatalog 计算单个小节完成度所需的目录信息
type SectionCatalog struct {
	ContentIDs []uint
	QuizID     uint
	HasQuiz    bool
}

// ContentTerm 内容部分占 50 分
func ContentTerm(p *model.Progress, cat SectionCatalog) int {
	if len(cat.ContentIDs) == 0 {
		return 0
	}
	completed := 0
	for _, id := range cat.ContentIDs {
		if cp := p.Content(id); cp != nil && cp.Completed {
			completed++
		}
	}
	return int(math.Round(50 * float64(completed) / float64(len(cat.ContentIDs))))
}

// QuizTerm 测验部分占 50 分；小节没有测验时与内容部分相同
func QuizTerm(p *model.Progress, cat SectionCatalog, contentTerm int) int {
	if !cat.HasQuiz {
		return contentTerm
	}
	qp := p.Quiz(cat.QuizID)
	if qp == nil {
		return 0
	}
	if qp.Completed {
		return 50
	}
	return int(math.Round(float64(qp.Score) * 0.5))
}

func SectionCompletion(p *model.Progress, cat SectionCatalog) int {
	content := ContentTerm(p, cat)
	return clampPercent(content + QuizTerm(p, cat, content))
}

// RecalculateSection 原地更新小节、所属模块与总完成度，由调用方负责持久化
func RecalculateSection(p *model.Progress, moduleID, sectionID string, cat SectionCatalog) {
	sec := p.EnsureSection(moduleID, sectionID)
	sec.Completion = SectionCompletion(p, cat)
	RollupModule(p.Module(moduleID))
	RollupOverall(p)
}

// RollupModule 模块完成度为各小节平均值，没有小节时为 0
func RollupModule(m *model.ModuleProgress) {
	if m == nil {
		return
	}
	if len(m.Sections) == 0 {
		m.Completion = 0
		return
	}
	sum := 0
	for _, s := range m.Sections {
		sum += s.Completion
	}
	m.Completion = clampPercent(int(math.Round(float64(sum) / float64(len(m.Sections)))))
}

func RollupOverall(p *model.Progress) {
	if len(p.Modules) == 0 {
		p.OverallCompletion = 0
		return
	}
	sum := 0
	for _, m := range p.Modules {
		sum += m.Completion
	}
	p.OverallCompletion = clampPercent(int(math.Round(float64(sum) / float64(len(p.Modules)))))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
