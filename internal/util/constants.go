package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// gin 上下文键
const (
	ContextUserKey = "user"
)

// 成就 ID 前缀
const (
	AchievementFirstContent    = "first-content"
	AchievementSectionComplete = "section-complete"
	AchievementModuleComplete  = "module-complete"
	AchievementQuizPerfect     = "quiz-perfect"
)
