package service

import (
	"athos_explorer_backend/internal/config"
	"sync"
)

// LearningSettings 学习相关可调参数，配置热更新时整体替换
type LearningSettings struct {
	mu  sync.RWMutex
	cfg config.LearningConfig
}

func NewLearningSettings(cfg config.LearningConfig) *LearningSettings {
	return &LearningSettings{cfg: cfg}
}

func (s *LearningSettings) Get() config.LearningConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Set 非法配置被忽略并返回错误，保留旧值
func (s *LearningSettings) Set(cfg config.LearningConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
