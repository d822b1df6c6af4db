package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/logger"
	"athos_explorer_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressMutation 在事务内修改进度；tx 绑定的 catalog 读到的是同一事务内的数据
type ProgressMutation func(tx *gorm.DB, p *model.Progress, catalog *RepositoryCatalog, now time.Time) error

// ProgressWriter 所有进度写入的唯一入口：读最新、修改、按版本写回，冲突时整体重试
type ProgressWriter struct {
	DB           *gorm.DB
	ProgressRepo *repository.ProgressRepository
	Catalog      *RepositoryCatalog
	Settings     *LearningSettings
	now          func() time.Time
}

func NewProgressWriter(db *gorm.DB, progressRepo *repository.ProgressRepository, catalog *RepositoryCatalog, settings *LearningSettings) *ProgressWriter {
	return &ProgressWriter{
		DB:           db,
		ProgressRepo: progressRepo,
		Catalog:      catalog,
		Settings:     settings,
		now:          time.Now,
	}
}

func (w *ProgressWriter) Mutate(ctx context.Context, userID uint, fn ProgressMutation) (*model.Progress, error) {
	retries := w.Settings.Get().ProgressRetries
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		var saved *model.Progress
		err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := w.ProgressRepo.WithTx(tx)
			p, err := repo.GetOrCreate(userID)
			if err != nil {
				return err
			}
			if err := fn(tx, p, w.Catalog.WithTx(tx), w.now()); err != nil {
				return err
			}
			if err := repo.SaveVersioned(p); err != nil {
				return err
			}
			saved = p
			return nil
		})
		if err == nil {
			return saved, nil
		}
		if util.IsClientError(err) {
			return nil, err
		}
		if !errors.Is(err, util.ErrProgressConflict) {
			return nil, fmt.Errorf("%w: %w", util.ErrTransactionFailed, err)
		}
		lastErr = err
		monitoring.ProgressConflicts.Inc()
		logger.Log.Warn("Progress version conflict, retrying",
			zap.Uint("user_id", userID),
			zap.Int("attempt", attempt))
	}
	return nil, lastErr
}
