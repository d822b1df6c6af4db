package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/events"
	"athos_explorer_backend/pkg/logger"
	"athos_explorer_backend/pkg/monitoring"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxBatchEvents    = 100
	maxRetryQueue     = 1000
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// ClientEvent 前端批量上报的事件，EventID 由客户端生成
type ClientEvent struct {
	EventID   string                 `json:"eventId"`
	Type      string                 `json:"type"`
	ModuleID  string                 `json:"moduleId"`
	SectionID string                 `json:"sectionId"`
	ContentID uint                   `json:"contentId"`
	QuizID    uint                   `json:"quizId"`
	Score     *int                   `json:"score"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp *time.Time             `json:"timestamp"`
}

type IngestResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

type EventSummary struct {
	Days   int                         `json:"days"`
	Counts []repository.EventTypeCount `json:"counts"`
}

// AnalyticsService 事件落库并推送到消息队列，任何失败都只记录日志
type AnalyticsService struct {
	Repo      *repository.ActivityRepository
	Publisher events.Publisher
	// Async 为 true 时推送在后台 goroutine 中进行
	Async bool

	mu    sync.Mutex
	retry []model.ActivityEvent
	now   func() time.Time
}

func NewAnalyticsService(repo *repository.ActivityRepository, publisher events.Publisher, async bool) *AnalyticsService {
	return &AnalyticsService{
		Repo:      repo,
		Publisher: publisher,
		Async:     async,
		now:       time.Now,
	}
}

// Track 服务端事件，不返回错误
func (s *AnalyticsService) Track(ctx context.Context, event model.ActivityEvent) {
	if s == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = model.NewEventID()
	}
	if event.Source == "" {
		event.Source = model.SourceServer
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := s.Repo.Create(&event); err != nil {
		logger.Log.Warn("Failed to store activity event",
			zap.Uint("user_id", event.UserID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
	s.dispatch(ctx, []model.ActivityEvent{event})
}

func (s *AnalyticsService) IngestBatch(ctx context.Context, userID uint, batch []ClientEvent) (*IngestResult, error) {
	ve := &util.ValidationError{}
	if len(batch) == 0 {
		ve.Add("events", "must contain at least one event")
	}
	if len(batch) > maxBatchEvents {
		ve.Add("events", fmt.Sprintf("must contain at most %d events", maxBatchEvents))
	}
	for i, e := range batch {
		if _, err := uuid.Parse(e.EventID); err != nil {
			ve.Add(fmt.Sprintf("events[%d].eventId", i), "must be a uuid")
		}
		if e.Type == "" || len(e.Type) > 50 {
			ve.Add(fmt.Sprintf("events[%d].type", i), "is required and at most 50 characters")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(batch))
	for _, e := range batch {
		ids = append(ids, e.EventID)
	}
	existing, err := s.Repo.ExistingEventIDs(ids)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{}
	now := s.now()
	fresh := make([]model.ActivityEvent, 0, len(batch))
	for _, e := range batch {
		if existing[e.EventID] {
			result.Duplicates++
			continue
		}
		existing[e.EventID] = true

		occurredAt := now
		if e.Timestamp != nil && !e.Timestamp.IsZero() {
			occurredAt = *e.Timestamp
		}
		var payload datatypes.JSONMap
		if len(e.Payload) > 0 {
			payload = datatypes.JSONMap(e.Payload)
		}
		fresh = append(fresh, model.ActivityEvent{
			EventID:    e.EventID,
			UserID:     userID,
			Type:       e.Type,
			Source:     model.SourceClient,
			ModuleID:   e.ModuleID,
			SectionID:  e.SectionID,
			ContentID:  e.ContentID,
			QuizID:     e.QuizID,
			Score:      e.Score,
			Payload:    payload,
			OccurredAt: occurredAt,
		})
	}

	if err := s.Repo.CreateBatch(fresh); err != nil {
		return nil, err
	}
	result.Accepted = len(fresh)
	s.dispatch(ctx, fresh)
	return result, nil
}

func (s *AnalyticsService) ListEvents(userID uint, eventType string, limit int) ([]model.ActivityEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	return s.Repo.ListByUser(userID, eventType, limit)
}

func (s *AnalyticsService) Summary(userID uint, days int) (*EventSummary, error) {
	if days <= 0 {
		days = 7
	}
	counts, err := s.Repo.CountByType(userID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []repository.EventTypeCount{}
	}
	return &EventSummary{Days: days, Counts: counts}, nil
}

func (s *AnalyticsService) dispatch(ctx context.Context, evs []model.ActivityEvent) {
	if s.Publisher == nil || !s.Publisher.Enabled() || len(evs) == 0 {
		return
	}
	if s.Async {
		ctx = context.WithoutCancel(ctx)
		go s.publishOrQueue(ctx, evs)
		return
	}
	s.publishOrQueue(ctx, evs)
}

// publishOrQueue 首次失败的事件进入重试队列
func (s *AnalyticsService) publishOrQueue(ctx context.Context, evs []model.ActivityEvent) {
	var failed []model.ActivityEvent
	for _, e := range evs {
		if err := s.publish(ctx, e); err != nil {
			failed = append(failed, e)
		}
	}
	if len(failed) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range failed {
		if len(s.retry) >= maxRetryQueue {
			monitoring.EventsPublished.WithLabelValues("dropped").Inc()
			continue
		}
		s.retry = append(s.retry, e)
	}
}

func (s *AnalyticsService) publish(ctx context.Context, e model.ActivityEvent) error {
	err := s.Publisher.Publish(ctx, events.RoutingKey(e.Type), e)
	if err != nil {
		monitoring.EventsPublished.WithLabelValues("failed").Inc()
		logger.Log.Warn("Failed to publish activity event",
			zap.String("event_id", e.EventID),
			zap.String("type", e.Type),
			zap.Error(err))
		return err
	}
	monitoring.EventsPublished.WithLabelValues("ok").Inc()
	return nil
}

// FlushRetries 每个事件只重试一次，再次失败即丢弃
func (s *AnalyticsService) FlushRetries(ctx context.Context) (published, dropped int) {
	s.mu.Lock()
	queue := s.retry
	s.retry = nil
	s.mu.Unlock()

	for _, e := range queue {
		if err := s.publish(ctx, e); err != nil {
			dropped++
			monitoring.EventsPublished.WithLabelValues("dropped").Inc()
			continue
		}
		published++
	}
	if dropped > 0 {
		logger.Log.Warn("Dropped activity events after retry", zap.Int("count", dropped))
	}
	return published, dropped
}

func (s *AnalyticsService) PendingRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retry)
}

// RunRetryLoop 定期重发失败事件，ctx 结束时返回
func (s *AnalyticsService) RunRetryLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.FlushRetries(ctx)
		}
	}
}
