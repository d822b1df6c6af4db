package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	failNext  int
	published []string
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, routingKey)
	return nil
}

func (f *fakePublisher) Enabled() bool { return true }
func (f *fakePublisher) Close()        {}

func TestTrackStoresAndPublishes(t *testing.T) {
	e := newTestEnv(t)
	pub := &fakePublisher{}
	svc := NewAnalyticsService(e.activityRepo, pub, false)

	svc.Track(context.Background(), model.ActivityEvent{UserID: 1, Type: model.EventSectionAccess, ModuleID: "art"})

	events, err := svc.ListEvents(1, "", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.SourceServer, events[0].Source)
	assert.NotEmpty(t, events[0].EventID)
	assert.Equal(t, []string{"learning.section_access"}, pub.published)
}

func TestFailedPublishIsRetriedOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	pub := &fakePublisher{failNext: 2}
	svc := NewAnalyticsService(e.activityRepo, pub, false)

	svc.Track(ctx, model.ActivityEvent{UserID: 1, Type: model.EventQuizSubmit})
	svc.Track(ctx, model.ActivityEvent{UserID: 1, Type: model.EventContentView})
	assert.Equal(t, 2, svc.PendingRetries())

	// 只有失败的两个事件被重新排队，不会整体翻倍
	pub.failNext = 1
	published, dropped := svc.FlushRetries(ctx)
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, svc.PendingRetries())

	published, dropped = svc.FlushRetries(ctx)
	assert.Zero(t, published)
	assert.Zero(t, dropped)
}

func TestIngestBatchDeduplicates(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := NewAnalyticsService(e.activityRepo, nil, false)

	id1, id2 := uuid.NewString(), uuid.NewString()
	batch := []ClientEvent{
		{EventID: id1, Type: "page_view", ModuleID: "history"},
		{EventID: id2, Type: "video_play", ContentID: 3, Payload: map[string]interface{}{"position": 12}},
		{EventID: id1, Type: "page_view", ModuleID: "history"},
	}

	res, err := svc.IngestBatch(ctx, 4, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Duplicates)

	res, err = svc.IngestBatch(ctx, 4, batch[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 2, res.Duplicates)

	events, err := svc.ListEvents(4, "", 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, model.SourceClient, ev.Source)
	}
}

func TestIngestBatchValidation(t *testing.T) {
	e := newTestEnv(t)
	svc := NewAnalyticsService(e.activityRepo, nil, false)

	_, err := svc.IngestBatch(context.Background(), 1, nil)
	_, ok := util.IsValidationError(err)
	assert.True(t, ok)

	_, err = svc.IngestBatch(context.Background(), 1, []ClientEvent{{EventID: "not-a-uuid", Type: ""}})
	ve, ok := util.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)
	assert.Equal(t, "events[0].eventId", ve.Fields[0].Field)
}

func TestSummaryCountsByType(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := NewAnalyticsService(e.activityRepo, nil, false)

	svc.Track(ctx, model.ActivityEvent{UserID: 2, Type: model.EventContentView})
	svc.Track(ctx, model.ActivityEvent{UserID: 2, Type: model.EventContentView})
	svc.Track(ctx, model.ActivityEvent{UserID: 2, Type: model.EventQuizSubmit})
	svc.Track(ctx, model.ActivityEvent{UserID: 3, Type: model.EventQuizSubmit})

	summary, err := svc.Summary(2, 7)
	require.NoError(t, err)
	require.Len(t, summary.Counts, 2)
	assert.Equal(t, "content_view", summary.Counts[0].Type)
	assert.Equal(t, int64(2), summary.Counts[0].Count)
	assert.Equal(t, int64(1), summary.Counts[1].Count)
}
