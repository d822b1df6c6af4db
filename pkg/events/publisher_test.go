package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewAMQPPublisher("", "athos.learning")
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	err = p.Publish(context.Background(), RoutingKey("quiz_submit"), map[string]any{"score": 80})
	assert.NoError(t, err)
	p.Close()
}

func TestPublishDuringClose(t *testing.T) {
	p, err := NewAMQPPublisher("", "athos.learning")
	require.NoError(t, err)
	p.enabled.Store(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Enabled()
		}()
	}
	p.Close()
	wg.Wait()

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), RoutingKey("content_view"), map[string]any{"contentId": 1}))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "learning.section_access", RoutingKey("section_access"))
}
