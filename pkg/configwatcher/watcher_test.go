package configwatcher

import (
	"athos_explorer_backend/internal/config"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	body := "server:\n  mode: debug\ndatabase:\n  driver: sqlite\n  path: " + filepath.Join(dir, "athos.db") + "\n"
	require.NoError(t, os.WriteFile(file, []byte(body), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, file, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// 等待 watcher 注册完成
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte(body+"learning:\n  passing_score: 75\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 75, cfg.Learning.PassingScore)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
