package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: `+filepath.Join(t.TempDir(), "db", "athos.db")+`
jwt:
  secret: dev
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, DefaultLearningConfig(), cfg.Learning)
	assert.Equal(t, "athos.learning", cfg.Events.Exchange)
	assert.Equal(t, "logs/athos.log", cfg.Log.File)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
	assert.DirExists(t, filepath.Dir(cfg.Database.Path))
}

func TestLoadConfigOverridesLearning(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
learning:
  passing_score: 70
  stale_suggestion_days: 7
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Learning.PassingScore)
	assert.Equal(t, 7, cfg.Learning.StaleSuggestionDays)
	assert.Equal(t, 10, cfg.Learning.MaxRecommendations)
}

func TestLoadConfigRejectsShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestLearningConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LearningConfig)
		wantErr bool
	}{
		{"defaults", func(*LearningConfig) {}, false},
		{"passing score above 100", func(l *LearningConfig) { l.PassingScore = 101 }, true},
		{"no recommendations", func(l *LearningConfig) { l.MaxRecommendations = 0 }, true},
		{"zero stale window", func(l *LearningConfig) { l.StaleSuggestionDays = 0 }, true},
		{"zero retries", func(l *LearningConfig) { l.ProgressRetries = 0 }, true},
		{"zero cache ttl", func(l *LearningConfig) { l.PathCacheTTLMinutes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultLearningConfig()
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
