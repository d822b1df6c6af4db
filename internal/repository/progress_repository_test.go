package repository

import (
	"athos_explorer_backend/internal/testutil"
	"athos_explorer_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := NewProgressRepository(testutil.NewDB(t))

	first, err := repo.GetOrCreate(7)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(7)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Zero(t, second.Version)
	assert.Empty(t, second.Modules)
}

func TestSaveVersionedDetectsStaleCopy(t *testing.T) {
	repo := NewProgressRepository(testutil.NewDB(t))

	_, err := repo.GetOrCreate(7)
	require.NoError(t, err)

	a, err := repo.FindByUserID(7)
	require.NoError(t, err)
	b, err := repo.FindByUserID(7)
	require.NoError(t, err)

	a.OverallCompletion = 40
	require.NoError(t, repo.SaveVersioned(a))
	assert.Equal(t, 1, a.Version)

	b.OverallCompletion = 10
	assert.ErrorIs(t, repo.SaveVersioned(b), util.ErrProgressConflict)

	stored, err := repo.FindByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.OverallCompletion)
	assert.Equal(t, 1, stored.Version)
}

func TestHardDeleteRemovesRow(t *testing.T) {
	repo := NewProgressRepository(testutil.NewDB(t))

	_, err := repo.GetOrCreate(3)
	require.NoError(t, err)
	require.NoError(t, repo.HardDelete(3))

	_, err = repo.FindByUserID(3)
	assert.Error(t, err)

	// 唯一索引上不应残留软删除记录
	p, err := repo.GetOrCreate(3)
	require.NoError(t, err)
	assert.Zero(t, p.Version)
}
