package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateContentProgressValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name   string
		in     ContentProgressInput
		fields []string
	}{
		{"missing everything", ContentProgressInput{}, []string{"contentId", "progress"}},
		{"progress above 100", ContentProgressInput{ContentID: 1, Progress: intPtr(101)}, []string{"progress"}},
		{"negative progress", ContentProgressInput{ContentID: 1, Progress: intPtr(-1)}, []string{"progress"}},
		{"negative time", ContentProgressInput{ContentID: 1, Progress: intPtr(10), TimeSpent: -5}, []string{"timeSpent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.progress.UpdateContentProgress(context.Background(), 1, tt.in)
			ve, ok := util.IsValidationError(err)
			require.True(t, ok)
			var fields []string
			for _, f := range ve.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}

	_, err := e.progressRepo.FindByUserID(1)
	assert.Error(t, err, "nothing is written for invalid input")
}

func TestUpdateContentProgressUnknownContent(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.progress.UpdateContentProgress(context.Background(), 1, ContentProgressInput{ContentID: 42, Progress: intPtr(10)})
	assert.ErrorIs(t, err, util.ErrContentNotFound)
}

func TestContentOnlySectionReaches100(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.addContent(t, "spirituality", "hesychasm", 1)
	b := e.addContent(t, "spirituality", "hesychasm", 2)

	res, err := e.progress.UpdateContentProgress(ctx, 5, ContentProgressInput{ContentID: a.ID, Progress: intPtr(100), TimeSpent: 30})
	require.NoError(t, err)
	assert.Equal(t, 50, res.SectionCompletion)
	require.Len(t, res.NewAchievements, 1)
	assert.Equal(t, util.AchievementFirstContent, res.NewAchievements[0].ID)

	res, err = e.progress.UpdateContentProgress(ctx, 5, ContentProgressInput{ContentID: b.ID, Progress: intPtr(20), Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 100, res.SectionCompletion)
	// 模块三个小节中只访问过一个
	assert.Equal(t, 100, res.ModuleCompletion)
	assert.Equal(t, 100, res.Progress.OverallCompletion)

	var ids []string
	for _, ach := range res.NewAchievements {
		ids = append(ids, ach.ID)
	}
	assert.Equal(t, []string{"section-complete:spirituality:hesychasm"}, ids)
}

func TestContentProgressNeverDecreases(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.addContent(t, "nature", "flora-fauna", 1)

	_, err := e.progress.UpdateContentProgress(ctx, 2, ContentProgressInput{ContentID: a.ID, Progress: intPtr(80), TimeSpent: 10})
	require.NoError(t, err)
	res, err := e.progress.UpdateContentProgress(ctx, 2, ContentProgressInput{ContentID: a.ID, Progress: intPtr(30), TimeSpent: 15})
	require.NoError(t, err)

	cp := res.Progress.Content(a.ID)
	require.NotNil(t, cp)
	assert.Equal(t, 80, cp.Progress)
	assert.Equal(t, 25, cp.TimeSpent)
	assert.False(t, cp.Completed)
	assert.Len(t, res.Progress.ContentProgress, 1)
	assert.Len(t, res.Progress.Modules, 1)
	assert.Len(t, res.Progress.Module("nature").Sections, 1)
}

func TestProgressWriteSurvivesRecommendationFailure(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.addContent(t, "history", "ottoman-period", 1)

	e.recommender.Catalog = &fakeCatalog{err: errors.New("catalog offline")}

	res, err := e.progress.UpdateContentProgress(ctx, 9, ContentProgressInput{ContentID: a.ID, Progress: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, 100, res.SectionCompletion)

	stored, err := e.progressRepo.FindByUserID(9)
	require.NoError(t, err)
	assert.True(t, stored.Content(a.ID).Completed)

	lp, err := e.pathRepo.FindByUserID(9)
	require.NoError(t, err)
	assert.Equal(t, "ottoman-period", lp.CurrentSection)
	assert.Empty(t, lp.RecommendedContent)
}

func TestRecordSectionAccess(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.progress.RecordSectionAccess(ctx, 1, "", "")
	_, ok := util.IsValidationError(err)
	assert.True(t, ok)

	_, err = e.progress.RecordSectionAccess(ctx, 1, "atlantis", "harbour")
	assert.ErrorIs(t, err, util.ErrUnknownModule)

	_, err = e.progress.RecordSectionAccess(ctx, 1, "art", "hesychasm")
	assert.ErrorIs(t, err, util.ErrUnknownSection)

	res, err := e.progress.RecordSectionAccess(ctx, 1, "art", "architecture")
	require.NoError(t, err)
	sec := res.Progress.Section("art", "architecture")
	require.NotNil(t, sec)
	assert.Equal(t, fixedNow, sec.LastAccessed.UTC())

	// 重复访问不会产生重复小节
	res, err = e.progress.RecordSectionAccess(ctx, 1, "art", "architecture")
	require.NoError(t, err)
	assert.Len(t, res.Progress.Module("art").Sections, 1)

	lp, err := e.paths.GetLearningPath(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "art", lp.CurrentModule)
	assert.Equal(t, "architecture", lp.CurrentSection)
}

func TestGetModuleProgressListsAllSections(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.progress.RecordSectionAccess(ctx, 1, "monasteries", "daily-life")
	require.NoError(t, err)

	view, err := e.progress.GetModuleProgress(ctx, 1, "monasteries")
	require.NoError(t, err)
	require.Len(t, view.Sections, 3)
	assert.Equal(t, "ruling-monasteries", view.Sections[0].SectionID)
	assert.Nil(t, view.Sections[0].LastAccessed)
	assert.NotNil(t, view.Sections[2].LastAccessed)

	_, err = e.progress.GetModuleProgress(ctx, 1, "atlantis")
	assert.ErrorIs(t, err, util.ErrUnknownModule)
}

func TestGetNextSteps(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.addContent(t, "history", "byzantine-origins", 1)
	b := e.addContent(t, "history", "byzantine-origins", 2)
	quiz := e.addQuiz(t, "history", "byzantine-origins", 1)

	_, err := e.progress.UpdateContentProgress(ctx, 4, ContentProgressInput{ContentID: a.ID, Progress: intPtr(100)})
	require.NoError(t, err)

	steps, err := e.progress.GetNextSteps(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "history", steps.CurrentModule)
	assert.Equal(t, "byzantine-origins", steps.CurrentSection)
	assert.Equal(t, 25, steps.SectionCompletion)
	require.Len(t, steps.IncompleteContent, 1)
	assert.Equal(t, b.ID, steps.IncompleteContent[0].ID)
	require.NotNil(t, steps.PendingQuiz)
	assert.Equal(t, quiz.ID, steps.PendingQuiz.ID)
	require.NotNil(t, steps.NextSection)
	assert.Equal(t, "ottoman-period", steps.NextSection.SectionID)
}

func TestResetProgress(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.addContent(t, "art", "manuscripts", 1)

	_, err := e.progress.UpdateContentProgress(ctx, 6, ContentProgressInput{ContentID: a.ID, Progress: intPtr(100)})
	require.NoError(t, err)

	fresh, err := e.progress.ResetProgress(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, fresh.ContentProgress)

	stored, err := e.progressRepo.FindByUserID(6)
	require.NoError(t, err)
	assert.Empty(t, stored.ContentProgress)
	assert.Empty(t, stored.Achievements)
	assert.Equal(t, 0, stored.OverallCompletion)
	assert.Equal(t, 0, stored.Version)

	lp, err := e.pathRepo.FindByUserID(6)
	require.NoError(t, err)
	assert.Equal(t, "history", lp.CurrentModule)
	assert.Equal(t, "byzantine-origins", lp.CurrentSection)
	assert.Empty(t, lp.AdaptiveSuggestions)

	events, err := e.activityRepo.ListByUser(6, model.EventProgressReset, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
