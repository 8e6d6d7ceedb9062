package service_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
	"github.com/innopoints/innopoints-api/internal/service"
)

func TestCreateProject(t *testing.T) {
	f := newFixture(t)

	project, err := f.lifecycle.CreateProject(f.ctx, organizer, domain.Project{Name: "Open Day"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDraft, project.LifetimeStage)
	assert.Equal(t, domain.ReviewPending, project.ReviewStatus)
	assert.Equal(t, []string{organizer.Email}, project.Moderators)

	all, err := f.store.ListActivities(f.ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Internal)
	assert.Equal(t, pointsPerHour, all[0].RewardRate)

	visible, err := f.activities.Activities(f.ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	_, err = f.lifecycle.CreateProject(f.ctx, organizer, domain.Project{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStageTransitionsAreMonotonic(t *testing.T) {
	f := newFixture(t)
	project, _ := f.project(t, 2)

	_, err := f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	assert.ErrorIs(t, err, apperr.ErrState, "draft -> finalizing")
	_, err = f.lifecycle.Close(f.ctx, organizer, project.ID)
	assert.ErrorIs(t, err, apperr.ErrState, "draft -> finished")

	_, err = f.lifecycle.Publish(f.ctx, outsider, project.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	p, err := f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageOngoing, p.LifetimeStage)
	assert.Equal(t, []string{admin.Email}, f.notes.recipients(domain.NotifyProjectReviewRequested))

	_, err = f.lifecycle.Publish(f.ctx, organizer, project.ID)
	assert.ErrorIs(t, err, apperr.ErrState, "ongoing -> ongoing")
	_, err = f.lifecycle.Close(f.ctx, organizer, project.ID)
	assert.ErrorIs(t, err, apperr.ErrState, "ongoing -> finished")

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	p, err = f.lifecycle.Close(f.ctx, admin, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFinished, p.LifetimeStage)

	_, err = f.lifecycle.Publish(f.ctx, organizer, project.ID)
	assert.ErrorIs(t, err, apperr.ErrState, "finished -> ongoing")

	stored, err := f.lifecycle.Project(f.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFinished, stored.LifetimeStage)
}

func TestReviewAndModerators(t *testing.T) {
	f := newFixture(t)
	project, _ := f.project(t, 2)

	_, err := f.lifecycle.Review(f.ctx, admin, project.ID, domain.ReviewApproved)
	assert.ErrorIs(t, err, apperr.ErrState)

	_, err = f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Review(f.ctx, organizer, project.ID, domain.ReviewApproved)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	p, err := f.lifecycle.Review(f.ctx, admin, project.ID, domain.ReviewApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, p.ReviewStatus)
	assert.Equal(t, domain.StageOngoing, p.LifetimeStage)
	assert.Equal(t, []string{organizer.Email}, f.notes.recipients(domain.NotifyProjectReviewStatusChanged))

	_, err = f.lifecycle.AddModerator(f.ctx, student, project.ID, outsider.Email)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	p, err = f.lifecycle.AddModerator(f.ctx, organizer, project.ID, outsider.Email)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{organizer.Email, outsider.Email}, p.Moderators)
	assert.Equal(t, []string{outsider.Email}, f.notes.recipients(domain.NotifyAddedAsModerator))

	_, err = f.lifecycle.AddModerator(f.ctx, organizer, project.ID, outsider.Email)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// moderators other than the creator may finalize
	_, err = f.lifecycle.Finalize(f.ctx, outsider, project.ID)
	require.NoError(t, err)
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)

	err := f.lifecycle.DeleteProject(f.ctx, student, project.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)

	require.NoError(t, f.lifecycle.DeleteProject(f.ctx, organizer, project.ID))
	_, err = f.store.FindProject(f.ctx, project.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.store.FindActivity(f.ctx, activity.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ongoing, _ := f.project(t, 2)
	_, err = f.lifecycle.Publish(f.ctx, organizer, ongoing.ID)
	require.NoError(t, err)
	err = f.lifecycle.DeleteProject(f.ctx, organizer, ongoing.ID)
	assert.ErrorIs(t, err, apperr.ErrState)
}

func TestActivityRewardModes(t *testing.T) {
	f := newFixture(t)
	project, _ := f.project(t, 2)

	_, err := f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: "Stage", FixedReward: true, WorkingHours: 3, RewardRate: 500})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: "Stage", WorkingHours: 3, RewardRate: 50})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	fixed, err := f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: "Stage", FixedReward: true, RewardRate: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, fixed.WorkingHours)

	_, err = f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: domain.OtherActivityName})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.activities.Create(f.ctx, student, project.ID, domain.Activity{Name: "Cleanup"})
	assert.ErrorIs(t, err, apperr.ErrPermission)
}

func TestActivityEditsFrozenAfterOngoing(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	f.approved(t, project, activity)

	_, err := f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	hours := 5
	_, err = f.activities.Patch(f.ctx, organizer, activity.ID, service.ActivityPatch{WorkingHours: &hours})
	assert.ErrorIs(t, err, apperr.ErrState)
	_, err = f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: "Late"})
	assert.ErrorIs(t, err, apperr.ErrState)
	err = f.activities.Delete(f.ctx, organizer, activity.ID)
	assert.ErrorIs(t, err, apperr.ErrState)
}

func TestPatchWorkingHoursSyncsApplications(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	app := f.approved(t, project, activity)

	_, err := f.store.CreateAccount(f.ctx, domain.Account{Email: "r.rejected@innopolis.university"})
	require.NoError(t, err)
	rejectedApp, err := f.application.Apply(f.ctx, domain.Account{Email: "r.rejected@innopolis.university"}, activity.ID, "", "")
	require.NoError(t, err)
	status := domain.ApplicationRejected
	_, err = f.application.EditApplication(f.ctx, organizer, rejectedApp.ID, service.ApplicationPatch{Status: &status})
	require.NoError(t, err)

	hours := 6
	patched, err := f.activities.Patch(f.ctx, organizer, activity.ID, service.ActivityPatch{WorkingHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, 6, patched.WorkingHours)

	got, err := f.application.Application(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.ActualHours)

	got, err = f.application.Application(f.ctx, rejectedApp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ActualHours)

	spots, err := f.activities.VacantSpots(f.ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, spots)

	required := 3
	_, err = f.activities.Patch(f.ctx, organizer, activity.ID, service.ActivityPatch{PeopleRequired: &required})
	require.NoError(t, err)
	spots, err = f.activities.VacantSpots(f.ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, spots)
}

func TestInternalActivityIsHidden(t *testing.T) {
	f := newFixture(t)
	project, _ := f.project(t, 2)

	all, err := f.store.ListActivities(f.ctx, project.ID)
	require.NoError(t, err)
	var internal domain.Activity
	for _, a := range all {
		if a.Internal {
			internal = a
		}
	}
	require.NotZero(t, internal.ID)

	name := "Renamed"
	_, err = f.activities.Patch(f.ctx, organizer, internal.ID, service.ActivityPatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrPermission)
	assert.ErrorIs(t, f.activities.Delete(f.ctx, organizer, internal.ID), apperr.ErrPermission)

	_, err = f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	_, err = f.application.Apply(f.ctx, student, internal.ID, "", "")
	assert.ErrorIs(t, err, apperr.ErrPermission)
}

func TestDeleteActivityNotifiesApplicants(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	f.approved(t, project, activity)

	require.NoError(t, f.activities.Delete(f.ctx, organizer, activity.ID))
	assert.Equal(t, []string{student.Email}, f.notes.recipients(domain.NotifyService))

	_, err := f.application.Apply(f.ctx, student, activity.ID, "", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApplyRequiresOngoing(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)

	_, err := f.application.Apply(f.ctx, student, activity.ID, "", "")
	assert.ErrorIs(t, err, apperr.ErrState)

	_, err = f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	app, err := f.application.Apply(f.ctx, student, activity.ID, "I know the campus", "@sam")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, app.Status)
	assert.Equal(t, 2, app.ActualHours)

	_, err = f.application.Apply(f.ctx, student, activity.ID, "", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestConcurrentApplicationsKeepOnePerApplicant(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	_, err := f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		created, conflicted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.application.Apply(f.ctx, student, activity.ID, "", "")

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if apperr.KindOf(err) == apperr.KindConflict {
				conflicted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 7, conflicted)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	app := f.approved(t, project, activity)

	_, err := f.application.SubmitReport(f.ctx, organizer, app.ID, 4, "Punctual")
	require.NoError(t, err)

	require.NoError(t, f.application.Withdraw(f.ctx, student, activity.ID))
	_, err = f.application.Application(f.ctx, app.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.application.Withdraw(f.ctx, student, activity.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.application.Apply(f.ctx, student, activity.ID, "", "")
	require.NoError(t, err)
	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	err = f.application.Withdraw(f.ctx, student, activity.ID)
	assert.ErrorIs(t, err, apperr.ErrState)
}

func TestEditApplicationRules(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	app := f.approved(t, project, activity)
	assert.Equal(t, []string{student.Email}, f.notes.recipients(domain.NotifyApplicationStatusChanged))

	rejected := domain.ApplicationRejected
	_, err := f.application.EditApplication(f.ctx, student, app.ID, service.ApplicationPatch{Status: &rejected})
	assert.ErrorIs(t, err, apperr.ErrPermission)

	hours := 4
	edited, err := f.application.EditApplication(f.ctx, organizer, app.ID, service.ApplicationPatch{ActualHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, 4, edited.ActualHours)
	assert.Len(t, f.notes.of(domain.NotifyApplicationStatusChanged), 1)

	fixed, err := f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{Name: "Stage", FixedReward: true, RewardRate: 500})
	require.NoError(t, err)
	fixedApp, err := f.application.Apply(f.ctx, student, fixed.ID, "", "")
	require.NoError(t, err)
	_, err = f.application.EditApplication(f.ctx, organizer, fixedApp.ID, service.ApplicationPatch{ActualHours: &hours})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	_, err = f.application.EditApplication(f.ctx, organizer, app.ID, service.ApplicationPatch{Status: &rejected})
	assert.ErrorIs(t, err, apperr.ErrState)
}

func TestSubmitReport(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	app := f.approved(t, project, activity)

	_, err := f.application.SubmitReport(f.ctx, organizer, app.ID, 0, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.application.SubmitReport(f.ctx, student, app.ID, 5, "")
	assert.ErrorIs(t, err, apperr.ErrPermission)

	report, err := f.application.SubmitReport(f.ctx, organizer, app.ID, 5, "Great guide")
	require.NoError(t, err)
	assert.Equal(t, organizer.Email, report.ReporterEmail)

	_, err = f.application.SubmitReport(f.ctx, organizer, app.ID, 3, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.application.SubmitReport(f.ctx, admin, app.ID, 3, "")
	require.NoError(t, err)
}
