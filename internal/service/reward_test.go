package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
	"github.com/innopoints/innopoints-api/internal/service"
)

func TestLeaveFeedbackIssuesOneReward(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 3, "What did you do?", "Would you come again?")
	app := f.approved(t, project, activity)

	_, _, err := f.reward.LeaveFeedback(f.ctx, student, app.ID, []string{"Tours", "Yes"})
	assert.ErrorIs(t, err, apperr.ErrState, "feedback is only collected while finalizing")

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.Email}, f.notes.recipients(domain.NotifyClaimInnopoints))

	_, _, err = f.reward.LeaveFeedback(f.ctx, student, app.ID, []string{"Tours"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, _, err = f.reward.LeaveFeedback(f.ctx, outsider, app.ID, []string{"Tours", "Yes"})
	assert.ErrorIs(t, err, apperr.ErrPermission)

	feedback, tx, err := f.reward.LeaveFeedback(f.ctx, student, app.ID, []string{"Tours", "Yes"})
	require.NoError(t, err)
	assert.Equal(t, app.ID, feedback.ApplicationID)
	assert.Equal(t, 300, tx.Change)
	require.NotNil(t, tx.FeedbackID)
	assert.Equal(t, app.ID, *tx.FeedbackID)
	assert.Nil(t, tx.StockChangeID)
	assert.Equal(t, 300, f.balance(t, student.Email))

	_, _, err = f.reward.LeaveFeedback(f.ctx, student, app.ID, []string{"Tours", "Yes"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 300, f.balance(t, student.Email))

	assert.Equal(t, []string{organizer.Email}, f.notes.recipients(domain.NotifyAllFeedbackIn))

	got, err := f.reward.Feedback(f.ctx, organizer, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tours", "Yes"}, got.Answers)
	_, err = f.reward.Feedback(f.ctx, outsider, app.ID)
	assert.ErrorIs(t, err, apperr.ErrPermission)
}

func TestZeroRewardIsStillRecorded(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 2)
	app := f.approved(t, project, activity)

	zero := 0
	_, err := f.application.EditApplication(f.ctx, organizer, app.ID, service.ApplicationPatch{ActualHours: &zero})
	require.NoError(t, err)
	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	_, tx, err := f.reward.LeaveFeedback(f.ctx, student, app.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tx.Change)

	txs, err := f.ledger.Transactions(f.ctx, student.Email)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tx.ID, txs[0].ID)
}

func TestAllFeedbackInWaitsForEveryApprovedVolunteer(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 1)
	app := f.approved(t, project, activity)

	_, err := f.lifecycle.AddModerator(f.ctx, organizer, project.ID, admin.Email)
	require.NoError(t, err)

	// a pending application never gets feedback and does not hold the project back
	_, err = f.application.Apply(f.ctx, outsider, activity.ID, "", "")
	require.NoError(t, err)

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	other, err := f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, outsider.Email, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, other.Status)

	_, _, err = f.reward.LeaveFeedback(f.ctx, student, app.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, f.notes.of(domain.NotifyAllFeedbackIn))

	_, tx, err := f.reward.LeaveFeedback(f.ctx, outsider, other.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*pointsPerHour, tx.Change)

	assert.ElementsMatch(t, []string{organizer.Email, admin.Email}, f.notes.recipients(domain.NotifyAllFeedbackIn))
}

func TestAddOtherVolunteer(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 1)
	f.approved(t, project, activity)

	_, err := f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, outsider.Email, 2)
	assert.ErrorIs(t, err, apperr.ErrState)

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	_, err = f.reward.AddOtherVolunteer(f.ctx, student, project.ID, outsider.Email, 2)
	assert.ErrorIs(t, err, apperr.ErrPermission)
	_, err = f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, outsider.Email, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, "ghost@innopolis.university", 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, outsider.Email, 2)
	require.NoError(t, err)
	_, err = f.reward.AddOtherVolunteer(f.ctx, organizer, project.ID, outsider.Email, 3)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLeaveFeedbackRequiresApproval(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 1)
	_, err := f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	app, err := f.application.Apply(f.ctx, student, activity.ID, "", "")
	require.NoError(t, err)
	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	_, _, err = f.reward.LeaveFeedback(f.ctx, student, app.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrState)
	assert.Equal(t, 0, f.balance(t, student.Email))
}

func TestRemindUnclaimed(t *testing.T) {
	f := newFixture(t)
	project, activity := f.project(t, 1)
	app := f.approved(t, project, activity)

	sent, err := f.reward.RemindUnclaimed(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "ongoing projects are not reminded")

	_, err = f.lifecycle.Finalize(f.ctx, organizer, project.ID)
	require.NoError(t, err)

	sent, err = f.reward.RemindUnclaimed(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	reminders := f.notes.of(domain.NotifyClaimInnopoints)
	require.Len(t, reminders, 2)
	assert.Equal(t, true, reminders[1].Payload["reminder"])

	_, _, err = f.reward.LeaveFeedback(f.ctx, student, app.ID, nil)
	require.NoError(t, err)

	sent, err = f.reward.RemindUnclaimed(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
