package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/types"
)

func strPtr(s string) *string { return &s }

func TestJobLifecycle(t *testing.T) {
	jobs := newMemJobs()
	svc := NewJobService(jobs, &memApplications{})
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, types.JobInput{Title: "x", Description: "y", Company: "z"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Create(ctx, bob, types.JobInput{Title: "x"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	job, err := svc.Create(ctx, bob, types.JobInput{
		Title:       "Go Developer",
		Description: "Build services",
		Company:     "Acme",
		Skills:      []string{"Go", " go ", "", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusOpen, job.Status)
	assert.Equal(t, []string{"Go", "SQL"}, job.Skills)
	assert.Equal(t, bob.ID, job.RecruiterID)

	_, err = svc.Update(ctx, carol, job.ID, types.JobUpdate{Title: strPtr("Mine now")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "You can only update your own jobs.", apperr.MessageOf(err))

	closed := types.JobStatus("closed")
	updated, err := svc.Update(ctx, bob, job.ID, types.JobUpdate{Title: strPtr(""), Location: strPtr("Remote"), Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, "Go Developer", updated.Title)
	assert.Equal(t, "Remote", updated.Location)
	assert.Equal(t, types.JobStatusClosed, updated.Status)

	bad := types.JobStatus("ARCHIVED")
	_, err = svc.Update(ctx, bob, job.ID, types.JobUpdate{Status: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, admin, job.ID))
	err = svc.Delete(ctx, bob, job.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListForRecruiter(t *testing.T) {
	jobs := newMemJobs(
		types.Job{ID: 1, RecruiterID: bob.ID},
		types.Job{ID: 2, RecruiterID: carol.ID},
	)
	svc := NewJobService(jobs, &memApplications{})
	ctx := context.Background()

	own, err := svc.ListForRecruiter(ctx, bob)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 1, own[0].ID)

	all, err := svc.ListForRecruiter(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListForRecruiter(ctx, alice)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
