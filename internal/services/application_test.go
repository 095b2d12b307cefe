package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type memFiles struct {
	puts    int
	objects map[string][]byte
}

func (m *memFiles) PutResume(ctx context.Context, userID int, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.puts++
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	key := fmt.Sprintf("resumes/%d/%d.pdf", userID, m.puts)
	m.objects[key] = data
	return key, nil
}

func (m *memFiles) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memFiles) keys() []string {
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}

// racingApplications reports no prior application but loses the insert to
// the unique constraint, as when two applies run concurrently.
type racingApplications struct {
	memApplications
	err error
}

func (r *racingApplications) Exists(ctx context.Context, userID, jobID int) (bool, error) {
	return false, nil
}

func (r *racingApplications) Create(ctx context.Context, app types.Application) (types.Application, error) {
	return types.Application{}, r.err
}

func newApplicationFixture() (*ApplicationService, *memApplications, *recordedEvents) {
	jobs := newMemJobs(
		types.Job{ID: 10, Title: "Backend", RecruiterID: bob.ID, Status: types.JobStatusOpen},
		types.Job{ID: 11, Title: "Closed", RecruiterID: bob.ID, Status: types.JobStatusClosed},
	)
	apps := &memApplications{}
	rec := &recordedEvents{}
	return NewApplicationService(apps, jobs, nil, rec), apps, rec
}

func TestApplyTwiceIsConflict(t *testing.T) {
	svc, apps, rec := newApplicationFixture()
	ctx := context.Background()

	app, err := svc.Apply(ctx, alice, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationApplied, app.Status)

	_, err = svc.Apply(ctx, alice, 10, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "You have already applied for this job.", apperr.MessageOf(err))

	assert.Len(t, apps.apps, 1)
	assert.Equal(t, []events.Name{events.JobApplied}, rec.names())
}

func TestApplyRules(t *testing.T) {
	svc, _, _ := newApplicationFixture()
	ctx := context.Background()

	_, err := svc.Apply(ctx, bob, 10, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Apply(ctx, alice, 99, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Apply(ctx, alice, 11, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Apply(ctx, alice, 10, []byte("%PDF-1.4"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "uploads disabled")
}

func TestApplyRejectsNonPDFUpload(t *testing.T) {
	jobs := newMemJobs(types.Job{ID: 10, RecruiterID: bob.ID, Status: types.JobStatusOpen})
	files := &memFiles{}
	svc := NewApplicationService(&memApplications{}, jobs, files, &recordedEvents{})

	_, err := svc.Apply(context.Background(), alice, 10, []byte("PK\x03\x04 not a pdf"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, files.puts)
}

func TestApplyStoresResume(t *testing.T) {
	jobs := newMemJobs(types.Job{ID: 10, RecruiterID: bob.ID, Status: types.JobStatusOpen})
	files := &memFiles{}
	svc := NewApplicationService(&memApplications{}, jobs, files, &recordedEvents{})

	app, err := svc.Apply(context.Background(), alice, 10, minimalPDF())
	require.NoError(t, err)
	assert.Equal(t, []string{app.ResumeFile}, files.keys())
}

func TestApplyRemovesResumeWhenInsertFails(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"lost unique race", store.ErrConflict, apperr.KindConflict},
		{"database error", errors.New("connection reset"), apperr.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jobs := newMemJobs(types.Job{ID: 10, RecruiterID: bob.ID, Status: types.JobStatusOpen})
			files := &memFiles{}
			rec := &recordedEvents{}
			svc := NewApplicationService(&racingApplications{err: tc.err}, jobs, files, rec)

			_, err := svc.Apply(context.Background(), alice, 10, minimalPDF())
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			assert.Equal(t, 1, files.puts)
			assert.Empty(t, files.keys())
			assert.Empty(t, rec.names())
		})
	}
}

func TestValidatePDF(t *testing.T) {
	assert.Error(t, ValidatePDF(bytes.Repeat([]byte("a"), MaxResumeUploadBytes+1)))
	assert.Error(t, ValidatePDF([]byte("hello")))
	assert.Error(t, ValidatePDF([]byte("%PDF-1.4\ngarbage")))
	assert.NoError(t, ValidatePDF(minimalPDF()))
}

// minimalPDF builds a one-page document with a correct xref table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestUpdateStatus(t *testing.T) {
	svc, _, rec := newApplicationFixture()
	ctx := context.Background()

	app, err := svc.Apply(ctx, alice, 10, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, bob, app.ID, "bogus")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateStatus(ctx, carol, app.ID, "REVIEWED")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := svc.UpdateStatus(ctx, bob, app.ID, "selected")
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationSelected, updated.Status)

	// Any status may follow any other.
	updated, err = svc.UpdateStatus(ctx, admin, app.ID, "APPLIED")
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationApplied, updated.Status)

	assert.Equal(t, []events.Name{events.JobApplied, events.ApplicationStatusChanged, events.ApplicationStatusChanged}, rec.names())
	last := rec.events[len(rec.events)-1].(events.ApplicationStatusChangedEvent)
	assert.Equal(t, "Backend", last.JobTitle)
	assert.Equal(t, alice.ID, last.UserID)
}

func TestListForJobOwnership(t *testing.T) {
	svc, _, _ := newApplicationFixture()
	ctx := context.Background()
	_, err := svc.Apply(ctx, alice, 10, nil)
	require.NoError(t, err)

	apps, err := svc.ListForJob(ctx, bob, 10)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = svc.ListForJob(ctx, carol, 10)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
