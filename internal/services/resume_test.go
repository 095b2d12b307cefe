package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type memResumes struct {
	resumes map[int]types.Resume
	next    int
}

func (m *memResumes) Get(ctx context.Context, id int) (types.Resume, error) {
	r, ok := m.resumes[id]
	if !ok {
		return types.Resume{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memResumes) ListByUser(ctx context.Context, userID int) ([]types.Resume, error) {
	var out []types.Resume
	for _, r := range m.resumes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResumes) Create(ctx context.Context, resume types.Resume) (types.Resume, error) {
	m.next++
	resume.ID = m.next
	m.resumes[resume.ID] = resume
	return resume, nil
}

func (m *memResumes) Update(ctx context.Context, resume types.Resume) (types.Resume, error) {
	m.resumes[resume.ID] = resume
	return resume, nil
}

func (m *memResumes) Delete(ctx context.Context, id int) error {
	delete(m.resumes, id)
	return nil
}

type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) Render(ctx context.Context, resume types.Resume) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, apperr.Render(s.err)
	}
	return []byte("%PDF"), nil
}

func TestResumeOwnership(t *testing.T) {
	repo := &memResumes{resumes: map[int]types.Resume{}}
	renderer := &stubRenderer{}
	svc := NewResumeService(repo, renderer)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, ResumeInput{Title: "CV", Content: json.RawMessage(`[]`)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	resume, err := svc.Create(ctx, alice, ResumeInput{Title: "CV", Content: json.RawMessage(`{"profile":{"name":"Alice"}}`)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, dave, resume.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Admins do not bypass resume ownership.
	_, _, err = svc.ExportPDF(ctx, admin, resume.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Zero(t, renderer.calls)

	_, _, err = svc.ExportPDF(ctx, alice, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	got, data, err := svc.ExportPDF(ctx, alice, resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "CV", got.Title)
	assert.Equal(t, []byte("%PDF"), data)

	renderer.err = errors.New("chromium crashed")
	_, _, err = svc.ExportPDF(ctx, alice, resume.ID)
	assert.Equal(t, apperr.KindRender, apperr.KindOf(err))
}

func TestResumePartialUpdate(t *testing.T) {
	repo := &memResumes{resumes: map[int]types.Resume{}}
	svc := NewResumeService(repo, &stubRenderer{})
	ctx := context.Background()

	resume, err := svc.Create(ctx, alice, ResumeInput{Title: "CV", Content: json.RawMessage(`{"skills":[]}`)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, resume.ID, types.ResumeUpdate{Title: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.JSONEq(t, `{"skills":[]}`, string(updated.Content))

	_, err = svc.Update(ctx, alice, resume.ID, types.ResumeUpdate{Content: json.RawMessage(`"text"`)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, alice, resume.ID))
	_, err = svc.Get(ctx, alice, resume.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
