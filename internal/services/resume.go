package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/internal/authz"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// ResumeRepository defines persistence operations for resumes.
type ResumeRepository interface {
	Get(ctx context.Context, id int) (types.Resume, error)
	ListByUser(ctx context.Context, userID int) ([]types.Resume, error)
	Create(ctx context.Context, resume types.Resume) (types.Resume, error)
	Update(ctx context.Context, resume types.Resume) (types.Resume, error)
	Delete(ctx context.Context, id int) error
}

// PDFRenderer prints a resume. *pdf.Renderer satisfies it.
type PDFRenderer interface {
	Render(ctx context.Context, resume types.Resume) ([]byte, error)
}

// ResumeInput is the payload for a new resume.
type ResumeInput struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// ResumeService encapsulates resume use-cases. Resumes are private to their owner.
type ResumeService struct {
	repo     ResumeRepository
	renderer PDFRenderer
}

func NewResumeService(repo ResumeRepository, renderer PDFRenderer) *ResumeService {
	return &ResumeService{repo: repo, renderer: renderer}
}

func (s *ResumeService) List(ctx context.Context, user types.User) ([]types.Resume, error) {
	resumes, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if resumes == nil {
		resumes = []types.Resume{}
	}
	return resumes, nil
}

func (s *ResumeService) Get(ctx context.Context, user types.User, id int) (types.Resume, error) {
	return s.load(ctx, user, id, authz.ActionRead)
}

func (s *ResumeService) Create(ctx context.Context, user types.User, in ResumeInput) (types.Resume, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || !isJSONObject(in.Content) {
		return types.Resume{}, apperr.Validation("Title and content are required.")
	}
	return s.repo.Create(ctx, types.Resume{
		UserID:  user.ID,
		Title:   in.Title,
		Content: in.Content,
	})
}

// Update replaces the title and/or content of an owned resume.
func (s *ResumeService) Update(ctx context.Context, user types.User, id int, update types.ResumeUpdate) (types.Resume, error) {
	resume, err := s.load(ctx, user, id, authz.ActionUpdate)
	if err != nil {
		return types.Resume{}, err
	}
	if update.Title != nil {
		if title := strings.TrimSpace(*update.Title); title != "" {
			resume.Title = title
		}
	}
	if len(update.Content) > 0 && !bytes.Equal(bytes.TrimSpace(update.Content), []byte("null")) {
		if !isJSONObject(update.Content) {
			return types.Resume{}, apperr.Validation("Content must be an object.")
		}
		resume.Content = update.Content
	}
	updated, err := s.repo.Update(ctx, resume)
	if err != nil {
		return types.Resume{}, resumeNotFound(err)
	}
	return updated, nil
}

func (s *ResumeService) Delete(ctx context.Context, user types.User, id int) error {
	if _, err := s.load(ctx, user, id, authz.ActionDelete); err != nil {
		return err
	}
	return resumeNotFound(s.repo.Delete(ctx, id))
}

// ExportPDF renders an owned resume to PDF bytes.
func (s *ResumeService) ExportPDF(ctx context.Context, user types.User, id int) (types.Resume, []byte, error) {
	resume, err := s.load(ctx, user, id, authz.ActionExport)
	if err != nil {
		return types.Resume{}, nil, err
	}
	data, err := s.renderer.Render(ctx, resume)
	if err != nil {
		return types.Resume{}, nil, err
	}
	return resume, data, nil
}

func (s *ResumeService) load(ctx context.Context, user types.User, id int, action authz.Action) (types.Resume, error) {
	resume, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Resume{}, resumeNotFound(err)
	}
	if err := authz.Authorize(user, authz.ResourceResume, action, resume.UserID); err != nil {
		return types.Resume{}, err
	}
	return resume, nil
}

func resumeNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Resume not found.")
	}
	return err
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
