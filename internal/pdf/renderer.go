package pdf

import (
	"context"
	"log/slog"

	"github.com/jobportal/apiserver/internal/apperr"
	"github.com/jobportal/apiserver/types"
)

// Renderer turns resumes into PDF bytes. Instances are never shared between
// calls.
type Renderer struct {
	engine Engine
	logger *slog.Logger
}

func NewRenderer(engine Engine, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{engine: engine, logger: logger}
}

// Render prints resume. Every failure is reported as a render error and the
// engine instance is released on every path.
func (r *Renderer) Render(ctx context.Context, resume types.Resume) ([]byte, error) {
	html, err := RenderHTML(resume)
	if err != nil {
		return nil, apperr.Render(err)
	}

	instance, err := r.engine.Start(ctx)
	if err != nil {
		r.logger.Error("pdf engine failed to start", "resume_id", resume.ID, "error", err)
		return nil, apperr.Render(err)
	}
	defer func() {
		if err := instance.Close(); err != nil {
			r.logger.Warn("pdf engine failed to close", "resume_id", resume.ID, "error", err)
		}
	}()

	data, err := instance.PrintPDF(ctx, html)
	if err != nil {
		r.logger.Error("pdf generation failed", "resume_id", resume.ID, "error", err)
		return nil, apperr.Render(err)
	}
	return data, nil
}
