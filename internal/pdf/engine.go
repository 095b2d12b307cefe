package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/jobportal/apiserver/config"
)

// Engine starts rendering instances. Every instance is used for exactly one
// document and must be closed by the caller.
type Engine interface {
	Start(ctx context.Context) (Instance, error)
}

// Instance is one running browser able to print HTML to PDF.
type Instance interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// PlaywrightEngine launches a fresh headless Chromium per instance.
type PlaywrightEngine struct {
	timeout time.Duration
	args    []string
}

func NewPlaywrightEngine(cfg config.PDFConfig) *PlaywrightEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	args := cfg.ChromiumArgs
	if len(args) == 0 {
		args = []string{"--no-sandbox", "--disable-setuid-sandbox"}
	}
	return &PlaywrightEngine{timeout: timeout, args: args}
}

// Start runs the playwright driver and launches Chromium.
func (e *PlaywrightEngine) Start(ctx context.Context) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     e.args,
		Timeout:  playwright.Float(float64(e.timeout.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	return &playwrightInstance{pw: pw, browser: browser, timeout: e.timeout}, nil
}

type playwrightInstance struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
}

func (i *playwrightInstance) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	page, err := i.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()
	page.SetDefaultTimeout(float64(i.timeout.Milliseconds()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("20px"),
			Right:  playwright.String("20px"),
			Bottom: playwright.String("20px"),
			Left:   playwright.String("20px"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return data, nil
}

// Close shuts the browser down and stops the driver process.
func (i *playwrightInstance) Close() error {
	return errors.Join(i.browser.Close(), i.pw.Stop())
}

// InstallBrowsers downloads the driver and Chromium for offline use.
func InstallBrowsers() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}
