package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/jobportal/apiserver/config"
)

var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// GoogleProfile is the subset of the Google userinfo response the portal uses.
type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

// GoogleClient runs the authorization code flow against Google.
type GoogleClient struct {
	config *oauth2.Config
}

// NewGoogleClient returns nil when no client credentials are configured.
func NewGoogleClient(cfg config.GoogleConfig) *GoogleClient {
	if !cfg.Enabled() {
		return nil
	}
	return &GoogleClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthCodeURL builds the consent screen URL for state.
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's Google profile.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	if strings.TrimSpace(code) == "" {
		return GoogleProfile{}, errors.New("missing authorization code")
	}
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(g.config.TokenSource(ctx, token)))
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return GoogleProfile{}, errors.New("google profile is missing id or email")
	}

	name := info.Name
	if name == "" {
		name = strings.SplitN(info.Email, "@", 2)[0]
	}
	return GoogleProfile{ID: info.Id, Email: strings.ToLower(info.Email), Name: name}, nil
}

// NewState returns a random URL-safe OAuth state value.
func NewState() (string, error) {
	var buf [24]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
