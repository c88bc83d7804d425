package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type githubOAuth struct {
	config *oauth2.Config
}

// GitHubUser is the subset of the GitHub user record the portal needs.
type GitHubUser struct {
	Login     string `json:"login"`
	ID        int    `json:"id"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// EnableGitHub turns on the GitHub OAuth login flow. Without it the
// portal only offers password login.
func (m *Manager) EnableGitHub(clientID, clientSecret, redirectURL string) {
	m.github = &githubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// GitHubEnabled reports whether the OAuth flow is configured.
func (m *Manager) GitHubEnabled() bool {
	return m.github != nil
}

// GitHubLoginURL builds the authorization URL for the given CSRF state.
func (m *Manager) GitHubLoginURL(state string) string {
	if m.github == nil {
		return ""
	}
	return m.github.config.AuthCodeURL(state)
}

// CompleteGitHub exchanges the callback code and fetches the user.
func (m *Manager) CompleteGitHub(ctx context.Context, code string) (*GitHubUser, error) {
	if m.github == nil {
		return nil, fmt.Errorf("github login is not configured")
	}

	token, err := m.github.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return fetchGitHubUser(ctx, token.AccessToken)
}

func fetchGitHubUser(ctx context.Context, accessToken string) (*GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.github.com/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned status %d", resp.StatusCode)
	}

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &user, nil
}
