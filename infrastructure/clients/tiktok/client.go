package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

const (
	authHost = "https://www.tiktok.com"
	apiHost  = "https://open.tiktokapis.com"
)

var ttScopes = []string{"user.info.basic", "video.publish", "video.upload"}

// Client implements the TikTok OAuth surface against the v2 open API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

type Config struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
}

func NewClient(config *Config) repository.IPlatformClient {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Platform() string { return model.PlatformTikTok }

func (c *Client) AuthCodeURL(state string) string {
	u, _ := url.Parse(authHost + "/v2/auth/authorize/")
	q := u.Query()
	q.Set("client_key", c.config.ClientKey)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(ttScopes, ","))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) Exchange(ctx context.Context, code string) (*repository.ExchangedToken, error) {
	form := url.Values{}
	form.Set("client_key", c.config.ClientKey)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.config.RedirectURI)

	token, err := c.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("tiktok code exchange failed: %w", err)
	}

	out := &repository.ExchangedToken{
		RefreshedToken: repository.RefreshedToken{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    expiryFrom(token.ExpiresIn),
		},
		Scopes: token.Scope,
	}
	if token.OpenID != "" {
		openID := token.OpenID
		out.Identity.Username = &openID
	}
	return out, nil
}

func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*repository.RefreshedToken, error) {
	form := url.Values{}
	form.Set("client_key", c.config.ClientKey)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	token, err := c.postToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return &repository.RefreshedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiryFrom(token.ExpiresIn),
	}, nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiHost+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		logger.GetLogger().WithField("body", string(body)).Warn("tiktok rejected the grant")
		return nil, repository.ErrRefreshRejected
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("tiktok api status %d: %s", resp.StatusCode, string(body))
	}
	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	// TikTok reports grant errors with a 200 and an error field in the body.
	if token.Error != "" {
		if token.Error == "invalid_grant" || token.Error == "invalid_request" {
			logger.GetLogger().WithField("error", token.ErrorDescription).Warn("tiktok rejected the grant")
			return nil, repository.ErrRefreshRejected
		}
		return nil, fmt.Errorf("tiktok token error %s: %s", token.Error, token.ErrorDescription)
	}
	return &token, nil
}

func expiryFrom(expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	return &t
}
