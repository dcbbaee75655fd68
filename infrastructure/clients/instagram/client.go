package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
	"creator-hub/infrastructure/logger"
)

const (
	authHost  = "https://api.instagram.com"
	graphHost = "https://graph.instagram.com"
)

var igScopes = []string{"instagram_business_basic", "instagram_business_content_publish"}

// Client implements the Instagram Graph OAuth surface. Instagram hands out
// long-lived tokens (~60 days) that are refreshed through the
// refresh_access_token endpoint rather than a refresh grant; the stored
// access token doubles as the refresh input.
type Client struct {
	config     *Config
	httpClient *http.Client
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func NewClient(config *Config) repository.IPlatformClient {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Platform() string { return model.PlatformInstagram }

func (c *Client) AuthCodeURL(state string) string {
	u, _ := url.Parse(authHost + "/oauth/authorize")
	q := u.Query()
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(igScopes, ","))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

type shortLivedResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
}

type longLivedResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type profileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Exchange runs the two-step code exchange: code -> short-lived token ->
// long-lived token, then resolves the business account identity.
func (c *Client) Exchange(ctx context.Context, code string) (*repository.ExchangedToken, error) {
	form := url.Values{}
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.config.RedirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authHost+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var short shortLivedResponse
	if err := c.doJSON(req, &short); err != nil {
		return nil, fmt.Errorf("instagram code exchange failed: %w", err)
	}

	longLived, err := c.exchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}

	out := &repository.ExchangedToken{
		RefreshedToken: repository.RefreshedToken{
			AccessToken: longLived.AccessToken,
			ExpiresAt:   expiryFrom(longLived.ExpiresIn),
		},
		Scopes: strings.Join(igScopes, " "),
	}
	if profile, err := c.fetchProfile(ctx, longLived.AccessToken); err == nil {
		out.Identity.BusinessAccountID = &profile.ID
		out.Identity.Username = &profile.Username
	} else {
		logger.GetLogger().WithField("error", err).Warn("instagram profile lookup failed")
	}
	return out, nil
}

type exchangeParams struct {
	GrantType    string `url:"grant_type"`
	ClientSecret string `url:"client_secret"`
	AccessToken  string `url:"access_token"`
}

func (c *Client) exchangeLongLived(ctx context.Context, shortToken string) (*longLivedResponse, error) {
	params, err := query.Values(exchangeParams{
		GrantType:    "ig_exchange_token",
		ClientSecret: c.config.ClientSecret,
		AccessToken:  shortToken,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphHost+"/access_token?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out longLivedResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("instagram long-lived exchange failed: %w", err)
	}
	return &out, nil
}

type refreshParams struct {
	GrantType   string `url:"grant_type"`
	AccessToken string `url:"access_token"`
}

// RefreshAccessToken extends the long-lived token's 60-day window. The
// refreshToken argument is the current access token; Instagram has no
// separate refresh grant.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*repository.RefreshedToken, error) {
	params, err := query.Values(refreshParams{
		GrantType:   "ig_refresh_token",
		AccessToken: refreshToken,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphHost+"/refresh_access_token?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out longLivedResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &repository.RefreshedToken{
		AccessToken: out.AccessToken,
		ExpiresAt:   expiryFrom(out.ExpiresIn),
	}, nil
}

func (c *Client) fetchProfile(ctx context.Context, accessToken string) (*profileResponse, error) {
	u := fmt.Sprintf("%s/me?fields=id,username&access_token=%s", graphHost, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out profileResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON executes the request and decodes the body. A 400/401 means the grant
// itself was rejected; anything else non-2xx is treated as transient.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		logger.GetLogger().WithField("body", string(body)).Warn("instagram rejected the grant")
		return repository.ErrRefreshRejected
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("instagram api status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func expiryFrom(expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	return &t
}
