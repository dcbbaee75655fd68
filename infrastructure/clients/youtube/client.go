package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"creator-hub/domain/model"
	"creator-hub/domain/repository"
)

// Client implements the YouTube OAuth surface: connect-flow exchange and
// access-token refresh against Google's token endpoint.
type Client struct {
	oauthConfig *oauth2.Config
}

// Config carries the Google OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewClient(config *Config) repository.IPlatformClient {
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes: []string{
				youtubeapi.YoutubeScope,
				youtubeapi.YoutubeUploadScope,
				youtubeapi.YoutubeForceSslScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (c *Client) Platform() string { return model.PlatformYouTube }

// AuthCodeURL builds the consent URL. Offline access with forced consent is
// required or Google omits the refresh token on repeat connects.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

func (c *Client) Exchange(ctx context.Context, code string) (*repository.ExchangedToken, error) {
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("youtube code exchange failed: %w", err)
	}
	out := &repository.ExchangedToken{
		RefreshedToken: tokenToRefreshed(token),
		Scopes:         scopesString(c.oauthConfig.Scopes),
	}
	if channelID, title, err := c.fetchChannelIdentity(ctx, token); err == nil {
		out.Identity.ChannelID = channelID
		out.Identity.Handle = title
	}
	return out, nil
}

// RefreshAccessToken redeems the refresh grant for a fresh access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*repository.RefreshedToken, error) {
	src := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			code := retrieveErr.Response.StatusCode
			if code == http.StatusBadRequest || code == http.StatusUnauthorized {
				return nil, repository.ErrRefreshRejected
			}
		}
		return nil, fmt.Errorf("youtube token refresh failed: %w", err)
	}
	refreshed := tokenToRefreshed(token)
	return &refreshed, nil
}

// fetchChannelIdentity resolves the connected channel so the UI can label the
// connection. Best-effort; the connect flow succeeds without it.
func (c *Client) fetchChannelIdentity(ctx context.Context, token *oauth2.Token) (*string, *string, error) {
	httpClient := c.oauthConfig.Client(ctx, token)
	service, err := youtubeapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, nil, err
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, nil, err
	}
	if len(response.Items) == 0 {
		return nil, nil, fmt.Errorf("no channel for authenticated user")
	}
	channel := response.Items[0]
	id := channel.Id
	title := channel.Snippet.Title
	return &id, &title, nil
}

func tokenToRefreshed(token *oauth2.Token) repository.RefreshedToken {
	out := repository.RefreshedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		out.ExpiresAt = &expiry
	}
	return out
}

func scopesString(scopes []string) string {
	return strings.Join(scopes, " ")
}
