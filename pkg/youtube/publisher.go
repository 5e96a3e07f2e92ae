package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"commentary-ai/config"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Publisher uploads finished artifacts via the YouTube Data API v3.
// Implements types.Publisher.
type Publisher struct {
	cfg config.PublishConfig
}

func NewPublisher(cfg config.PublishConfig) *Publisher {
	return &Publisher{cfg: cfg}
}

// Publish uploads the video and returns its watch URL.
func (p *Publisher) Publish(ctx context.Context, videoPath, title, description string) (string, error) {
	client, err := p.oauthClient(ctx)
	if err != nil {
		return "", errors.Wrap(errors.CodeProviderUnavailable, "youtube auth", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", errors.Wrap(errors.CodeProviderUnavailable, "create youtube service", err)
	}

	privacy := p.cfg.Privacy
	if privacy == "" {
		privacy = "private"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			CategoryId:  p.cfg.CategoryId,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacy,
		},
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return "", errors.Wrap(errors.CodeFileNotFound, "open video file", err)
	}
	defer f.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", errors.Wrap(errors.CodeProviderUnavailable, "youtube upload", err)
	}

	videoUrl := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.GetLogger().Info("youtube upload complete",
		zap.String("video_id", uploaded.Id),
		zap.String("url", videoUrl))
	return videoUrl, nil
}

// oauthClient builds the authenticated HTTP client. Credentials come from
// the configured credentials/token files when set, otherwise from the
// YOUTUBE_* environment variables.
func (p *Publisher) oauthClient(ctx context.Context) (*http.Client, error) {
	conf, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}
	token, err := p.oauthToken()
	if err != nil {
		return nil, err
	}
	return conf.Client(ctx, token), nil
}

func (p *Publisher) oauthConfig() (*oauth2.Config, error) {
	if p.cfg.CredentialsFile != "" {
		data, err := os.ReadFile(p.cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	}

	clientId := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	if clientId == "" || clientSecret == "" {
		return nil, fmt.Errorf("publish.credentials_file or YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET must be set")
	}
	return &oauth2.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}, nil
}

func (p *Publisher) oauthToken() (*oauth2.Token, error) {
	if p.cfg.TokenFile != "" {
		data, err := os.ReadFile(p.cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("read token file: %w", err)
		}
		token := &oauth2.Token{}
		if err = json.Unmarshal(data, token); err != nil {
			return nil, fmt.Errorf("parse token file: %w", err)
		}
		return token, nil
	}

	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if refreshToken == "" {
		return nil, fmt.Errorf("publish.token_file or YOUTUBE_REFRESH_TOKEN must be set")
	}
	return &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}, nil
}
