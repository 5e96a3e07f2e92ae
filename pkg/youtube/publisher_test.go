package youtube

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"commentary-ai/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOauthClientFromEnv(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "id")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "secret")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "refresh")

	p := NewPublisher(config.PublishConfig{})
	client, err := p.oauthClient(context.Background())
	require.NoError(t, err)

	// The service constructor takes an *http.Client; the oauth transport
	// must sit inside one, not be handed over bare.
	var _ *http.Client = client
	_, ok := client.Transport.(*oauth2.Transport)
	assert.True(t, ok, "transport = %T", client.Transport)
}

func TestOauthClientFromFiles(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "")

	dir := t.TempDir()
	credentialsPath := filepath.Join(dir, "credentials.json")
	tokenPath := filepath.Join(dir, "token.json")

	credentials := `{"installed":{"client_id":"file-id","client_secret":"file-secret",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["urn:ietf:wg:oauth:2.0:oob"]}}`
	require.NoError(t, os.WriteFile(credentialsPath, []byte(credentials), 0o600))
	require.NoError(t, os.WriteFile(tokenPath, []byte(`{"refresh_token":"file-refresh"}`), 0o600))

	p := NewPublisher(config.PublishConfig{
		CredentialsFile: credentialsPath,
		TokenFile:       tokenPath,
	})

	conf, err := p.oauthConfig()
	require.NoError(t, err)
	assert.Equal(t, "file-id", conf.ClientID)

	token, err := p.oauthToken()
	require.NoError(t, err)
	assert.Equal(t, "file-refresh", token.RefreshToken)

	client, err := p.oauthClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client.Transport)
}

func TestOauthClientMissingCredentials(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "")

	p := NewPublisher(config.PublishConfig{})
	_, err := p.oauthClient(context.Background())
	assert.Error(t, err)
}

func TestOauthTokenBadFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(tokenPath, []byte("not json"), 0o600))

	p := NewPublisher(config.PublishConfig{TokenFile: tokenPath})
	_, err := p.oauthToken()
	assert.Error(t, err)
}
