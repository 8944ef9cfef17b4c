package routes_auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ---------- Discord API fetch ----------

type discordUserResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

type discordGuildResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiscordClient calls the Discord REST API on behalf of a logged-in user.
type DiscordClient struct {
	baseURL string
	client  *http.Client
}

func NewDiscordClient(baseURL string, client *http.Client) *DiscordClient {
	return &DiscordClient{baseURL: baseURL, client: client}
}

func (d *DiscordClient) get(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("discord returned status %d for %s", res.StatusCode, path)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// FetchUser returns the profile of the access token's owner.
func (d *DiscordClient) FetchUser(ctx context.Context, accessToken string) (*discordUserResponse, error) {
	var u discordUserResponse
	if err := d.get(ctx, accessToken, "/users/@me", &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("discord user response has no id")
	}
	return &u, nil
}

// IsGuildMember reports whether the token's owner belongs to guildID.
func (d *DiscordClient) IsGuildMember(ctx context.Context, accessToken, guildID string) (bool, error) {
	var guilds []discordGuildResponse
	if err := d.get(ctx, accessToken, "/users/@me/guilds", &guilds); err != nil {
		return false, err
	}
	for _, g := range guilds {
		if g.ID == guildID {
			return true, nil
		}
	}
	return false, nil
}
