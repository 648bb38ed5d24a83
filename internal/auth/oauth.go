package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/sakif/guild-dashboard/internal/model"
)

// DiscordIdentity is what the dashboard keeps from a completed Discord login:
// the user profile plus the guilds the user belongs to.
type DiscordIdentity struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
	Guilds      []model.GuildMembership
}

// DiscordProvider wraps golang.org/x/oauth2 for the Discord Authorization Code flow
// and uses discordgo with the user's bearer token to read the profile and guild list.
//
// Scopes we request:
//   - "identify": id, username, avatar
//   - "email": the account email
//   - "guilds": the guild list with per-guild owner flag and permission bits
type DiscordProvider struct {
	config *oauth2.Config
	client *http.Client
}

// discordGuildPageSize is the maximum page Discord returns for /users/@me/guilds.
const discordGuildPageSize = 200

// maxGuildPages bounds paging in case Discord keeps returning full pages.
const maxGuildPages = 25

// NewDiscordProvider creates a DiscordProvider with the given credentials.
// callbackURL must match a redirect registered on the Discord application.
func NewDiscordProvider(clientID, clientSecret, callbackURL string) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint:     endpoints.Discord,
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
// state must be echoed back by Discord and checked against the state cookie.
func (p *DiscordProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a token,
// then reads "/users/@me" and "/users/@me/guilds" with it.
func (p *DiscordProvider) Exchange(ctx context.Context, code string) (*DiscordIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	dg, err := discordgo.New("Bearer " + oauthToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("auth: creating discord client: %w", err)
	}
	dg.Client = p.client

	user, err := dg.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("auth: fetching discord user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth: discord returned a user without an id")
	}

	guilds, err := allGuilds(func(after string) ([]*discordgo.UserGuild, error) {
		return dg.UserGuilds(discordGuildPageSize, "", after, false, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, fmt.Errorf("auth: fetching discord guilds: %w", err)
	}

	return identityFromDiscord(user, guilds), nil
}

// allGuilds pages through /users/@me/guilds by guild id until a short page.
// Losing a page would silently drop memberships from the admin check.
func allGuilds(page func(after string) ([]*discordgo.UserGuild, error)) ([]*discordgo.UserGuild, error) {
	var all []*discordgo.UserGuild
	after := ""
	for range maxGuildPages {
		batch, err := page(after)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < discordGuildPageSize || batch[len(batch)-1] == nil {
			return all, nil
		}
		after = batch[len(batch)-1].ID
	}
	return all, nil
}

// identityFromDiscord maps discordgo types onto the dashboard's own.
func identityFromDiscord(user *discordgo.User, guilds []*discordgo.UserGuild) *DiscordIdentity {
	display := user.GlobalName
	if display == "" {
		display = user.Username
	}

	id := &DiscordIdentity{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: display,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL("128"),
		Guilds:      make([]model.GuildMembership, 0, len(guilds)),
	}
	for _, g := range guilds {
		if g == nil {
			continue
		}
		id.Guilds = append(id.Guilds, model.GuildMembership{
			GuildID:     g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			Owner:       g.Owner,
			Permissions: g.Permissions,
		})
	}
	return id
}
