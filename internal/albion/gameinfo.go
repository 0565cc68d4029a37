// Package albion wraps the third-party Albion Online stat APIs: the official
// game-info API, MurderLedger, and the AlbionBB battle boards.
package albion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/pkg/client"
	"go.uber.org/zap"
)

var ErrPlayerNotFound = errors.New("no player matches that character name")

// SearchPlayer is one hit from the game-info search endpoint.
type SearchPlayer struct {
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	GuildID   string `json:"GuildId"`
	GuildName string `json:"GuildName"`
}

// searchResponse is the game-info search envelope.
type searchResponse struct {
	Players []SearchPlayer `json:"players"`
}

// GameinfoClient talks to the official game-info API.
type GameinfoClient struct {
	client  *client.Client
	baseURL string
	logger  *zap.Logger
}

// NewGameinfo creates a GameinfoClient for the given base URL.
func NewGameinfo(client *client.Client, baseURL string, logger *zap.Logger) *GameinfoClient {
	return &GameinfoClient{
		client:  client,
		baseURL: baseURL,
		logger:  logger.Named("gameinfo"),
	}
}

// SearchPlayers returns the players matching the query.
func (c *GameinfoClient) SearchPlayers(ctx context.Context, query string) ([]SearchPlayer, error) {
	resp, err := c.client.NewRequest().
		Method(http.MethodGet).
		URL(c.baseURL+"/search").
		Query("q", query).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	defer resp.Body.Close()

	var result searchResponse
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode player search: %w", err)
	}

	return result.Players, nil
}

// FindPlayer returns the exact (case-insensitive) match for a character name.
func (c *GameinfoClient) FindPlayer(ctx context.Context, name string) (*SearchPlayer, error) {
	players, err := c.SearchPlayers(ctx, name)
	if err != nil {
		return nil, err
	}

	for i := range players {
		if strings.EqualFold(players[i].Name, name) {
			return &players[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, name)
}

// GuildMembers returns the member list of an Albion guild.
func (c *GameinfoClient) GuildMembers(ctx context.Context, guildID string) ([]SearchPlayer, error) {
	resp, err := c.client.NewRequest().
		Method(http.MethodGet).
		URL(c.baseURL + "/guilds/" + url.PathEscape(guildID) + "/members").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild members: %w", err)
	}
	defer resp.Body.Close()

	var members []SearchPlayer
	if err := decodeBody(resp.Body, &members); err != nil {
		return nil, fmt.Errorf("failed to decode guild members: %w", err)
	}

	return members, nil
}

// decodeBody reads and unmarshals a response body.
func decodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}
