package albion

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jaxron/axonet/pkg/client"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Battle is one battle summary from the AlbionBB battle board.
type Battle struct {
	ID           int64     `json:"id"`
	StartTime    time.Time `json:"startTime"`
	TotalPlayers int       `json:"totalPlayers"`
}

// BattlePlayer is one participant row of a battle detail.
type BattlePlayer struct {
	Name      string `json:"name"`
	GuildID   string `json:"guildId"`
	GuildName string `json:"guildName"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
}

// battleDetail is the battle detail envelope.
type battleDetail struct {
	ID      int64          `json:"id"`
	Players []BattlePlayer `json:"players"`
}

// AlbionBBClient talks to the AlbionBB battle API.
type AlbionBBClient struct {
	client  *client.Client
	baseURL string
	logger  *zap.Logger
}

// NewAlbionBB creates an AlbionBBClient for the given base URL.
func NewAlbionBB(client *client.Client, baseURL string, logger *zap.Logger) *AlbionBBClient {
	return &AlbionBBClient{
		client:  client,
		baseURL: baseURL,
		logger:  logger.Named("albionbb"),
	}
}

// GuildBattles lists the guild's battles since the cutoff with at least
// minPlayers participants.
func (c *AlbionBBClient) GuildBattles(ctx context.Context, guildID string, minPlayers int, since time.Time) ([]Battle, error) {
	resp, err := c.client.NewRequest().
		Method(http.MethodGet).
		URL(c.baseURL+"/battles").
		Query("guildId", guildID).
		Query("minPlayers", strconv.Itoa(minPlayers)).
		Query("since", strconv.FormatInt(since.Unix(), 10)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild battles: %w", err)
	}
	defer resp.Body.Close()

	var battles []Battle
	if err := decodeBody(resp.Body, &battles); err != nil {
		return nil, fmt.Errorf("failed to decode guild battles: %w", err)
	}

	return battles, nil
}

// BattlePlayers returns the participants of one battle.
func (c *AlbionBBClient) BattlePlayers(ctx context.Context, battleID int64) ([]BattlePlayer, error) {
	resp, err := c.client.NewRequest().
		Method(http.MethodGet).
		URL(c.baseURL + "/battles/" + strconv.FormatInt(battleID, 10)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch battle %d: %w", battleID, err)
	}
	defer resp.Body.Close()

	var detail battleDetail
	if err := decodeBody(resp.Body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode battle %d: %w", battleID, err)
	}

	return detail.Players, nil
}

// Attendance counts, per player of the given Albion guild, how many of the
// battles each player appeared in. Battle details are fetched concurrently.
func (c *AlbionBBClient) Attendance(
	ctx context.Context, guildID string, battles []Battle, concurrency int,
) (map[string]int, map[string]time.Time, error) {
	if concurrency <= 0 {
		concurrency = 5
	}

	type battleResult struct {
		startTime time.Time
		players   []BattlePlayer
	}

	results := make([]battleResult, len(battles))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(concurrency)

	for i, battle := range battles {
		p.Go(func(ctx context.Context) error {
			players, err := c.BattlePlayers(ctx, battle.ID)
			if err != nil {
				// One unfetchable battle should not sink the whole run.
				c.logger.Warn("Skipping battle",
					zap.Int64("battleID", battle.ID),
					zap.Error(err))
				return nil
			}
			results[i] = battleResult{startTime: battle.StartTime, players: players}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch battle details: %w", err)
	}

	counts := make(map[string]int)
	lastSeen := make(map[string]time.Time)
	for _, result := range results {
		for _, player := range result.players {
			if player.GuildID != guildID {
				continue
			}
			counts[player.Name]++
			if result.startTime.After(lastSeen[player.Name]) {
				lastSeen[player.Name] = result.startTime
			}
		}
	}

	return counts, lastSeen, nil
}
