package albion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jaxron/axonet/pkg/client"
	"go.uber.org/zap"
)

// WeaponStats is one weapon line from a player's MurderLedger ledger.
type WeaponStats struct {
	Weapon string `json:"weapon_name"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
	Elo    int    `json:"average_elo"`
	Usages int    `json:"usages"`
}

// weaponStatsResponse is the MurderLedger envelope.
type weaponStatsResponse struct {
	WeaponStats []WeaponStats `json:"weapon_stats"`
}

// MurderLedgerClient talks to the MurderLedger API.
type MurderLedgerClient struct {
	client  *client.Client
	baseURL string
	logger  *zap.Logger
}

// NewMurderLedger creates a MurderLedgerClient for the given base URL.
func NewMurderLedger(client *client.Client, baseURL string, logger *zap.Logger) *MurderLedgerClient {
	return &MurderLedgerClient{
		client:  client,
		baseURL: baseURL,
		logger:  logger.Named("murderledger"),
	}
}

// PlayerWeaponStats returns the player's per-weapon ladder stats.
func (c *MurderLedgerClient) PlayerWeaponStats(ctx context.Context, playerName string) ([]WeaponStats, error) {
	resp, err := c.client.NewRequest().
		Method(http.MethodGet).
		URL(c.baseURL + "/players/" + url.PathEscape(playerName) + "/stats/weapons").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weapon stats: %w", err)
	}
	defer resp.Body.Close()

	var result weaponStatsResponse
	if err := decodeBody(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode weapon stats: %w", err)
	}

	return result.WeaponStats, nil
}

// WeaponKills returns the player's kill count on one weapon, zero when the
// weapon has never been used.
func (c *MurderLedgerClient) WeaponKills(ctx context.Context, playerName, weapon string) (int, error) {
	stats, err := c.PlayerWeaponStats(ctx, playerName)
	if err != nil {
		return 0, err
	}

	for _, s := range stats {
		if s.Weapon == weapon {
			return s.Kills, nil
		}
	}
	return 0, nil
}
