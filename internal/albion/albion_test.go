package albion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaxron/axonet/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer serves canned JSON per path.
func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestFindPlayer(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/search": `{"players": [
			{"Id": "p1", "Name": "Moriblin", "GuildId": "g1", "GuildName": "Goodwill"},
			{"Id": "p2", "Name": "MoriblinTwo", "GuildId": "", "GuildName": ""}
		]}`,
	})

	gameinfo := NewGameinfo(client.NewClient(), server.URL, zap.NewNop())

	player, err := gameinfo.FindPlayer(context.Background(), "moriblin")
	require.NoError(t, err)
	assert.Equal(t, "p1", player.ID)
	assert.Equal(t, "Goodwill", player.GuildName)

	_, err = gameinfo.FindPlayer(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGuildMembers(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/guilds/g1/members": `[
			{"Id": "p1", "Name": "Moriblin"},
			{"Id": "p2", "Name": "Kargand"}
		]`,
	})

	gameinfo := NewGameinfo(client.NewClient(), server.URL, zap.NewNop())

	members, err := gameinfo.GuildMembers(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Kargand", members[1].Name)
}

func TestPlayerWeaponStats(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/players/Moriblin/stats/weapons": `{"weapon_stats": [
			{"weapon_name": "Hallowfall", "kills": 12, "deaths": 4, "average_elo": 1210, "usages": 55},
			{"weapon_name": "Heavy Mace", "kills": 3, "deaths": 9, "average_elo": 990, "usages": 20}
		]}`,
	})

	ledger := NewMurderLedger(client.NewClient(), server.URL, zap.NewNop())

	stats, err := ledger.PlayerWeaponStats(context.Background(), "Moriblin")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1210, stats[0].Elo)

	kills, err := ledger.WeaponKills(context.Background(), "Moriblin", "Heavy Mace")
	require.NoError(t, err)
	assert.Equal(t, 3, kills)

	kills, err = ledger.WeaponKills(context.Background(), "Moriblin", "Longbow")
	require.NoError(t, err)
	assert.Zero(t, kills)
}

func TestGuildBattles(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/battles": `[
			{"id": 101, "startTime": "2025-08-20T19:00:00Z", "totalPlayers": 24},
			{"id": 102, "startTime": "2025-08-21T20:30:00Z", "totalPlayers": 31}
		]`,
	})

	bb := NewAlbionBB(client.NewClient(), server.URL, zap.NewNop())

	battles, err := bb.GuildBattles(context.Background(), "g1", 10, time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, battles, 2)
	assert.Equal(t, int64(102), battles[1].ID)
	assert.Equal(t, 24, battles[0].TotalPlayers)
}

func TestAttendance(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/battles/101": `{"id": 101, "players": [
			{"name": "Moriblin", "guildId": "g1", "kills": 2, "deaths": 0},
			{"name": "Kargand", "guildId": "g1", "kills": 0, "deaths": 1},
			{"name": "Outsider", "guildId": "g9", "kills": 5, "deaths": 0}
		]}`,
		"/battles/102": `{"id": 102, "players": [
			{"name": "Moriblin", "guildId": "g1", "kills": 1, "deaths": 1}
		]}`,
	})

	bb := NewAlbionBB(client.NewClient(), server.URL, zap.NewNop())

	battles := []Battle{
		{ID: 101, StartTime: time.Date(2025, 8, 20, 19, 0, 0, 0, time.UTC)},
		{ID: 102, StartTime: time.Date(2025, 8, 21, 20, 30, 0, 0, time.UTC)},
	}

	counts, lastSeen, err := bb.Attendance(context.Background(), "g1", battles, 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Moriblin": 2, "Kargand": 1}, counts)
	assert.Equal(t, battles[1].StartTime, lastSeen["Moriblin"])
	assert.Equal(t, battles[0].StartTime, lastSeen["Kargand"])
}

func TestAttendanceSkipsUnfetchableBattles(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, map[string]string{
		"/battles/101": `{"id": 101, "players": [
			{"name": "Moriblin", "guildId": "g1"}
		]}`,
	})

	bb := NewAlbionBB(client.NewClient(), server.URL, zap.NewNop())

	battles := []Battle{
		{ID: 101, StartTime: time.Date(2025, 8, 20, 19, 0, 0, 0, time.UTC)},
		{ID: 999, StartTime: time.Date(2025, 8, 22, 19, 0, 0, 0, time.UTC)},
	}

	counts, _, err := bb.Attendance(context.Background(), "g1", battles, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Moriblin": 1}, counts)
}
