package builder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albiongw/goodwill/internal/bot/builder"
	"github.com/albiongw/goodwill/internal/database/models"
)

func TestChartBuilderBuild(t *testing.T) {
	t.Parallel()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	totals := []models.DayTotal{
		{Date: today, VoiceSeconds: 3600},
		{Date: today.AddDate(0, 0, -1), VoiceSeconds: 1800},
		{Date: today.AddDate(0, 0, -3), VoiceSeconds: 7200},
	}

	buf, err := builder.NewChartBuilder(totals, 14).Build()
	require.NoError(t, err)
	require.NotNil(t, buf)

	// PNG magic bytes.
	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestChartBuilderBuildEmpty(t *testing.T) {
	t.Parallel()

	buf, err := builder.NewChartBuilder(nil, 14).Build()
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
