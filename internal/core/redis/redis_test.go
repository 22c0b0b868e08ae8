package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeasonKeys(t *testing.T) {
	require.Equal(t, "season:process:2024:lock", SeasonLockKey(2024))
	require.Equal(t, "season:status:2024", SeasonStatusKey(2024))
}
