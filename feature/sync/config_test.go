package sync_test

import (
	"testing"
	"time"

	netboxsync "netbox-sync/feature/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Options(t *testing.T) {
	opts := netboxsync.Config{DryRun: true, MutationDelaySeconds: 5, CleanupDelaySeconds: 10, UnchangedLogEvery: 10}.Options()
	assert.True(t, opts.DryRun)
	assert.Equal(t, 5*time.Second, opts.MutationDelay)
	assert.Equal(t, 10*time.Second, opts.CleanupDelay)
	assert.Equal(t, 10, opts.UnchangedLogEvery)
}

func TestParseNodeMap(t *testing.T) {
	m, err := netboxsync.ParseNodeMap(" cmp-1=rack1-node1,cmp-2 = rack1-node2,, ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cmp-1": "rack1-node1", "cmp-2": "rack1-node2"}, m)

	m, err = netboxsync.ParseNodeMap("")
	require.NoError(t, err)
	assert.Empty(t, m)

	for _, bad := range []string{"cmp-1", "=rack1", "cmp-1="} {
		_, err := netboxsync.ParseNodeMap(bad)
		assert.Error(t, err, bad)
	}
}
