//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-automation/internal/config"
)

func TestStart_WithoutBrokerURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{LogLevel: "info"}))

	ctx := context.Background()

	rt, err := Start(ctx, path, "room-test")
	require.NoError(t, err)
	require.Equal(t, config.DefaultQueue, rt.Config.Broker.Queue)

	_, err = rt.ConnectBroker(ctx)
	require.ErrorIs(t, err, ErrNoBrokerURL)

	rt.Close(ctx)
}

func TestStart_MissingConfig(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), "room-test")
	require.Error(t, err)
}
