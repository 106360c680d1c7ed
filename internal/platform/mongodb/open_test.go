package mongodb

import (
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	t.Parallel()
	opts := clientOptions(config.DatabaseConfig{
		Driver:          config.DriverMongo,
		URL:             "mongodb://localhost:27017",
		ConnectTimeout:  3 * time.Second,
		MaxOpenConns:    7,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 90 * time.Second,
	})
	require.NoError(t, opts.Validate())

	require.NotNil(t, opts.MaxConnIdleTime)
	assert.Equal(t, 90*time.Second, *opts.MaxConnIdleTime)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(7), *opts.MaxPoolSize)
	require.NotNil(t, opts.ServerSelectionTimeout)
	assert.Equal(t, 3*time.Second, *opts.ServerSelectionTimeout)
}
