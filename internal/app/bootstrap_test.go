package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoice-automation/backend/internal/billing"
	"invoice-automation/backend/internal/cache"
	"invoice-automation/backend/internal/config"
)

func TestNewCacheStore(t *testing.T) {
	store, closeStore, err := newCacheStore(context.Background(), config.CacheConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)
	assert.NoError(t, closeStore())

	_, _, err = newCacheStore(context.Background(), config.CacheConfig{RedisURL: "mysql://nope"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadAWSConfig(t *testing.T) {
	awsCfg, err := loadAWSConfig(context.Background(), config.AWSConfig{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}

func TestNewBillingService(t *testing.T) {
	awsCfg, err := loadAWSConfig(context.Background(), config.AWSConfig{Region: "us-east-1"})
	require.NoError(t, err)

	svc := NewBillingService(billing.Repository(nil), awsCfg, config.Default(), zap.NewNop())
	assert.NotNil(t, svc)
}
