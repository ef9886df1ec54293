package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/jobvault/jobvault/jobvault"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	viper.Reset()

	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "jobvault-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "libsql", cfg.Store.Backend)
	assert.Equal(suite.T(), internal.DefaultDatabasePath, cfg.Store.DatabasePath)
	assert.Equal(suite.T(), internal.DefaultNamespace, cfg.Store.Namespace)
	assert.Equal(suite.T(), "", cfg.Store.Blob.Backend)
	assert.Equal(suite.T(), "localhost:6379", cfg.Store.Blob.RedisAddr)
	assert.Equal(suite.T(), 4, cfg.Runner.Concurrency)
}

func (suite *ConfigTestSuite) TestConfigFile() {
	path := filepath.Join(suite.tempDir, "config.yaml")
	content := []byte(`
store:
  backend: memory
  namespace: experiments
  blob:
    backend: redis
    redis_addr: redis:6379
    redis_db: 3
runner:
  concurrency: 16
`)
	require.NoError(suite.T(), os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "memory", cfg.Store.Backend)
	assert.Equal(suite.T(), "experiments", cfg.Store.Namespace)
	assert.Equal(suite.T(), "redis", cfg.Store.Blob.Backend)
	assert.Equal(suite.T(), "redis:6379", cfg.Store.Blob.RedisAddr)
	assert.Equal(suite.T(), 3, cfg.Store.Blob.RedisDB)
	assert.Equal(suite.T(), 16, cfg.Runner.Concurrency)
}

func (suite *ConfigTestSuite) TestMalformedConfigFile() {
	path := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte("store: ["), 0o644))

	_, err := LoadConfig(path)
	assert.Error(suite.T(), err)
}
