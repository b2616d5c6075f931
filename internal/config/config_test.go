package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Environment: "development",
		Store:       StoreConfig{Driver: StoreMemory},
		Security: SecurityConfig{
			JWTAccessSecret:   "access",
			JWTRefreshSecret:  "refresh",
			PasswordHasher:    HasherBcrypt,
			MinPasswordLength: 6,
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	testChdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Security.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.JWTRefreshTTL)
	assert.Equal(t, time.Hour, cfg.Security.ResetTokenTTL)
	assert.Equal(t, 10, cfg.Security.BcryptCost)
	assert.Equal(t, 6, cfg.Security.MinPasswordLength)
	assert.Equal(t, HasherBcrypt, cfg.Security.PasswordHasher)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("USERAUTH_ENVIRONMENT", "production")
	t.Setenv("USERAUTH_SECURITY_JWTACCESSSECRET", "from-env")
	t.Setenv("USERAUTH_SECURITY_JWTACCESSTTL", "5m")
	t.Setenv("USERAUTH_STORE_DRIVER", "postgres")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.ExposeResetToken())
	assert.Equal(t, "from-env", cfg.Security.JWTAccessSecret)
	assert.Equal(t, 5*time.Minute, cfg.Security.JWTAccessTTL)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.yaml")
	content := []byte(`
environment: staging
store:
  driver: memory
security:
  jwtaccesssecret: a
  jwtrefreshsecret: b
allowcorsorigins: "https://a.example,https://b.example"
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.True(t, cfg.ExposeResetToken())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowCORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr error
		errMsg  string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{
			name:    "missing access secret",
			mutate:  func(c *AppConfig) { c.Security.JWTAccessSecret = "" },
			wantErr: ErrMissingAccessSecret,
		},
		{
			name:    "missing refresh secret",
			mutate:  func(c *AppConfig) { c.Security.JWTRefreshSecret = "" },
			wantErr: ErrMissingRefreshSecret,
		},
		{
			name:    "shared secret",
			mutate:  func(c *AppConfig) { c.Security.JWTRefreshSecret = c.Security.JWTAccessSecret },
			wantErr: ErrSharedTokenSecret,
		},
		{
			name:   "unknown driver",
			mutate: func(c *AppConfig) { c.Store.Driver = "sqlite" },
			errMsg: "unknown store driver",
		},
		{
			name:   "mongo without uri",
			mutate: func(c *AppConfig) { c.Store.Driver = StoreMongo },
			errMsg: "mongo.uri is required",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *AppConfig) { c.Store.Driver = StorePostgres },
			errMsg: "postgres.dsn is required",
		},
		{
			name:   "unknown hasher",
			mutate: func(c *AppConfig) { c.Security.PasswordHasher = "md5" },
			errMsg: "unknown password hasher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatal(err)
		}
	})
}
