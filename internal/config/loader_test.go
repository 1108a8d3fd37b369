package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		t.Setenv("TALENTFLOW_JWT_SECRET", testSecret)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheMemory)
				convey.So(cfg.CacheListTTL, convey.ShouldEqual, 60*time.Second)
				convey.So(cfg.SyncQueueSize, convey.ShouldEqual, 1_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("TALENTFLOW_ADDR", ":8080")
			t.Setenv("TALENTFLOW_CACHE_LIST_TTL", "30s")
			t.Setenv("TALENTFLOW_SYNC_WORKERS", "3")
			t.Setenv("TALENTFLOW_STORE_DRIVER", "sqlite")
			t.Setenv("TALENTFLOW_SQLITE_PATH", "/tmp/tf.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheListTTL, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.SyncWorkers, convey.ShouldEqual, 3)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/tf.db")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "talentflow.yaml")
			yamlContent := `
addr: ":9090"
cache_backend: redis
redis_addr: "cache:6379"
cache_detail_ttl: 2m
sync_url: "http://sheets.local/hook"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			t.Setenv("TALENTFLOW_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then values come from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.CacheDetailTTL, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.SyncURL, convey.ShouldEqual, "http://sheets.local/hook")
			})

			convey.Convey("And env vars still win over the file", func() {
				t.Setenv("TALENTFLOW_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv("TALENTFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the resulting config is invalid", func() {
			t.Setenv("TALENTFLOW_STORE_DRIVER", "mongo")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config with a secret", t, func() {
		cfg := config.New()
		cfg.JWTSecret = testSecret

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.IsDevelopment(), convey.ShouldBeTrue)
			convey.So(cfg.String(), convey.ShouldContainSubstring, "Store=memory")
		})

		convey.Convey("When the secret is short", func() {
			cfg.JWTSecret = "short"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrWeakSecret), convey.ShouldBeTrue)
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			cfg.StoreDriver = config.StorePostgres
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the env is unknown", func() {
			cfg.Env = "qa"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When a TTL is not positive", func() {
			cfg.CacheListTTL = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the cache backend is unknown", func() {
			cfg.CacheBackend = "memcached"
			convey.So(errors.Is(cfg.Validate(), config.ErrUnknownBackend), convey.ShouldBeTrue)
		})
	})
}

// clearConfigEnvVars unsets every TALENTFLOW_ variable so leaves start clean.
func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}
