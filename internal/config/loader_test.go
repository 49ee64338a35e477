package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dev-tnsq/spacelink-sub000/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"SPACELINK_CONFIG",
		"SPACELINK_ADDR",
		"SPACELINK_LOG_LEVEL",
		"SPACELINK_ADMIN",
		"SPACELINK_NATIVE_CURRENCY",
		"SPACELINK_MIN_STATION_STAKE",
		"SPACELINK_RELAY_REWARD",
		"SPACELINK_LOCK_WINDOW_MINUTES",
		"SPACELINK_MAX_PASS_SECONDS",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.NativeCurrency, convey.ShouldEqual, "XLM")
				convey.So(cfg.MinStationStake, convey.ShouldEqual, 10_000_000)
				convey.So(cfg.ElementMaxAge(), convey.ShouldEqual, 7*24*time.Hour)
				convey.So(cfg.LockWindow(), convey.ShouldEqual, 30*time.Minute)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SPACELINK_ADDR", ":8080")
			_ = os.Setenv("SPACELINK_NATIVE_CURRENCY", "ETH")
			_ = os.Setenv("SPACELINK_RELAY_REWARD", "20000000")
			_ = os.Setenv("SPACELINK_LOCK_WINDOW_MINUTES", "15")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.NativeCurrency, convey.ShouldEqual, "ETH")
				convey.So(cfg.RelayReward, convey.ShouldEqual, 20_000_000)
				convey.So(cfg.LockWindow(), convey.ShouldEqual, 15*time.Minute)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()
			tmp, err := os.CreateTemp(t.TempDir(), "spacelink-*.yaml")
			convey.So(err, convey.ShouldBeNil)
			_, err = tmp.WriteString("addr: \":7070\"\nmax_pass_seconds: 900\n")
			convey.So(err, convey.ShouldBeNil)
			convey.So(tmp.Close(), convey.ShouldBeNil)
			_ = os.Setenv("SPACELINK_CONFIG", tmp.Name())
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				_, maxDur := cfg.PassDurationBounds()
				convey.So(maxDur, convey.ShouldEqual, 15*time.Minute)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("SPACELINK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrInvalidConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
