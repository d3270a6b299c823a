package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/nebulon/tierd/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("NEBULON_ADDR", ":8080")
			_ = os.Setenv("NEBULON_MAX_ENTRIES", "500")
			_ = os.Setenv("NEBULON_DISPATCH_WORKER_COUNT", "16")
			_ = os.Setenv("NEBULON_LEDGER_DRIVER", "sqlite")
			_ = os.Setenv("NEBULON_METADATA_ENABLED", "false")
			_ = os.Setenv("NEBULON_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxEntries, convey.ShouldEqual, 500)
				convey.So(cfg.DispatchWorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LedgerDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.MetadataEnabled, convey.ShouldBeFalse)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# ranking service
addr: ":9090"  # listen
dispatch_queue_size: 300
ledger_timeout_ms: 250
metadata_references:
  "1": ipfs://a
  "2": ipfs://b
  "3": ipfs://c
  "4": ipfs://d
  "5": ipfs://e
  "6": ipfs://f
  "7": ipfs://g
  "8": ipfs://h
  "9": ipfs://i
  "10": ipfs://j
tiers:
  - {id: 1, name: Gold, percentile_ceiling: 10, reward_share: 50}
  - {id: 2, name: Silver, percentile_ceiling: 20, reward_share: 20}
  - {id: 3, name: Bronze, percentile_ceiling: 30, reward_share: 10}
  - {id: 4, name: T4, percentile_ceiling: 40, reward_share: 5}
  - {id: 5, name: T5, percentile_ceiling: 50, reward_share: 5}
  - {id: 6, name: T6, percentile_ceiling: 60, reward_share: 4}
  - {id: 7, name: T7, percentile_ceiling: 70, reward_share: 3}
  - {id: 8, name: T8, percentile_ceiling: 80, reward_share: 2}
  - {id: 9, name: T9, percentile_ceiling: 90, reward_share: 1}
  - {id: 10, name: Rest, percentile_ceiling: 100, reward_share: 0}
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values replace the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DispatchQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.LedgerTimeoutMS, convey.ShouldEqual, 250)
				convey.So(cfg.Tiers, convey.ShouldHaveLength, 10)
				convey.So(cfg.Tiers[0].Name, convey.ShouldEqual, "Gold")
				convey.So(cfg.Tiers[9].PercentileCeiling, convey.ShouldEqual, 100.0)
				convey.So(cfg.MetadataReferences["10"], convey.ShouldEqual, "ipfs://j")

				table, err := cfg.TierTable()
				convey.So(err, convey.ShouldBeNil)
				d, _ := table.Get(1)
				convey.So(d.MetadataReference, convey.ShouldEqual, "ipfs://a")
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nmax_entries: 42\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			_ = os.Setenv("NEBULON_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxEntries, convey.ShouldEqual, 42)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("NEBULON_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail with ErrLoadConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML is malformed", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given invalid configuration", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When addr is empty", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When the queue size is negative", func() {
			_ = os.Setenv("NEBULON_DISPATCH_QUEUE_SIZE", "-100")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the tier list is too short", func() {
			tmpFile := createTempConfigFile("tiers:\n  - {id: 1, name: Only, percentile_ceiling: 100, reward_share: 100}\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then the tier table is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When metadata is partial and enabled", func() {
			tmpFile := createTempConfigFile("metadata_references:\n  \"1\": ipfs://only\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("NEBULON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"NEBULON_CONFIG",
		"NEBULON_ADDR",
		"NEBULON_MAX_ENTRIES",
		"NEBULON_DISPATCH_QUEUE_SIZE",
		"NEBULON_DISPATCH_WORKER_COUNT",
		"NEBULON_LEDGER_DRIVER",
		"NEBULON_METADATA_ENABLED",
		"NEBULON_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "nebulon-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
