package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/persona/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "datasets/persona.csv")
				convey.So(cfg.TopN, convey.ShouldEqual, 10)
				convey.So(cfg.Suggestions, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PERSONA_INPUT_PATH", "/data/persona.csv")
			_ = os.Setenv("PERSONA_TOP_N", "25")
			_ = os.Setenv("PERSONA_LOOKUP_KEYS", "BRA_ANDROID_MALE_0_18, TUR_IOS_FEMALE_19_23")
			_ = os.Setenv("PERSONA_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "/data/persona.csv")
				convey.So(cfg.TopN, convey.ShouldEqual, 25)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.LookupKeys, convey.ShouldResemble, []string{"BRA_ANDROID_MALE_0_18", "TUR_IOS_FEMALE_19_23"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
input_path: "fixtures/persona.csv"
delimiter: ";"
top_n: 5
segment_labels: ["LOW", "MID", "HIGH"]
lookup_keys:
  - USA_IOS_MALE_41_66
metrics_textfile: /tmp/persona.prom
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERSONA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "fixtures/persona.csv")
				convey.So(cfg.DelimiterRune(), convey.ShouldEqual, ';')
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(cfg.SegmentLabels, convey.ShouldResemble, []string{"LOW", "MID", "HIGH"})
				convey.So(cfg.LookupKeys, convey.ShouldResemble, []string{"USA_IOS_MALE_41_66"})
				convey.So(cfg.MetricsTextfile, convey.ShouldEqual, "/tmp/persona.prom")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
input_path: "fixtures/persona.csv"
top_n: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERSONA_CONFIG", tmpFile)
			_ = os.Setenv("PERSONA_TOP_N", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputPath, convey.ShouldEqual, "fixtures/persona.csv") // From file
				convey.So(cfg.TopN, convey.ShouldEqual, 7)                           // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERSONA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PERSONA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty input path", func() {
			_ = os.Setenv("PERSONA_INPUT_PATH", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "input_path must not be empty")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PERSONA_TOP_N", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PERSONA_CONFIG",
		"PERSONA_INPUT_PATH",
		"PERSONA_TOP_N",
		"PERSONA_LOOKUP_KEYS",
		"PERSONA_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "persona-config-*.yaml")
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
