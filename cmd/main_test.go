package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/persona/internal/adapters/source"
	"github.com/okian/persona/internal/config"
	"github.com/okian/persona/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const fixtureCSV = `PRICE,SOURCE,SEX,COUNTRY,AGE
39,android,male,bra,17
39,android,male,bra,17
49,android,male,bra,17
30,android,female,tur,35
40,android,female,tur,38
20,ios,male,usa,45
10,ios,female,deu,22
25,android,female,fra,0
60,ios,male,tur,23
`

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persona.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	convey.Convey("Given a transaction table on disk", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.InputPath = writeFixture(t, fixtureCSV)
		cfg.TopN = 2

		convey.Convey("When running the batch", func() {
			var out bytes.Buffer
			err := run(ctx, cfg, &out)

			convey.Convey("Then the report lists top personas, tiers and lookups", func() {
				convey.So(err, convey.ShouldBeNil)
				report := out.String()
				convey.So(report, convey.ShouldContainSubstring, "9 transactions, 7 groups, 6 personas")
				convey.So(report, convey.ShouldContainSubstring, "TUR_IOS_MALE_19_23")
				convey.So(report, convey.ShouldNotContainSubstring, "USA_IOS_MALE_41_45")
				convey.So(report, convey.ShouldContainSubstring, "TUR_ANDROID_FEMALE_31_40  35.00")
				convey.So(report, convey.ShouldContainSubstring, "FRA_IOS_FEMALE_31_40")
				convey.So(report, convey.ShouldContainSubstring, "not found")
			})
		})

		convey.Convey("When a metrics textfile is configured", func() {
			cfg.MetricsTextfile = filepath.Join(t.TempDir(), "persona.prom")
			err := run(ctx, cfg, &bytes.Buffer{})

			convey.Convey("Then the metrics are written", func() {
				convey.So(err, convey.ShouldBeNil)
				data, readErr := os.ReadFile(cfg.MetricsTextfile)
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "persona_pipeline_runs_total")
			})
		})

		convey.Convey("When lookup keys are given in lower case", func() {
			cfg.LookupKeys = []string{" bra_android_male_0_18 "}
			var out bytes.Buffer
			err := run(ctx, cfg, &out)

			convey.Convey("Then they are normalized before the lookup", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "BRA_ANDROID_MALE_0_18  42.33")
			})
		})
	})

	convey.Convey("Given a table without the AGE column", t, func() {
		cfg := config.New()
		cfg.InputPath = writeFixture(t, "PRICE,SOURCE,SEX,COUNTRY\n10,ios,male,usa\n")

		convey.Convey("Then the run fails at load time", func() {
			err := run(context.Background(), cfg, &bytes.Buffer{})
			convey.So(errors.Is(err, source.ErrMissingColumn), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a missing input file", t, func() {
		cfg := config.New()
		cfg.InputPath = filepath.Join(t.TempDir(), "nope.csv")

		convey.Convey("Then the run fails", func() {
			err := run(context.Background(), cfg, &bytes.Buffer{})
			convey.So(errors.Is(err, source.ErrReadTable), convey.ShouldBeTrue)
		})
	})
}
