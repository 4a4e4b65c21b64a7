package aggregate_test

import (
	"context"
	"testing"

	"github.com/okian/persona/internal/domain/aggregate"
	"github.com/okian/persona/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func tx(price int64, source, sex, country string, age int) model.Transaction {
	return model.Transaction{
		Price:   decimal.NewFromInt(price),
		Source:  source,
		Sex:     sex,
		Country: country,
		Age:     age,
	}
}

func TestGroupMeans(t *testing.T) {
	Convey("Given transactions sharing demographic tuples", t, func() {
		ctx := context.Background()
		txs := []model.Transaction{
			tx(39, "android", "male", "bra", 17),
			tx(39, "android", "male", "bra", 17),
			tx(49, "android", "male", "bra", 17),
			tx(29, "android", "male", "tur", 17),
			tx(49, "android", "male", "tur", 17),
			tx(59, "ios", "female", "usa", 45),
		}

		Convey("When grouping by (country, source, sex, age)", func() {
			groups, err := aggregate.GroupMeans(ctx, txs)

			Convey("Then there is one row per distinct tuple", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldHaveLength, 3)
			})

			Convey("Then each mean is sum/count", func() {
				byCountry := map[string]model.GroupMean{}
				for _, g := range groups {
					byCountry[g.Country] = g
				}
				So(byCountry["bra"].MeanPrice, ShouldAlmostEqual, 127.0/3.0, 1e-9)
				So(byCountry["bra"].Count, ShouldEqual, 3)
				So(byCountry["tur"].MeanPrice, ShouldAlmostEqual, 39.0, 1e-9)
				So(byCountry["usa"].MeanPrice, ShouldAlmostEqual, 59.0, 1e-9)
			})

			Convey("Then rows are sorted by mean price descending", func() {
				So(groups[0].Country, ShouldEqual, "usa")
				So(groups[1].Country, ShouldEqual, "bra")
				So(groups[2].Country, ShouldEqual, "tur")
			})
		})

		Convey("When two groups have the same mean", func() {
			tied := []model.Transaction{
				tx(30, "ios", "male", "tur", 20),
				tx(30, "android", "male", "tur", 20),
				tx(30, "android", "female", "bra", 20),
				tx(30, "android", "female", "bra", 19),
			}
			groups, err := aggregate.GroupMeans(ctx, tied)

			Convey("Then ties are ordered by tuple ascending", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldHaveLength, 4)
				So(groups[0].Demographic, ShouldResemble, model.Demographic{Country: "bra", Source: "android", Sex: "female", Age: 19})
				So(groups[1].Demographic, ShouldResemble, model.Demographic{Country: "bra", Source: "android", Sex: "female", Age: 20})
				So(groups[2].Demographic, ShouldResemble, model.Demographic{Country: "tur", Source: "android", Sex: "male", Age: 20})
				So(groups[3].Demographic, ShouldResemble, model.Demographic{Country: "tur", Source: "ios", Sex: "male", Age: 20})
			})
		})

		Convey("When grouping is case sensitive", func() {
			groups, err := aggregate.GroupMeans(ctx, []model.Transaction{
				tx(10, "android", "male", "bra", 20),
				tx(20, "android", "male", "BRA", 20),
			})

			Convey("Then differently cased tuples stay separate groups", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldHaveLength, 2)
			})
		})

		Convey("When the input is empty", func() {
			groups, err := aggregate.GroupMeans(ctx, nil)

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldNotBeNil)
				So(groups, ShouldBeEmpty)
			})
		})

		Convey("When prices have fractional cents", func() {
			groups, err := aggregate.GroupMeans(ctx, []model.Transaction{
				{Price: decimal.RequireFromString("0.1"), Source: "ios", Sex: "male", Country: "fra", Age: 30},
				{Price: decimal.RequireFromString("0.2"), Source: "ios", Sex: "male", Country: "fra", Age: 30},
			})

			Convey("Then the sum is exact before dividing", func() {
				So(err, ShouldBeNil)
				So(groups[0].MeanPrice, ShouldEqual, 0.15)
			})
		})
	})
}

func TestMaxAge(t *testing.T) {
	Convey("Given group rows", t, func() {
		Convey("When there are none", func() {
			_, ok := aggregate.MaxAge(nil)
			So(ok, ShouldBeFalse)
		})

		Convey("When there are several", func() {
			m, ok := aggregate.MaxAge([]model.GroupMean{
				{Demographic: model.Demographic{Age: 17}},
				{Demographic: model.Demographic{Age: 66}},
				{Demographic: model.Demographic{Age: 0}},
			})
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, 66)
		})
	})
}
