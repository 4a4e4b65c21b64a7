package persona_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/persona/internal/domain/bucket"
	"github.com/okian/persona/internal/domain/model"
	"github.com/okian/persona/internal/domain/persona"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given the components of a persona", t, func() {
		cat := model.AgeCategory{Label: "0_18"}

		Convey("When building the key", func() {
			key, err := persona.Key("bra", "android", "male", cat)

			Convey("Then fields are upper-cased and joined in order", func() {
				So(err, ShouldBeNil)
				So(key, ShouldEqual, "BRA_ANDROID_MALE_0_18")
			})

			Convey("Then the same inputs always give the same key", func() {
				again, err := persona.Key("bra", "android", "male", cat)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, key)
			})
		})

		Convey("When inputs differ only in case", func() {
			a, _ := persona.Key("tur", "ios", "female", model.AgeCategory{Label: "31_40"})
			b, _ := persona.Key("TUR", "IOS", "Female", model.AgeCategory{Label: "31_40"})

			Convey("Then they normalize to the same key", func() {
				So(a, ShouldEqual, "TUR_IOS_FEMALE_31_40")
				So(b, ShouldEqual, a)
			})
		})

		Convey("When the age category is unresolved", func() {
			key, err := persona.Key("bra", "android", "male", model.AgeCategory{})

			Convey("Then the key carries the NA label", func() {
				So(err, ShouldBeNil)
				So(key, ShouldEqual, "BRA_ANDROID_MALE_NA")
			})
		})

		Convey("When a component contains the delimiter", func() {
			_, err := persona.Key("bra", "android_tv", "male", cat)

			Convey("Then it is rejected as ambiguous", func() {
				So(errors.Is(err, persona.ErrAmbiguousComponent), ShouldBeTrue)
			})
		})

		Convey("When the components are distinct", func() {
			a, _ := persona.Key("bra", "android", "male", cat)
			b, _ := persona.Key("bra", "android", "female", cat)
			c, _ := persona.Key("bra", "android", "male", model.AgeCategory{Label: "19_23"})

			Convey("Then the keys are distinct", func() {
				So(a, ShouldNotEqual, b)
				So(a, ShouldNotEqual, c)
				So(b, ShouldNotEqual, c)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given a lowercase key with padding", t, func() {
		So(persona.Normalize("  tur_android_female_31_40 "), ShouldEqual, "TUR_ANDROID_FEMALE_31_40")
	})
}

func TestBuild(t *testing.T) {
	Convey("Given aggregated groups and a bucketer", t, func() {
		ctx := context.Background()
		groups := []model.GroupMean{
			{Demographic: model.Demographic{Country: "bra", Source: "android", Sex: "male", Age: 17}, MeanPrice: 42.33},
			{Demographic: model.Demographic{Country: "bra", Source: "android", Sex: "male", Age: 15}, MeanPrice: 30},
			{Demographic: model.Demographic{Country: "tur", Source: "ios", Sex: "female", Age: 0}, MeanPrice: 10},
		}
		b := bucket.New(17)

		Convey("When building persona rows", func() {
			res, err := persona.Build(ctx, groups, b)

			Convey("Then each group yields one row in input order", func() {
				So(err, ShouldBeNil)
				So(res.Rows, ShouldHaveLength, 3)
				So(res.Rows[0], ShouldResemble, model.PersonaRow{Key: "BRA_ANDROID_MALE_0_18", MeanPrice: 42.33})
				So(res.Rows[1].Key, ShouldEqual, "BRA_ANDROID_MALE_0_18")
			})

			Convey("Then ages outside every bin are kept and counted", func() {
				So(res.Rows[2].Key, ShouldEqual, "TUR_IOS_FEMALE_NA")
				So(res.Unresolved, ShouldEqual, 1)
			})
		})

		Convey("When a group has an ambiguous component", func() {
			bad := append(groups, model.GroupMean{Demographic: model.Demographic{Country: "us_a", Source: "ios", Sex: "male", Age: 10}})
			_, err := persona.Build(ctx, bad, b)

			Convey("Then building fails", func() {
				So(errors.Is(err, persona.ErrAmbiguousComponent), ShouldBeTrue)
			})
		})
	})
}
