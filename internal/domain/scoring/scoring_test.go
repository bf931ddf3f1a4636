package scoring_test

import (
	"testing"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	scoring "github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestComposite(t *testing.T) {
	Convey("Given the composite score formula", t, func() {
		Convey("When the total is 10.0", func() {
			Convey("Then the score truncates to 179.99, not 180.00", func() {
				So(scoring.Composite(10.0), ShouldEqual, 179.99)
			})
		})

		Convey("When the total is 2.2002", func() {
			Convey("Then the score lands exactly on the threshold", func() {
				So(scoring.Composite(2.2002), ShouldEqual, 50.00)
			})
		})

		Convey("When the total is 2.2", func() {
			Convey("Then the score falls just short of the threshold", func() {
				So(scoring.Composite(2.2), ShouldEqual, 49.99)
			})
		})

		Convey("When the total is 40.8", func() {
			Convey("Then the score is uncapped", func() {
				So(scoring.Composite(40.8), ShouldEqual, 693.33)
			})
		})

		Convey("When the total is zero", func() {
			Convey("Then only the offset contributes", func() {
				So(scoring.Composite(0), ShouldEqual, 13.33)
			})
		})

		Convey("When the total is negative", func() {
			Convey("Then truncation moves toward zero", func() {
				So(scoring.Composite(-2), ShouldEqual, -19.99)
			})
		})
	})
}

func TestPasses(t *testing.T) {
	Convey("Given the pass threshold", t, func() {
		Convey("Then 50.00 passes and 49.99 fails", func() {
			So(scoring.Passes(50.00), ShouldBeTrue)
			So(scoring.Passes(49.99), ShouldBeFalse)
			So(scoring.Passes(693.33), ShouldBeTrue)
			So(scoring.Passes(0), ShouldBeFalse)
		})
	})
}

func TestGrade(t *testing.T) {
	Convey("Given a consolidated roster", t, func() {
		roster := []model.RosterEntry{
			{FullName: "Jane Doe", Slots: [model.PositionCount]float64{8, 9, 7, 10, 6.8}},
			{FullName: "Just Enough", Slots: [model.PositionCount]float64{2.2002, 0, 0, 0, 0}},
			{FullName: "Just Short", Slots: [model.PositionCount]float64{2.2, 0, 0, 0, 0}},
			{FullName: "No Show"},
		}

		Convey("When the roster is graded", func() {
			sum := scoring.Grade(roster)

			Convey("Then every entry carries total, score and status", func() {
				So(roster[0].Total, ShouldAlmostEqual, 40.8, 1e-9)
				So(roster[0].Score, ShouldEqual, 693.33)
				So(roster[0].Status, ShouldEqual, model.GradePass)

				So(roster[1].Score, ShouldEqual, 50.00)
				So(roster[1].Status, ShouldEqual, model.GradePass)

				So(roster[2].Score, ShouldEqual, 49.99)
				So(roster[2].Status, ShouldEqual, model.GradeFail)

				So(roster[3].Score, ShouldEqual, 13.33)
				So(roster[3].Status, ShouldEqual, model.GradeFail)
			})

			Convey("Then the summary tallies pass and fail", func() {
				So(sum.Participants, ShouldEqual, 4)
				So(sum.Passed, ShouldEqual, 2)
				So(sum.Failed, ShouldEqual, 2)
			})
		})
	})

	Convey("Given an empty roster", t, func() {
		Convey("When the roster is graded", func() {
			sum := scoring.Grade(nil)

			Convey("Then the summary is zero", func() {
				So(sum, ShouldResemble, model.Summary{})
			})
		})
	})
}
