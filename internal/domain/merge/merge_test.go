package merge

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

func rec(name, email, result string) model.SourceRecord {
	return model.SourceRecord{FullName: name, Email: email, RawResult: result}
}

func TestConsolidate(t *testing.T) {
	Convey("Given five sources covering one participant each", t, func() {
		sources := [][]model.SourceRecord{
			{rec("Jane Doe", "jane@example.com", "8")},
			{rec("jane doe", "ignored@example.com", "9")},
			{rec("JANE  DOE", "", "7")},
			{rec("Jane Doe", "jane@example.com", "10")},
			{rec("Jane Doe", "jane@example.com", "6.8")},
		}

		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(sources)

			Convey("Then one entry holds all five slots", func() {
				So(err, ShouldBeNil)
				So(res.Roster, ShouldHaveLength, 1)
				So(res.Roster[0].Slots, ShouldResemble, [model.PositionCount]float64{8, 9, 7, 10, 6.8})
				So(res.Duplicates, ShouldEqual, 4)
			})

			Convey("Then the first sighting fixes the identity", func() {
				So(res.Roster[0].FullName, ShouldEqual, "Jane Doe")
				So(res.Roster[0].Email, ShouldEqual, "jane@example.com")
			})
		})
	})

	Convey("Given sources with distinct participants", t, func() {
		sources := [][]model.SourceRecord{
			{rec("Alice Smith", "alice@example.com", "5"), rec("Bob Jones", "bob@example.com", "3")},
			{rec("Bob Jones", "bob@example.com", "4")},
			{},
			{rec("Carol White", "carol@example.com", "9")},
			{},
		}

		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(sources)

			Convey("Then the roster preserves first-seen order", func() {
				So(err, ShouldBeNil)
				So(res.Roster, ShouldHaveLength, 3)
				So(res.Roster[0].FullName, ShouldEqual, "Alice Smith")
				So(res.Roster[1].FullName, ShouldEqual, "Bob Jones")
				So(res.Roster[2].FullName, ShouldEqual, "Carol White")
			})

			Convey("Then absent positions stay zero", func() {
				So(res.Roster[0].Slots, ShouldResemble, [model.PositionCount]float64{5, 0, 0, 0, 0})
				So(res.Roster[1].Slots, ShouldResemble, [model.PositionCount]float64{3, 4, 0, 0, 0})
				So(res.Roster[2].Slots, ShouldResemble, [model.PositionCount]float64{0, 0, 0, 9, 0})
			})
		})
	})

	Convey("Given a source listing the same participant twice", t, func() {
		sources := [][]model.SourceRecord{
			{rec("Dan Brown", "dan@example.com", "2"), rec("Dan Brown", "dan@example.com", "7")},
			{}, {}, {}, {},
		}

		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(sources)

			Convey("Then the last row wins that position's slot", func() {
				So(err, ShouldBeNil)
				So(res.Roster, ShouldHaveLength, 1)
				So(res.Roster[0].Slots[0], ShouldEqual, 7)
				So(res.Duplicates, ShouldEqual, 1)
			})
		})
	})

	Convey("Given result cells that do not parse", t, func() {
		sources := [][]model.SourceRecord{
			{rec("Eve Black", "eve@example.com", "absent")},
			{rec("Eve Black", "eve@example.com", "")},
			{rec("Eve Black", "eve@example.com", " 3.5 ")},
			{}, {},
		}

		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(sources)

			Convey("Then malformed cells degrade to zero", func() {
				So(err, ShouldBeNil)
				So(res.Roster[0].Slots, ShouldResemble, [model.PositionCount]float64{0, 0, 3.5, 0, 0})
			})
		})
	})

	Convey("Given rows with no name at all", t, func() {
		sources := [][]model.SourceRecord{
			{rec("", "first@example.com", "1")},
			{rec("  ", "second@example.com", "2")},
			{}, {}, {},
		}

		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(sources)

			Convey("Then they share the empty-key entry", func() {
				So(err, ShouldBeNil)
				So(res.Roster, ShouldHaveLength, 1)
				So(res.Roster[0].Email, ShouldEqual, "first@example.com")
				So(res.Roster[0].Slots[0], ShouldEqual, 1)
				So(res.Roster[0].Slots[1], ShouldEqual, 2)
			})
		})
	})

	Convey("Given the wrong number of sources", t, func() {
		Convey("When three sources are consolidated", func() {
			_, err := Consolidate(make([][]model.SourceRecord, 3))

			Convey("Then the source count is rejected", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrSourceCount), ShouldBeTrue)
			})
		})

		Convey("When nil sources are consolidated", func() {
			_, err := Consolidate(nil)

			Convey("Then the source count is rejected", func() {
				So(errors.Is(err, ErrSourceCount), ShouldBeTrue)
			})
		})
	})

	Convey("Given five empty sources", t, func() {
		Convey("When the sources are consolidated", func() {
			res, err := Consolidate(make([][]model.SourceRecord, model.PositionCount))

			Convey("Then the roster is empty", func() {
				So(err, ShouldBeNil)
				So(res.Roster, ShouldBeEmpty)
				So(res.Duplicates, ShouldEqual, 0)
			})
		})
	})

	Convey("Given the same sources consolidated twice", t, func() {
		sources := [][]model.SourceRecord{
			{rec("Frank Green", "frank@example.com", "6"), rec("Grace Hill", "grace@example.com", "4")},
			{rec("frank green", "other@example.com", "7")},
			{rec("Grace Hill", "grace@example.com", "9")},
			{}, {},
		}

		Convey("When both runs complete", func() {
			first, err1 := Consolidate(sources)
			second, err2 := Consolidate(sources)

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.Roster, ShouldResemble, first.Roster)
				So(second.Duplicates, ShouldEqual, first.Duplicates)
			})
		})
	})
}
