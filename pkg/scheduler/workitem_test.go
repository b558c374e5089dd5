package scheduler

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWorkItem(t *testing.T) {
	Convey("Given the three WorkItem construction forms", t, func() {
		Convey("a zero WorkItem is empty", func() {
			var w WorkItem
			So(w.IsEmpty(), ShouldBeTrue)
		})

		Convey("Func wraps a free function", func() {
			ran := false
			w := Func(func(*WorkerContext) { ran = true })

			So(w.IsEmpty(), ShouldBeFalse)
			w.run(nil)
			So(ran, ShouldBeTrue)
		})

		Convey("FuncValue captures a value without a manual closure", func() {
			var got int
			w := FuncValue(42, func(_ *WorkerContext, v int) { got = v })

			w.run(nil)
			So(got, ShouldEqual, 42)
		})

		Convey("Bound dispatches to a method on the bound instance", func() {
			type counter struct{ n int }
			c := &counter{}
			w := Bound(c, func(recv *counter, _ *WorkerContext) { recv.n++ })

			w.run(nil)
			w.run(nil)
			So(c.n, ShouldEqual, 2)
		})

		Convey("WithGroup attaches the compressed payload without mutating its input", func() {
			w := Func(func(*WorkerContext) {})
			tagged := WithGroup(w, GroupID(7))

			So(w.Group(), ShouldEqual, GroupID(0))
			So(tagged.Group(), ShouldEqual, GroupID(7))
		})
	})
}
