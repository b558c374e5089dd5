package parallel

import (
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/corestone/pkg/scheduler"
)

func TestFor(t *testing.T) {
	Convey("Given a running scheduler with 4 workers", t, func() {
		s := scheduler.New()
		s.CreateGroup(0, 0, 4, 0)
		s.BeginExecution(nil, nil)
		defer s.EndExecution()

		Convey("For(n=1000) invokes fn exactly once per index", func() {
			var seen [1000]atomic.Int32

			For(s, 0, 0, 1000, func(i int, _ *scheduler.WorkerContext) {
				seen[i].Add(1)
			})

			for i := range seen {
				So(seen[i].Load(), ShouldEqual, 1)
			}
		})

		Convey("For(n=0) is a no-op", func() {
			called := false
			For(s, 0, 0, 0, func(int, *scheduler.WorkerContext) { called = true })
			So(called, ShouldBeFalse)
		})
	})
}
