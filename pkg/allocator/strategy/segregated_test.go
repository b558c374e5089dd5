package strategy

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSegregated(t *testing.T) {
	Convey("Given a Segregated strategy over a fresh 1024-byte free block", t, func() {
		blocks := newFakeBlocks()
		s := NewSegregated()
		s.Init()

		whole := blocks.add(1024)
		blocks.SetFree(whole, true)
		s.AddFreeArena(blocks, whole)

		Convey("TryAllocate finds the whole block for a smaller request", func() {
			tk := s.TryAllocate(blocks, 100)
			So(tk.IsSome(), ShouldBeTrue)
			So(tk.Unwrap(), ShouldEqual, whole)
		})

		Convey("TryAllocate does not mutate the free set", func() {
			s.TryAllocate(blocks, 100)
			So(s.TotalFreeNodes(), ShouldEqual, 1)
			So(s.TotalFreeSize(), ShouldEqual, 1024)
		})

		Convey("When Commit splits off a 100-byte block", func() {
			tk := s.TryAllocate(blocks, 100)
			head := s.Commit(blocks, 100, tk.Unwrap())

			Convey("Then the head block is exactly 100 bytes and not free", func() {
				So(blocks.Size(head), ShouldEqual, 100)
				So(blocks.IsFree(head), ShouldBeFalse)
			})

			Convey("Then the remainder re-enters the free set", func() {
				So(s.TotalFreeNodes(), ShouldEqual, 1)
				So(s.TotalFreeSize(), ShouldEqual, 924)
			})

			Convey("Then ValidateIntegrity passes", func() {
				So(s.ValidateIntegrity(blocks), ShouldBeNil)
			})
		})

		Convey("When the exact size is requested, no split occurs", func() {
			tk := s.TryAllocate(blocks, 1024)
			head := s.Commit(blocks, 1024, tk.Unwrap())

			So(head, ShouldEqual, whole)
			So(s.TotalFreeNodes(), ShouldEqual, 0)
			So(s.TotalFreeSize(), ShouldEqual, 0)
		})

		Convey("TryAllocate reports no ticket once nothing is free", func() {
			tk := s.TryAllocate(blocks, 1024)
			s.Commit(blocks, 1024, tk.Unwrap())

			So(s.TryAllocate(blocks, 1).IsNone(), ShouldBeTrue)
		})
	})

	Convey("Given a Segregated strategy with blocks across several size classes", t, func() {
		blocks := newFakeBlocks()
		s := NewSegregated()
		s.Init()

		small := blocks.add(8)
		blocks.SetFree(small, true)
		s.AddFree(blocks, small)

		mid := blocks.add(256)
		blocks.SetFree(mid, true)
		s.AddFree(blocks, mid)

		big := blocks.add(5000)
		blocks.SetFree(big, true)
		s.AddFree(blocks, big)

		Convey("A request only searches classes guaranteed large enough", func() {
			// mid is an exact power of two (256), so it is the smallest
			// member of the class any 129..256-byte request must start
			// searching from.
			tk := s.TryAllocate(blocks, 150)
			So(tk.IsSome(), ShouldBeTrue)
			So(tk.Unwrap(), ShouldEqual, mid)
		})

		Convey("GrowFreeNode re-files a block under its new size class", func() {
			s.GrowFreeNode(blocks, small, 9000)
			tk := s.TryAllocate(blocks, 8000)
			So(tk.IsSome(), ShouldBeTrue)
			So(tk.Unwrap(), ShouldEqual, small)
		})

		Convey("ReplaceAndGrow discards the old handle and files the new one", func() {
			replacement := blocks.add(250)
			blocks.SetFree(replacement, true)
			s.ReplaceAndGrow(blocks, mid, replacement, 250)

			So(s.TryAllocate(blocks, 1).IsSome(), ShouldBeTrue)

			So(s.TotalFreeSize(), ShouldEqual, 8+250+5000)
		})

		Convey("Erase removes a block without touching the others", func() {
			s.Erase(blocks, mid)
			So(s.TotalFreeNodes(), ShouldEqual, 2)

			So(s.TryAllocate(blocks, 150).IsSome(), ShouldBeTrue) // no longer found via mid, but big (class 12) still satisfies it
		})
	})
}
