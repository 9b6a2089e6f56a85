package slots_test

import (
	"testing"

	"github.com/soar/padinput/backend/internal/slots"
	"github.com/soar/padinput/backend/internal/test"
)

func TestPlaceAndRelease(t *testing.T) {
	tbl := slots.New[string]()

	idx := tbl.Place(0, 100, "first")
	test.ExpectEquality(t, idx, 0)
	idx = tbl.Place(5, 101, "second")
	test.ExpectEquality(t, idx, 1, "device id beyond table appends")
	test.ExpectEquality(t, tbl.Len(), 2)

	got, ok := tbl.Resolve(101)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, got, 1)

	idx, ok = tbl.Release(100)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, idx, 0)

	_, ok = tbl.Release(100)
	test.ExpectFailure(t, ok, "second release is ignored")

	// slot data survives release
	test.ExpectEquality(t, *tbl.Get(0), "first")
	test.ExpectEquality(t, tbl.Len(), 2)
	test.ExpectEquality(t, tbl.Active(), 1)
}

func TestReuseByDeviceID(t *testing.T) {
	tbl := slots.New[int]()
	tbl.Place(0, 1, 10)
	tbl.Release(1)

	idx := tbl.Place(0, 7, 20)
	test.ExpectEquality(t, idx, 0)
	test.ExpectEquality(t, *tbl.Get(0), 20)

	_, ok := tbl.Resolve(1)
	test.ExpectFailure(t, ok)
	got, ok := tbl.Resolve(7)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, got, 0)
}

func TestHeldSlotIsNotReused(t *testing.T) {
	tbl := slots.New[int]()
	tbl.Place(0, 1, 10)
	tbl.Place(1, 2, 11)
	tbl.Release(1)

	// position 1 is still held by instance 2
	test.ExpectFailure(t, tbl.Reusable(1, 3))
	idx := tbl.Place(1, 3, 12)
	test.ExpectEquality(t, idx, 2)
	test.ExpectEquality(t, *tbl.Get(1), 11)

	got, ok := tbl.Resolve(2)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, got, 1)
	test.ExpectEquality(t, tbl.Active(), 2)

	// the freed position is still available
	test.ExpectSuccess(t, tbl.Reusable(0, 4))
	test.ExpectEquality(t, tbl.Place(0, 4, 13), 0)
}

func TestSameInstanceReplaced(t *testing.T) {
	tbl := slots.New[int]()
	tbl.Place(0, 1, 10)

	idx := tbl.Place(0, 1, 11)
	test.ExpectEquality(t, idx, 0)
	test.ExpectEquality(t, *tbl.Get(0), 11)
	test.ExpectEquality(t, tbl.Len(), 1)
}

func TestGetOutOfRange(t *testing.T) {
	tbl := slots.New[int]()
	if tbl.Get(0) != nil || tbl.Get(-1) != nil {
		t.Errorf("expected nil for unassigned slot")
	}
}
