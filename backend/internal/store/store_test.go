package store_test

import (
	"path/filepath"
	"testing"

	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/store"
	"github.com/soar/padinput/backend/internal/test"
)

const recB = "03000000030000000400000000000000,Pad B,a:b1,b:b0"

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.db")
	s, err := store.Open(path)
	test.DemandSuccess(t, err)

	scratch := mapping.NewDatabase()
	cfgB, err := scratch.Add(recB)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, s.Put(cfgB, recB))

	got, err := s.Get(cfgB.GUID)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, got, recB)

	_, err = s.Get(mapping.MakeGUID(mapping.BusUSB, 9, 9, 0))
	test.ExpectError(t, err, store.ErrNotFound)

	// replacing keeps one record per GUID
	rec2 := "03000000030000000400000000000000,Pad B v2,a:b0"
	test.DemandSuccess(t, s.Put(cfgB, rec2))
	all, err := s.All()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(all), 1)
	test.ExpectEquality(t, all[0], rec2)

	test.DemandSuccess(t, s.Close())

	// records survive a reopen and load into a database
	s, err = store.Open(path)
	test.DemandSuccess(t, err)
	defer s.Close()

	db := mapping.NewDatabase()
	n, err := s.Load(db)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 1)
	test.ExpectEquality(t, db.Lookup(cfgB.GUID).Name, "Pad B v2")

	test.DemandSuccess(t, s.Delete(cfgB.GUID))
	test.DemandSuccess(t, s.Delete(cfgB.GUID))
	all, err = s.All()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(all), 0)
}
