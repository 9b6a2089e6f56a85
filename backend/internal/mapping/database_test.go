package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soar/padinput/backend/internal/test"
)

func TestBuiltinRecordsParse(t *testing.T) {
	for _, rec := range builtinRecords {
		cfg, err := Parse(rec)
		if test.ExpectSuccess(t, err, rec) {
			test.ExpectFailure(t, cfg.IsDefault(), cfg.Name)
		}
	}
	_, err := Parse(unmappedRecord)
	test.ExpectSuccess(t, err)
}

func TestLookupFallback(t *testing.T) {
	db := NewDatabase()

	g, err := ParseGUID("ffffffffffffffffffffffffffffffff")
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, db.Has(g))

	cfg := db.Lookup(g)
	test.ExpectSuccess(t, cfg.IsDefault())
	test.ExpectEquality(t, cfg.Name, "Unmapped Controller")

	// cached
	test.ExpectEquality(t, db.Lookup(ZeroGUID), cfg)
}

func TestLookupCaches(t *testing.T) {
	db := NewDatabase()
	db.SetPlatform("")

	cfg, err := db.Add("03000000aaaa0000bbbb000000000000,Cached,a:b3")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.Lookup(cfg.GUID), cfg)
}

func TestAddMalformedLeavesDatabase(t *testing.T) {
	db := NewDatabase()

	before := make(map[GUID]*Configuration)
	for _, g := range db.GUIDs() {
		before[g] = db.Lookup(g)
	}
	n := db.Len()

	_, err := db.Add("03000000aaaa0000bbbb000000000000,two fields")
	test.ExpectError(t, err, ErrFormat)

	test.ExpectEquality(t, db.Len(), n)
	for g, cfg := range before {
		test.ExpectEquality(t, db.Lookup(g), cfg, g)
	}
}

func TestAddReplaces(t *testing.T) {
	db := NewDatabase()

	g := MakeGUID(BusUSB, 0x1234, 0x5678, 0)
	_, err := db.Add(g.String() + ",First,a:b0")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.Lookup(g).Name, "First")

	_, err = db.Add(g.String() + ",Second,a:b1")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.Lookup(g).Name, "Second")

	rec, ok := db.Record(g)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, rec, g.String()+",Second,a:b1")
}

func TestAddFromReader(t *testing.T) {
	db := NewDatabase()
	db.SetPlatform("Linux")

	src := strings.Join([]string{
		"# comment",
		"",
		"03000000111100002222000000000000,Linux Pad,a:b0,platform:Linux,",
		"03000000333300004444000000000000,Windows Pad,a:b0,platform:Windows,",
		"03000000555500006666000000000000,Any Pad,a:b0,",
	}, "\n")

	n, err := db.AddFromReader(strings.NewReader(src))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 2)

	linux := MakeGUID(BusUSB, 0x1111, 0x2222, 0)
	windows := MakeGUID(BusUSB, 0x3333, 0x4444, 0)
	test.ExpectSuccess(t, db.Has(linux))
	test.ExpectFailure(t, db.Has(windows))
}

func TestAddFromReaderAtomic(t *testing.T) {
	db := NewDatabase()
	n := db.Len()

	src := "03000000111100002222000000000000,Good,a:b0\nbroken\n"
	_, err := db.AddFromReader(strings.NewReader(src))
	test.ExpectError(t, err, ErrFormat)
	test.ExpectSuccess(t, strings.Contains(err.Error(), "line 2"))
	test.ExpectEquality(t, db.Len(), n)
}

func TestAddFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamecontrollerdb.txt")
	err := os.WriteFile(path, []byte("03000000111100002222000000000000,File Pad,a:b0,\n"), 0o644)
	test.DemandSuccess(t, err)

	db := NewDatabase()
	n, err := db.AddFromFile(path)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 1)
	test.ExpectEquality(t, db.Lookup(MakeGUID(BusUSB, 0x1111, 0x2222, 0)).Name, "File Pad")

	_, err = db.AddFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	test.ExpectFailure(t, err)
}

func TestPlatformName(t *testing.T) {
	test.ExpectEquality(t, platformName("linux"), "Linux")
	test.ExpectEquality(t, platformName("darwin"), "Mac OS X")
	test.ExpectEquality(t, platformName("plan9"), "")
}

func TestLookupLooseMatch(t *testing.T) {
	db := NewDatabase()
	db.SetPlatform("")

	exact := MakeGUID(BusUSB, 0xabcd, 0x0001, 0x0110)
	_, err := db.Add(exact.String() + ",Versioned Pad,a:b0")
	test.DemandSuccess(t, err)

	// same device, version and checksum unknown
	g := MakeGUID(BusUSB, 0xabcd, 0x0001, 0)
	test.ExpectEquality(t, db.Lookup(g).Name, "Versioned Pad")
	g[2] = 0x7f
	test.ExpectEquality(t, db.Lookup(g).Name, "Versioned Pad")

	// the bus is part of the identity
	test.ExpectEquality(t, db.Lookup(MakeGUID(BusBluetooth, 0xabcd, 0x0001, 0)).IsDefault(), true)

	// an exact record added later takes over
	_, err = db.Add(MakeGUID(BusUSB, 0xabcd, 0x0001, 0).String() + ",Plain Pad,a:b1")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, db.Lookup(MakeGUID(BusUSB, 0xabcd, 0x0001, 0)).Name, "Plain Pad")
}

func TestLookupCachesResolved(t *testing.T) {
	db := NewDatabase()
	db.SetPlatform("")

	g := MakeGUID(BusUSB, 0x2222, 0x0003, 0)
	cfg := db.Lookup(g)
	test.ExpectSuccess(t, cfg.IsDefault())
	test.ExpectEquality(t, db.resolved[g], cfg)

	// a record that matches loosely replaces the cached fallback
	n, err := db.AddFromReader(strings.NewReader(MakeGUID(BusUSB, 0x2222, 0x0003, 0x0200).String() + ",Late Pad,a:b0\n"))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, n, 1)
	_, ok := db.resolved[g]
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, db.Lookup(g).Name, "Late Pad")
	test.ExpectEquality(t, db.resolved[g].Name, "Late Pad")
}
