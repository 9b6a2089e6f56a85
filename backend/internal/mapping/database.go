package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
)

// Database maps device GUIDs to mapping records. Records are parsed when
// first looked up and the result is cached.
//
// A Database is not safe for concurrent use.
type Database struct {
	records map[GUID]string
	parsed  map[GUID]*Configuration

	// configurations found for GUIDs without a record of their own, by loose
	// match or fallback. Cleared whenever records are added
	resolved map[GUID]*Configuration

	// platform used to filter records carrying a platform field
	platform string
}

// NewDatabase creates a Database seeded with the built-in records.
func NewDatabase() *Database {
	db := &Database{
		records:  make(map[GUID]string),
		parsed:   make(map[GUID]*Configuration),
		resolved: make(map[GUID]*Configuration),
		platform: platformName(runtime.GOOS),
	}

	for _, rec := range builtinRecords {
		// the built-in table is checked by the tests so the guid is known to
		// be good. records for other platforms are dropped here
		if !db.forPlatform(rec) {
			continue
		}
		f, _, _ := strings.Cut(rec, ",")
		g, err := ParseGUID(normalizeGUIDText(f))
		if err != nil {
			continue
		}
		db.records[g] = rec
	}
	db.records[ZeroGUID] = unmappedRecord

	return db
}

// Lookup returns the configuration for a GUID. Devices without a record get
// the "Unmapped Controller" configuration.
func (db *Database) Lookup(guid GUID) *Configuration {
	if cfg, ok := db.parsed[guid]; ok {
		return cfg
	}

	if cfg, ok := db.resolved[guid]; ok {
		return cfg
	}

	rec, ok := db.records[guid]
	if !ok {
		g, found := db.looseMatch(guid)
		if !found {
			g = ZeroGUID
		}
		cfg := db.Lookup(g)
		db.resolved[guid] = cfg
		return cfg
	}

	cfg, err := Parse(rec)
	if err != nil {
		// records only enter the database through Add() or the built-in
		// table, both of which are validated
		return db.Lookup(ZeroGUID)
	}

	db.parsed[guid] = cfg
	return cfg
}

// looseMatch finds a record for a device whose backend reports a GUID with a
// different name checksum or product version than the record. Bus, vendor
// and product must match. With several candidates the lowest GUID wins.
func (db *Database) looseMatch(guid GUID) (GUID, bool) {
	if guid.IsZero() {
		return ZeroGUID, false
	}
	want := guid.loose()
	for _, g := range db.GUIDs() {
		if !g.IsZero() && g.loose() == want {
			return g, true
		}
	}
	return ZeroGUID, false
}

// Has is true if there is a record for the GUID. The fallback record is not
// considered for any GUID other than ZeroGUID.
func (db *Database) Has(guid GUID) bool {
	_, ok := db.records[guid]
	return ok
}

// Record returns the mapping record stored for a GUID.
func (db *Database) Record(guid GUID) (string, bool) {
	rec, ok := db.records[guid]
	return rec, ok
}

// GUIDs returns every GUID with a record, in ascending order.
func (db *Database) GUIDs() []GUID {
	l := make([]GUID, 0, len(db.records))
	for g := range db.records {
		l = append(l, g)
	}
	sort.Slice(l, func(i, j int) bool {
		return strings.Compare(l[i].String(), l[j].String()) < 0
	})
	return l
}

// Len is the number of records, including the fallback record.
func (db *Database) Len() int {
	return len(db.records)
}

// Add parses and stores a mapping record, replacing any existing record for
// the same GUID. The database is unchanged if the record is malformed.
func (db *Database) Add(record string) (*Configuration, error) {
	record = strings.TrimSpace(record)
	cfg, err := Parse(record)
	if err != nil {
		return nil, err
	}
	db.records[cfg.GUID] = record
	db.parsed[cfg.GUID] = cfg
	clear(db.resolved)
	return cfg, nil
}

// AddFromReader adds one record per line. Blank lines and lines starting with
// '#' are ignored, as are records with a platform field naming a different
// platform.
//
// Every line is parsed before anything is stored. If any line is malformed
// the database is unchanged and the error names the line. Returns the number
// of records added.
func (db *Database) AddFromReader(r io.Reader) (int, error) {
	type pending struct {
		record string
		cfg    *Configuration
	}
	var add []pending

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		rec := strings.TrimSpace(scanner.Text())
		if rec == "" || strings.HasPrefix(rec, "#") {
			continue
		}
		cfg, err := Parse(rec)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if !db.forPlatform(rec) {
			continue
		}
		add = append(add, pending{record: rec, cfg: cfg})
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	for _, p := range add {
		db.records[p.cfg.GUID] = p.record
		db.parsed[p.cfg.GUID] = p.cfg
	}
	if len(add) > 0 {
		clear(db.resolved)
	}
	return len(add), nil
}

// AddFromFile is AddFromReader for a file on disk.
func (db *Database) AddFromFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := db.AddFromReader(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// SetPlatform changes the platform used to filter records added afterwards.
// An empty name accepts records for every platform.
func (db *Database) SetPlatform(name string) {
	db.platform = name
}

func (db *Database) forPlatform(record string) bool {
	p, ok := platformOf(record)
	return !ok || db.platform == "" || p == db.platform
}

// platformName converts a GOOS value to the name used in the platform field
// of mapping records.
func platformName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "darwin":
		return "Mac OS X"
	case "android":
		return "Android"
	case "ios":
		return "iOS"
	}
	return ""
}
