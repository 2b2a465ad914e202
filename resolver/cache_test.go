package resolver

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vasyahuyasa/apachelog/log"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type memStore struct {
	entries map[string]Entry
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (s *memStore) Load() (map[string]Entry, error) {
	s.loads++
	return s.entries, s.loadErr
}

func (s *memStore) Save(entries map[string]Entry) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}

	s.entries = map[string]Entry{}
	for k, v := range entries {
		s.entries[k] = v
	}

	return nil
}

func TestCache_Load(t *testing.T) {
	store := &memStore{
		entries: map[string]Entry{
			"1.2.3.4": {Name: "bot.unittesting.org", Aliases: []string{}, Addrs: []string{"1.2.3.4"}},
		},
	}

	c := NewCache(store)
	c.Load()
	c.Load()

	if _, ok := c.Get("1.2.3.4"); !ok {
		t.Errorf("Cache.Get() entry missing after load")
	}

	if store.loads != 1 {
		t.Errorf("store loaded %d times, want 1", store.loads)
	}

	entries := c.Entries()
	if !reflect.DeepEqual(entries, store.entries) {
		t.Errorf("Cache.Entries() = %v, want %v", entries, store.entries)
	}

	delete(entries, "1.2.3.4")
	if c.Len() != 1 {
		t.Errorf("Cache.Entries() returned the cache map, not a copy")
	}

	if c.Dirty() {
		t.Errorf("Cache.Dirty() = true right after load")
	}
}

func TestCache_Load_error(t *testing.T) {
	c := NewCache(&memStore{loadErr: errors.New("broken")})

	if got := c.Len(); got != 0 {
		t.Errorf("Cache.Len() = %d, want 0", got)
	}

	if _, added := c.Add("1.1.1.1", unresolved("1.1.1.1")); !added {
		t.Errorf("Cache.Add() did not add to an empty cache")
	}
}

func TestCache_Add(t *testing.T) {
	c := NewCache(nil)

	first := Entry{Name: "first", Addrs: []string{"1.1.1.1"}}
	second := Entry{Name: "second", Addrs: []string{"1.1.1.1"}}

	got, added := c.Add("1.1.1.1", first)
	if !added || got.Name != "first" {
		t.Errorf("Cache.Add() = %v, %v, want first, true", got, added)
	}

	got, added = c.Add("1.1.1.1", second)
	if added || got.Name != "first" {
		t.Errorf("Cache.Add() = %v, %v, want first, false", got, added)
	}

	if !c.Dirty() {
		t.Errorf("Cache.Dirty() = false after add")
	}
}

func TestCache_Save(t *testing.T) {
	store := &memStore{}
	c := NewCache(store)

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	if store.saves != 0 {
		t.Errorf("clean cache saved %d times", store.saves)
	}

	c.Add("1.1.1.1", unresolved("1.1.1.1"))

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	if store.saves != 1 {
		t.Errorf("store saved %d times, want 1", store.saves)
	}

	if _, ok := store.entries["1.1.1.1"]; !ok {
		t.Errorf("saved entries = %v, want 1.1.1.1", store.entries)
	}
}

func TestCache_Save_error(t *testing.T) {
	c := NewCache(&memStore{saveErr: errors.New("disk full")})
	c.Add("1.1.1.1", unresolved("1.1.1.1"))

	if err := c.Save(); err == nil {
		t.Fatalf("Cache.Save() error = nil, want error")
	}

	if !c.Dirty() {
		t.Errorf("Cache.Dirty() = false after failed save")
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.cache")
	store := NewFileStore(path)

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("FileStore.Load() of missing file error = %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("FileStore.Load() of missing file = %v, want empty", entries)
	}

	want := map[string]Entry{
		"66.249.66.1": {Name: "googlebot", Aliases: []string{"other.googlebot.com"}, Addrs: []string{"66.249.66.1"}},
		"9.9.9.9":     {Name: "9.9.9.9", Aliases: []string{"x"}, Addrs: []string{"9.9.9.9"}},
	}

	if err = store.Save(want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("FileStore.Load() = %#v, want %#v", got, want)
	}
}

func TestFileStore_corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.cache")

	if err := os.WriteFile(path, []byte("\t- not: [yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Errorf("FileStore.Load() error = nil, want error")
	}

	c := NewCache(NewFileStore(path))
	if got := c.Len(); got != 0 {
		t.Errorf("Cache.Len() over corrupt file = %d, want 0", got)
	}
}
