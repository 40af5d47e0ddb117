// Package appcache implements the section-keyed key/value cache backing the
// contract types not yet migrated to a dedicated registry.
//
// The cache holds derived state only. It is rebuilt from the chain on every
// replay and is never persisted, so it deliberately lives in memory. All
// access happens under the caller's chain-state serialization; the cache has
// no locking of its own.
package appcache

import "sort"

// Section partitions the cache by contract type.
type Section string

// Sections currently served by the cache.
const (
	SectionProtocol Section = "protocol"
	SectionScraper  Section = "scraper"
)

// StringToSection maps a contract type wire string to its cache section. An
// unknown string maps to an empty section that nothing reads.
func StringToSection(input string) Section {
	switch input {
	case "protocol":
		return SectionProtocol
	case "scraper":
		return SectionScraper
	}

	return Section("")
}

// Entry is a cached value stamped with the time of the transaction that
// carried it.
type Entry struct {
	Value string
	Time  int64
}

// Cache is a section-keyed key/value store.
type Cache struct {
	sections map[Section]map[string]Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		sections: make(map[Section]map[string]Entry),
	}
}

// Put writes the entry for the key in the section.
func (c *Cache) Put(section Section, key, value string, time int64) {
	entries, found := c.sections[section]
	if !found {
		entries = make(map[string]Entry)
		c.sections[section] = entries
	}

	entries[key] = Entry{Value: value, Time: time}
}

// Get returns the entry for the key in the section.
func (c *Cache) Get(section Section, key string) (Entry, bool) {
	entry, found := c.sections[section][key]

	return entry, found
}

// DeleteKey removes the key from the section.
func (c *Cache) DeleteKey(section Section, key string) {
	delete(c.sections[section], key)
}

// Clear drops every entry of the section.
func (c *Cache) Clear(section Section) {
	delete(c.sections, section)
}

// Keys returns the keys of the section in lexical order.
func (c *Cache) Keys(section Section) []string {
	keys := make([]string, 0, len(c.sections[section]))
	for key := range c.sections[section] {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// Len returns the number of entries in the section.
func (c *Cache) Len(section Section) int {
	return len(c.sections[section])
}
