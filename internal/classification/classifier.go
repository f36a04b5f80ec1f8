// Package classification maps spreadsheet tab names to canonical record types.
package classification

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sheetsync/internal/model"
	"golang.org/x/text/unicode/norm"
)

// AliasTable lists, per record type, the tab names that map to it.
type AliasTable struct {
	Buckets map[model.RecordType][]string
	Version int
}

// Classifier resolves tab names against an alias table. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	exact   map[string]model.RecordType
	compact map[string]model.RecordType
	version int
}

// NewClassifier builds lookup indexes for the given alias table.
func NewClassifier(table AliasTable) (*Classifier, error) {
	c := &Classifier{
		exact:   make(map[string]model.RecordType),
		compact: make(map[string]model.RecordType),
		version: table.Version,
	}

	for recordType, aliases := range table.Buckets {
		if !recordType.IsValid() {
			return nil, fmt.Errorf("alias table v%d: unknown record type %q", table.Version, recordType)
		}
		for _, alias := range aliases {
			normalized := Normalize(alias)
			if normalized == "" {
				return nil, fmt.Errorf("alias table v%d: empty alias for %s", table.Version, recordType)
			}
			if err := index(c.exact, normalized, recordType); err != nil {
				return nil, fmt.Errorf("alias table v%d: %w", table.Version, err)
			}
			if err := index(c.compact, stripSpaces(normalized), recordType); err != nil {
				return nil, fmt.Errorf("alias table v%d: %w", table.Version, err)
			}
		}
	}

	return c, nil
}

func index(m map[string]model.RecordType, key string, recordType model.RecordType) error {
	if existing, ok := m[key]; ok && existing != recordType {
		return fmt.Errorf("alias %q maps to both %s and %s", key, existing, recordType)
	}
	m[key] = recordType
	return nil
}

// Version returns the alias table version the classifier was built from.
func (c *Classifier) Version() int {
	return c.version
}

// Classify returns the record type for tabName. The boolean is false when
// the tab matches no alias and should be treated as a custom tab.
func (c *Classifier) Classify(tabName string) (model.RecordType, bool) {
	normalized := Normalize(tabName)
	if normalized == "" {
		return "", false
	}
	if t, ok := c.exact[normalized]; ok {
		return t, true
	}
	if t, ok := c.compact[stripSpaces(normalized)]; ok {
		return t, true
	}
	return "", false
}

// Normalize lowercases, trims and collapses whitespace runs in a tab name.
// Input is first composed to NFC so decomposed diacritics compare equal.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

var defaultClassifier = mustNewClassifier(DefaultAliases())

func mustNewClassifier(table AliasTable) *Classifier {
	c, err := NewClassifier(table)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the classifier built from DefaultAliases.
func Default() *Classifier {
	return defaultClassifier
}

// Classify resolves tabName with the default alias table.
func Classify(tabName string) (model.RecordType, bool) {
	return defaultClassifier.Classify(tabName)
}
