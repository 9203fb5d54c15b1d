package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ColumnsFile is the on-disk shape of the feature schema artifact.
type ColumnsFile struct {
	DataColumns []string `json:"data_columns"`
}

// FeatureSchema is the ordered list of feature names every prediction
// request must supply. It is never modified after it is built.
type FeatureSchema struct {
	names []string
	index map[string]int
}

// NewFeatureSchema validates names and returns a schema over a private copy.
func NewFeatureSchema(names []string) (FeatureSchema, error) {
	if len(names) == 0 {
		return FeatureSchema{}, errors.New("feature schema is empty")
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return FeatureSchema{}, fmt.Errorf("feature schema: empty name at position %d", i)
		}
	}
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return FeatureSchema{}, fmt.Errorf("feature schema: duplicate names %v", dups)
	}

	owned := append([]string(nil), names...)
	index := make(map[string]int, len(owned))
	for i, name := range owned {
		index[name] = i
	}
	return FeatureSchema{names: owned, index: index}, nil
}

// ParseFeatureSchema decodes a {"data_columns": [...]} document.
func ParseFeatureSchema(data []byte) (FeatureSchema, error) {
	var f ColumnsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return FeatureSchema{}, fmt.Errorf("decode columns: %w", err)
	}
	if f.DataColumns == nil {
		return FeatureSchema{}, errors.New("decode columns: data_columns is missing")
	}
	return NewFeatureSchema(f.DataColumns)
}

// Names returns the feature names in schema order.
func (s FeatureSchema) Names() []string {
	return append([]string(nil), s.names...)
}

func (s FeatureSchema) Len() int { return len(s.names) }

// Index returns the position of name, or -1.
func (s FeatureSchema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}
