package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// defaultStyles is the label set the bundled model was trained on: the 27
// WikiArt style categories, in training index order. Position i corresponds
// to classifier output i.
var defaultStyles = []string{
	"Abstract_Expressionism",
	"Action_painting",
	"Analytical_Cubism",
	"Art_Nouveau",
	"Baroque",
	"Color_Field_Painting",
	"Contemporary_Realism",
	"Cubism",
	"Early_Renaissance",
	"Expressionism",
	"Fauvism",
	"High_Renaissance",
	"Impressionism",
	"Mannerism_Late_Renaissance",
	"Minimalism",
	"Naive_Art_Primitivism",
	"New_Realism",
	"Northern_Renaissance",
	"Pointillism",
	"Pop_Art",
	"Post_Impressionism",
	"Realism",
	"Rococo",
	"Romanticism",
	"Symbolism",
	"Synthetic_Cubism",
	"Ukiyo_e",
}

// LabelMap is the immutable, ordered mapping from classifier output index to
// style name. It is loaded once at startup and never re-sorted.
type LabelMap struct {
	names []string
}

// DefaultLabels returns the built-in WikiArt label map.
func DefaultLabels() *LabelMap {
	names := make([]string, len(defaultStyles))
	copy(names, defaultStyles)
	return &LabelMap{names: names}
}

// LoadLabels reads a label map from a JSON file. Two shapes are accepted: a
// plain array of names, or an object keyed by stringified index
// ({"0": "Abstract_Expressionism", ...}) as written by the training pipeline.
func LoadLabels(path string) (*LabelMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label map: %w", err)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return newLabelMap(names)
	}

	var indexed map[string]string
	if err := json.Unmarshal(raw, &indexed); err != nil {
		return nil, fmt.Errorf("label map %s is neither a JSON array nor an index-keyed object: %w", path, err)
	}
	names = make([]string, len(indexed))
	for key, name := range indexed {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("label map key %q is not an integer index", key)
		}
		if idx < 0 || idx >= len(indexed) {
			return nil, fmt.Errorf("label map index %d out of range, want contiguous 0..%d", idx, len(indexed)-1)
		}
		if names[idx] != "" {
			return nil, fmt.Errorf("label map index %d assigned twice", idx)
		}
		names[idx] = name
	}
	return newLabelMap(names)
}

func newLabelMap(names []string) (*LabelMap, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("label map is empty")
	}
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("label map index %d has an empty name", i)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate style %q at indices %d and %d", name, prev, i)
		}
		seen[name] = i
	}
	return &LabelMap{names: names}, nil
}

// Count returns the number of style labels.
func (m *LabelMap) Count() int {
	return len(m.names)
}

// Name returns the style name for a classifier output index.
func (m *LabelMap) Name(i int) string {
	return m.names[i]
}

// Names returns the ordered label list as a copy.
func (m *LabelMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
