package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLabelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultLabels(t *testing.T) {
	labels := DefaultLabels()

	assert.Equal(t, 27, labels.Count())
	assert.Equal(t, "Abstract_Expressionism", labels.Name(0))
	assert.Equal(t, "Impressionism", labels.Name(12))
	assert.Equal(t, "Ukiyo_e", labels.Name(26))
}

func TestLoadLabels_ArrayForm(t *testing.T) {
	path := writeLabelFile(t, `["Baroque", "Cubism", "Rococo"]`)

	labels, err := LoadLabels(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"Baroque", "Cubism", "Rococo"}, labels.Names())
}

func TestLoadLabels_IndexKeyedForm(t *testing.T) {
	path := writeLabelFile(t, `{"2": "Rococo", "0": "Baroque", "1": "Cubism"}`)

	labels, err := LoadLabels(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"Baroque", "Cubism", "Rococo"}, labels.Names())
}

func TestLoadLabels_RejectsIndexGap(t *testing.T) {
	path := writeLabelFile(t, `{"0": "Baroque", "2": "Rococo"}`)

	_, err := LoadLabels(path)

	assert.Error(t, err)
}

func TestLoadLabels_RejectsNonIntegerKey(t *testing.T) {
	path := writeLabelFile(t, `{"0": "Baroque", "one": "Cubism"}`)

	_, err := LoadLabels(path)

	assert.Error(t, err)
}

func TestLoadLabels_RejectsDuplicateName(t *testing.T) {
	path := writeLabelFile(t, `["Baroque", "Baroque"]`)

	_, err := LoadLabels(path)

	assert.ErrorContains(t, err, "duplicate style")
}

func TestLoadLabels_RejectsEmptyName(t *testing.T) {
	path := writeLabelFile(t, `["Baroque", ""]`)

	_, err := LoadLabels(path)

	assert.Error(t, err)
}

func TestLoadLabels_RejectsEmptyList(t *testing.T) {
	path := writeLabelFile(t, `[]`)

	_, err := LoadLabels(path)

	assert.Error(t, err)
}

func TestLoadLabels_MissingFile(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "absent.json"))

	assert.Error(t, err)
}

func TestLabelMap_NamesReturnsCopy(t *testing.T) {
	labels := DefaultLabels()

	names := labels.Names()
	names[0] = "mutated"

	assert.Equal(t, "Abstract_Expressionism", labels.Name(0))
}
