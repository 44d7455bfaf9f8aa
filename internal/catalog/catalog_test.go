package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/common/errors"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.True(t, c.HasDistrict("Khurda"))
	assert.True(t, c.HasBlock("Khurda", "Bhubaneswar"))
	assert.False(t, c.HasBlock("Puri", "Bhubaneswar"))
	assert.False(t, c.HasBlock("Nowhere", "Bhubaneswar"))
	assert.True(t, c.HasCategory("General"))
	assert.False(t, c.HasCategory("general"))
	assert.NotEmpty(t, c.Version())

	districts := c.Districts()
	require.NotEmpty(t, districts)
	for i := 1; i < len(districts); i++ {
		assert.LessOrEqual(t, districts[i-1].Name, districts[i].Name)
	}
	assert.Contains(t, c.Blocks("Khurda"), "Jatni")
	assert.Nil(t, c.Blocks("Nowhere"))
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Default()
	blocks := c.Blocks("Khurda")
	blocks[0] = "mutated"
	assert.NotEqual(t, "mutated", c.Blocks("Khurda")[0])

	cats := c.Categories()
	cats[0] = "mutated"
	assert.NotEqual(t, "mutated", c.Categories()[0])
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{`},
		{name: "missing categories", doc: `{"districts":[{"id":"A","name":"A","blocks":["x"]}]}`},
		{name: "empty blocks", doc: `{"districts":[{"id":"A","name":"A","blocks":[]}],"categories":["General"]}`},
		{name: "duplicate category", doc: `{"districts":[{"id":"A","name":"A","blocks":["x"]}],"categories":["G","G"]}`},
		{name: "unknown field", doc: `{"districts":[{"id":"A","name":"A","blocks":["x"]}],"categories":["G"],"extra":1}`},
		{name: "duplicate district", doc: `{"districts":[{"id":"A","name":"A","blocks":["x"]},{"id":"A","name":"B","blocks":["y"]}],"categories":["G"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogInvalid))
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.HasDistrict("Khurda"))

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "test",
		"districts": [{"id": "D1", "name": "District One", "blocks": ["B1", "B2"]}],
		"categories": ["VIP"]
	}`), 0o600))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version())
	assert.True(t, c.HasBlock("D1", "B2"))
	assert.True(t, c.HasCategory("VIP"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogInvalid))
}
