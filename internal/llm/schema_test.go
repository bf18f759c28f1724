// AngelaMos | 2026
// schema_test.go

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moodSchema struct {
	Happiness float64 `json:"happiness"`
	Nested    struct {
		Note string `json:"note"`
	} `json:"nested"`
}

func TestGenerateSchemaIsStrict(t *testing.T) {
	schema, err := GenerateSchema[moodSchema]()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "$schema")
	assert.ElementsMatch(t, []string{"happiness", "nested"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	happiness, ok := props["happiness"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", happiness["type"])

	nested, ok := props["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, nested["additionalProperties"])
	assert.ElementsMatch(t, []string{"note"}, nested["required"])
}
