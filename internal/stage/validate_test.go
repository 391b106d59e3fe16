package stage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayload_Complete(t *testing.T) {
	for _, s := range []Stage{Research, Strategy, Evaluation, FieldSuggestion} {
		t.Run(string(s), func(t *testing.T) {
			assert.NoError(t, ValidatePayload(s, ValidPayload(s)))
		})
	}
}

func TestValidatePayload_MissingKey(t *testing.T) {
	p := ValidPayload(Research)
	delete(p, "personas")

	err := ValidatePayload(Research, p)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, Research, schemaErr.Stage)
	assert.Equal(t, []string{"personas"}, schemaErr.Missing)
}

func TestValidatePayload_EmptyValues(t *testing.T) {
	empties := []string{``, `null`, `""`, `{}`, `[]`}
	for _, val := range empties {
		t.Run("value "+val, func(t *testing.T) {
			p := ValidPayload(Research)
			p["swot_analysis"] = json.RawMessage(val)

			var schemaErr *SchemaError
			require.ErrorAs(t, ValidatePayload(Research, p), &schemaErr)
			assert.Contains(t, schemaErr.Missing, "swot_analysis")
		})
	}
}

func TestValidatePayload_ExtraKeysTolerated(t *testing.T) {
	p := ValidPayload(Strategy)
	p["unexpected"] = json.RawMessage(`"extra"`)
	assert.NoError(t, ValidatePayload(Strategy, p))
}
