package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocRegistered(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/chat")
	assert.Contains(t, paths, "/api/v1/documents/upload")
	assert.Contains(t, paths, "/api/v1/search")
	assert.Contains(t, paths, "/health")
}
