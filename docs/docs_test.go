package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocument(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Swagger  string `json:"swagger"`
		BasePath string `json:"basePath"`
		Info     struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths       map[string]map[string]any `json:"paths"`
		Definitions map[string]any            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, "GrowUp Portal API", doc.Info.Title)
	assert.Equal(t, "1.0", doc.Info.Version)

	tests := []struct {
		path   string
		method string
	}{
		{path: "/auth/login", method: "post"},
		{path: "/auth/me", method: "get"},
		{path: "/content/{id}", method: "get"},
		{path: "/staff/content/{id}", method: "patch"},
		{path: "/payments/webhook", method: "post"},
		{path: "/admin/overview", method: "get"},
		{path: "/admin/audit", method: "get"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			require.Contains(t, doc.Paths, tt.path)
			assert.Contains(t, doc.Paths[tt.path], tt.method)
		})
	}

	for _, name := range []string{"models.Overview", "models.PaymentRecord", "models.ContentPatch", "handlers.MeResponse"} {
		assert.Contains(t, doc.Definitions, name)
	}
}
