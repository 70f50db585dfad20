package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmcp/odata-vdm/internal/config"
	"github.com/zmcp/odata-vdm/internal/wire"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestApp(t *testing.T, mutate func(*config.Config)) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	a, err := newApp(cfg, &out, strings.NewReader(""))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, &out
}

func parseOutput(t *testing.T, out *bytes.Buffer) wire.Object {
	t.Helper()
	obj, err := wire.ParseObject(out.Bytes())
	require.NoError(t, err)
	return obj
}

func TestDecode_V2Entity(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) { c.Protocol = "2.0" })
	path := writeFile(t, "product.json", `{"d": {
		"__metadata": {"type": "GroceryStore.Product", "etag": "W/\"1\""},
		"Id": 1,
		"Name": "Apple",
		"Price": "1.50",
		"toVendor": {"__deferred": {"uri": "Products(1)/toVendor"}},
		"Promo": "yes"
	}}`)

	require.NoError(t, a.Decode(path))
	got := parseOutput(t, out)

	assert.Equal(t, "GroceryStore.Product", got["type"])
	assert.Equal(t, `W/"1"`, got["version"])
	assert.Equal(t, wire.Object{"Promo": "yes"}, got["customFields"])
	assert.Equal(t, wire.Object{
		"Id":    json.Number("1"),
		"Name":  "Apple",
		"Price": "1.50",
	}, got["fields"])
}

func TestDecode_V4Collection(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) { c.Type = "Floor" })
	path := writeFile(t, "floors.json", `{
		"@odata.context": "$metadata#Floors",
		"@odata.count": 2,
		"value": [
			{"@odata.type": "#GroceryStore.ServiceFloor", "Id": 1, "Staffed": true, "ServiceWindow": "PT8H"},
			{"Id": 2, "Level": -1}
		]
	}`)

	require.NoError(t, a.Decode(path))
	got := parseOutput(t, out)

	assert.Equal(t, json.Number("2"), got["count"])
	entities := got["entities"].(wire.Array)
	require.Len(t, entities, 2)
	first := entities[0].(wire.Object)
	assert.Equal(t, "GroceryStore.ServiceFloor", first["type"])
	assert.Equal(t, "PT8H", first["fields"].(wire.Object)["ServiceWindow"])
	assert.Equal(t, "GroceryStore.Floor", entities[1].(wire.Object)["type"])
}

func TestEncode_LenientInput(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) {
		c.Protocol = "2.0"
		c.Type = "GroceryStore.Receipt"
	})
	path := writeFile(t, "receipt.jsonc", `{
		// v2 payload with comments
		"Id": 7,
		"TotalAmount": "19.99",
		"IssuedAt": "/Date(1709164800000)/",
		"ProductCounts": {"results": [{"ProductId": 1, "Quantity": 3},]},
	}`)

	require.NoError(t, a.Encode(path))
	got := parseOutput(t, out)

	assert.Equal(t, "19.99", got["TotalAmount"])
	assert.Equal(t, "/Date(1709164800000)/", got["IssuedAt"])
	assert.Equal(t, "GroceryStore.Receipt", got["__metadata"].(wire.Object)["type"])
	counts := got["ProductCounts"].(wire.Array)
	require.Len(t, counts, 1)
	assert.Equal(t, json.Number("3"), counts[0].(wire.Object)["Quantity"])
}

func TestCreate_DropsNullsAndEmptyArrays(t *testing.T) {
	a, out := newTestApp(t, nil)
	path := writeFile(t, "product.json", `{"Id": 1, "Name": "Apple", "Categories": [], "Price": null}`)

	require.NoError(t, a.Create(path))
	got := parseOutput(t, out)
	assert.Equal(t, wire.Object{
		"@odata.type": "#GroceryStore.Product",
		"Id":          json.Number("1"),
		"Name":        "Apple",
	}, got)
}

func TestUpdate(t *testing.T) {
	original := `{"@odata.etag": "W/\"4\"", "Id": 1, "Name": "Apple", "Price": 1.50, "Categories": ["Fruits"]}`
	changed := `{"Id": 1, "Name": "Green Apple", "Price": 1.50, "Categories": ["Fruits", "Vegetables"]}`

	tests := []struct {
		name     string
		protocol string
		strategy string
		include  string
		exclude  string
		method   string
		keys     []string
	}{
		{"patch", "4.0", "patch", "", "", "PATCH", []string{"Categories", "Name"}},
		{"merge", "2.0", "patch", "Id", "", "MERGE", []string{"Categories", "Id", "Name"}},
		{"put", "4.0", "put", "", "Image", "PUT", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := newTestApp(t, func(c *config.Config) {
				c.Protocol = tt.protocol
				c.Strategy = tt.strategy
				c.Include = tt.include
				c.Exclude = tt.exclude
			})
			origPath := writeFile(t, "original.json", original)
			changedPath := writeFile(t, "changed.json", changed)

			require.NoError(t, a.Update(origPath, changedPath))
			got := parseOutput(t, out)

			assert.Equal(t, tt.method, got["method"])
			assert.Equal(t, `W/"4"`, got["ifMatch"])
			body := got["body"].(wire.Object)
			if tt.keys != nil {
				var keys []string
				for k := range body {
					keys = append(keys, k)
				}
				assert.ElementsMatch(t, tt.keys, keys)
				return
			}
			assert.NotContains(t, body, "Image")
			assert.NotContains(t, body, "@odata.etag")
			assert.Equal(t, "Green Apple", body["Name"])
			assert.Contains(t, body, "LastRestocked")
		})
	}
}

func TestUpdate_RejectsCollections(t *testing.T) {
	a, _ := newTestApp(t, nil)
	list := writeFile(t, "list.json", `{"value": [{"Id": 1}]}`)
	single := writeFile(t, "single.json", `{"Id": 1}`)

	err := a.Update(list, single)
	assert.ErrorContains(t, err, "expected a single entity")
}

func TestErrorPayload(t *testing.T) {
	a, _ := newTestApp(t, func(c *config.Config) { c.Protocol = "2.0" })
	path := writeFile(t, "error.json", `{"error": {"code": "SY/530", "message": {"lang": "en", "value": "Product not found"}}}`)

	err := a.Decode(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SY/530")
	assert.Contains(t, err.Error(), "Product not found")
}

func TestValueFormatError(t *testing.T) {
	a, _ := newTestApp(t, nil)
	path := writeFile(t, "bad.json", `{"Id": 1, "Sku": "not-a-guid"}`)

	err := a.Decode(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sku")
}

func TestYAMLOutput(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) { c.Output = "yaml" })
	path := writeFile(t, "product.json", `{"Id": 1, "Name": "42", "Price": 0.000000002}`)

	require.NoError(t, a.Encode(path))
	text := out.String()
	assert.Contains(t, text, "Price: 0.000000002\n")
	assert.Contains(t, text, `Name: "42"`)
	assert.Contains(t, text, "Id: 1\n")
	assert.Contains(t, text, "BestBefore: null\n")
}

func TestMaskedOutput(t *testing.T) {
	a, out := newTestApp(t, func(c *config.Config) {
		c.Type = "Customer"
		c.Mask = true
	})
	path := writeFile(t, "customer.json", `{"Id": 1, "Name": "Jane", "LoyaltyCard": "6f1a2b3c-4d5e-4f60-8a7b-9c0d1e2f3a4b"}`)

	require.NoError(t, a.Encode(path))
	got := parseOutput(t, out)
	assert.Equal(t, "****1e2f3a4b", got["LoyaltyCard"])
	assert.Equal(t, "Jane", got["Name"])
}

func TestTraceFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "trace.log")
	a, _ := newTestApp(t, func(c *config.Config) {
		c.Trace = true
		c.TraceFile = traceFile
	})
	path := writeFile(t, "product.json", `{"Id": 1}`)

	require.NoError(t, a.Create(path))
	require.NoError(t, a.Close())

	data, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"input"`)
	assert.Contains(t, string(data), `"message":"create"`)
}

func TestUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Type = "Spaceship"
	_, err := newApp(cfg, &bytes.Buffer{}, strings.NewReader(""))
	assert.ErrorContains(t, err, "unknown entity type")
}
