package vdm

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

const fullItemPayload = `{
	"@odata.etag": "W/\"7\"",
	"Id": 1,
	"Name": "Apple",
	"Price": 1.50,
	"Color": "Red",
	"Day": "2024-02-29",
	"Tags": ["a"],
	"Address": {
		"@odata.etag": "W/\"8\"",
		"Street": "Main St 1",
		"City": "Springfield",
		"Geo": {"Lat": 1.0, "Lng": 2.0}
	},
	"Parent": {"Id": 0, "Name": "root"},
	"foo": 42
}`

func keys(obj wire.Object) []string {
	out := slices.Sorted(maps.Keys(obj))
	if out == nil {
		return []string{}
	}
	return out
}

func TestUpdateStrategy_Names(t *testing.T) {
	tests := []struct {
		input string
		want  UpdateStrategy
	}{
		{"put", FullReplace},
		{"full", FullReplace},
		{"Replace", FullReplace},
		{"patch", PartialPatch},
		{" PATCH ", PartialPatch},
		{"patch-recursive-full", PatchRecursiveFull},
		{"patch-recursive-delta", PatchRecursiveDelta},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUpdateStrategy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseUpdateStrategy("upsert")
	assert.Error(t, err)

	for s := range strategyNames {
		parsed, err := ParseUpdateStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "UpdateStrategy(9)", UpdateStrategy(9).String())
}

func TestUpdateStrategy_Method(t *testing.T) {
	assert.Equal(t, constants.PUT, FullReplace.Method(constants.ProtocolV2))
	assert.Equal(t, constants.PUT, FullReplace.Method(constants.ProtocolV4))
	assert.Equal(t, constants.MERGE, PartialPatch.Method(constants.ProtocolV2))
	assert.Equal(t, constants.PATCH, PartialPatch.Method(constants.ProtocolV4))
	assert.Equal(t, constants.PATCH, PatchRecursiveDelta.Method(constants.ProtocolV4))
}

func TestBuildUpdatePayload_PartialPatchMinimal(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	item := decodeItem(t, c, fullItemPayload)
	require.NoError(t, SetField(item, "Name", "Pear"))
	require.NoError(t, SetField(item, "Price", dec("2.00")))

	out, err := c.BuildUpdatePayload(item, PartialPatch, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wire.Object{"Name": "Pear", "Price": json.Number("2.00")}, out)

	out, err = c.BuildUpdatePayload(item, PartialPatch, []string{"Id", "Missing"}, []string{"Price"})
	require.NoError(t, err)
	assert.Equal(t, wire.Object{"Id": json.Number("1"), "Missing": nil, "Name": "Pear"}, out)
}

func TestBuildUpdatePayload_PartialPatchNull(t *testing.T) {
	c := newTestCodec(constants.ProtocolV2)
	item := decodeItem(t, c, fullItemPayload)
	require.NoError(t, SetField(item, "Color", nil))
	require.NoError(t, SetCustomField(item, "foo", "changed"))

	out, err := c.BuildUpdatePayload(item, PartialPatch, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wire.Object{"Color": nil, "foo": "changed"}, out)
}

func TestBuildUpdatePayload_EmptyPatchWarns(t *testing.T) {
	var logs bytes.Buffer
	c := newTestCodec(constants.ProtocolV4, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	item := decodeItem(t, c, fullItemPayload)

	out, err := c.BuildUpdatePayload(item, PartialPatch, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, logs.String(), constants.ErrNoChanges)
}

func TestBuildUpdatePayload_FullReplace(t *testing.T) {
	tests := []struct {
		protocol constants.Protocol
		marker   string
	}{
		{constants.ProtocolV4, constants.ODataType},
		{constants.ProtocolV2, constants.V2Metadata},
	}

	for _, tt := range tests {
		t.Run(tt.protocol.String(), func(t *testing.T) {
			c := newTestCodec(tt.protocol)
			item := decodeItem(t, c, fullItemPayload)
			_, ok := item.VersionIdentifier()
			require.True(t, ok)

			out, err := c.BuildUpdatePayload(item, FullReplace, nil, []string{"Price"})
			require.NoError(t, err)

			want := []string{"Address", "Children", "Clock", "Color", "Data", "Day", "Id", "Key",
				"Name", "Parent", "Raw", "Tags", "When", "Window", "foo", tt.marker}
			slices.Sort(want)
			assert.Equal(t, want, keys(out))
			assert.Nil(t, out["Window"])

			text, err := wire.Marshal(out)
			require.NoError(t, err)
			assert.NotContains(t, string(text), "etag")
			assert.NotContains(t, string(text), `W/\"`)

			// the entity keeps its version for the If-Match header
			_, ok = item.VersionIdentifier()
			assert.True(t, ok)
		})
	}
}

func TestBuildUpdatePayload_RecursiveStrategies(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	load := func(t *testing.T) *testItem {
		item := decodeItem(t, c, fullItemPayload)
		require.NoError(t, SetField(item.Address.Geo, "Lat", 3.5))
		require.NoError(t, SetField(item.Parent, "Name", "new root"))
		return item
	}

	t.Run("patch follows every nested change", func(t *testing.T) {
		out, err := c.BuildUpdatePayload(load(t), PartialPatch, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Address", "Parent"}, keys(out))
	})

	t.Run("recursive full sends whole complex values", func(t *testing.T) {
		out, err := c.BuildUpdatePayload(load(t), PatchRecursiveFull, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Address"}, keys(out))
		addr := out["Address"].(wire.Object)
		assert.Equal(t, "Main St 1", addr["Street"])
		assert.Equal(t, json.Number("3.5"), addr["Geo"].(wire.Object)["Lat"])
		assert.Equal(t, json.Number("2"), addr["Geo"].(wire.Object)["Lng"])
	})

	t.Run("recursive full with a direct change", func(t *testing.T) {
		item := load(t)
		item.SetName(ptr("Pear"))
		out, err := c.BuildUpdatePayload(item, PatchRecursiveFull, []string{"Id"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Address", "Id", "Name"}, keys(out))
	})

	t.Run("recursive delta sends only changed leaves", func(t *testing.T) {
		out, err := c.BuildUpdatePayload(load(t), PatchRecursiveDelta, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, wire.Object{
			"Address": wire.Object{"Geo": wire.Object{"Lat": json.Number("3.5")}},
		}, out)
	})

	t.Run("recursive delta with include and exclude", func(t *testing.T) {
		item := load(t)
		item.SetName(ptr("Pear"))
		out, err := c.BuildUpdatePayload(item, PatchRecursiveDelta, []string{"Id"}, []string{"Name"})
		require.NoError(t, err)
		assert.Equal(t, wire.Object{
			"Id":      json.Number("1"),
			"Address": wire.Object{"Geo": wire.Object{"Lat": json.Number("3.5")}},
		}, out)
	})

	t.Run("recursive delta with a replaced complex value", func(t *testing.T) {
		item := decodeItem(t, c, fullItemPayload)
		require.NoError(t, SetField(item, "Address", &testAddress{City: ptr("Shelbyville")}))
		out, err := c.BuildUpdatePayload(item, PatchRecursiveDelta, nil, nil)
		require.NoError(t, err)
		addr := out["Address"].(wire.Object)
		assert.Equal(t, "Shelbyville", addr["City"])
		assert.Contains(t, addr, "Street")
	})
}

func TestBuildUpdatePayload_Errors(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)

	var missing *testItem
	_, err := c.BuildUpdatePayload(missing, PartialPatch, nil, nil)
	var se *SerializationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "patch", se.Strategy)

	_, err = c.BuildUpdatePayload(&testItem{}, UpdateStrategy(9), nil, nil)
	assert.Error(t, err)
}

func TestBuildCreatePayload(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	item := &testItem{
		ID:   ptr(int32(1)),
		Tags: []string{},
		Children: []*testItem{
			{ID: ptr(int32(2)), Tags: []string{"x"}, Children: []*testItem{}},
		},
		Address: &testAddress{City: ptr("Springfield")},
	}

	out, err := c.BuildCreatePayload(item)
	require.NoError(t, err)
	assert.Equal(t, []string{"@odata.type", "Address", "Children", "Id"}, keys(out))

	child := out["Children"].(wire.Array)[0].(wire.Object)
	assert.Equal(t, []string{"@odata.type", "Id", "Tags"}, keys(child))
	assert.Equal(t, []string{"@odata.type", "City"}, keys(out["Address"].(wire.Object)))

	empty, err := c.BuildCreatePayload(&testItem{Children: []*testItem{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"@odata.type"}, keys(empty))
}
