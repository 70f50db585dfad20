package vdm

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmcp/odata-vdm/internal/constants"
)

func changedNames(t *testing.T, obj Object) []string {
	t.Helper()
	changed, err := ChangedFields(obj)
	require.NoError(t, err)
	names := make([]string, 0, len(changed))
	for name := range changed {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func TestChangeRecord_FirstWriteWins(t *testing.T) {
	var r ChangeRecord
	r.Remember("Name", "A")
	r.Remember("Name", "B")
	r.Remember("Id", nil)

	orig, ok := r.Original("Name")
	require.True(t, ok)
	assert.Equal(t, "A", orig)
	assert.Equal(t, []string{"Id", "Name"}, r.Names())
	assert.Equal(t, 2, r.Len())

	r.Reset()
	assert.Zero(t, r.Len())
	_, ok = r.Original("Name")
	assert.False(t, ok)
}

func TestChangedFields_Tracking(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	load := func(t *testing.T) *testItem {
		return decodeItem(t, c, `{"Id":1,"Name":"A","Price":1.50,"Data":"AP8Q","foo":42}`)
	}

	tests := []struct {
		name   string
		mutate func(t *testing.T, item *testItem)
		want   []string
	}{
		{
			name:   "untouched",
			mutate: func(t *testing.T, item *testItem) {},
			want:   []string{},
		},
		{
			name: "same value twice is idempotent",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Name", "B"))
				require.NoError(t, SetField(item, "Name", "B"))
			},
			want: []string{"Name"},
		},
		{
			name: "set back to the loaded value",
			mutate: func(t *testing.T, item *testItem) {
				item.SetName(ptr("B"))
				item.SetName(ptr("C"))
				item.SetName(ptr("A"))
			},
			want: []string{},
		},
		{
			name: "value to null",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Name", nil))
			},
			want: []string{"Name"},
		},
		{
			name: "null to value",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Tags", []string{}))
			},
			want: []string{"Tags"},
		},
		{
			name: "null to null",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Color", nil))
			},
			want: []string{},
		},
		{
			name: "equal decimal in a new pointer",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Price", dec("1.50")))
			},
			want: []string{},
		},
		{
			name: "decimal with a different exponent",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Price", dec("1.5")))
			},
			want: []string{"Price"},
		},
		{
			name: "equal bytes in a new slice",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetField(item, "Data", []byte{0x00, 0xff, 0x10}))
			},
			want: []string{},
		},
		{
			name: "new extension field",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetCustomField(item, "bar", "x"))
			},
			want: []string{"bar"},
		},
		{
			name: "extension field set to its loaded value",
			mutate: func(t *testing.T, item *testItem) {
				require.NoError(t, SetCustomField(item, "foo", json.Number("42")))
			},
			want: []string{},
		},
		{
			name: "untracked assignment",
			mutate: func(t *testing.T, item *testItem) {
				item.Name = ptr("Z")
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := load(t)
			tt.mutate(t, item)
			assert.Equal(t, tt.want, changedNames(t, item))
		})
	}
}

func TestChangedFields_OriginalKeptAcrossWrites(t *testing.T) {
	item := decodeItem(t, newTestCodec(constants.ProtocolV4), `{"Name":"A"}`)
	item.SetName(ptr("B"))
	item.SetName(ptr("C"))

	orig, ok := item.Changes().Original("Name")
	require.True(t, ok)
	assert.Equal(t, "A", *orig.(*string))

	changed, err := ChangedFields(item)
	require.NoError(t, err)
	assert.Equal(t, "C", *changed["Name"].(*string))

	item.ResetChangedFields()
	assert.Empty(t, changedNames(t, item))
}

func TestChangedFields_Nested(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	item := decodeItem(t, c, `{
		"Id": 1,
		"Address": {"Street": "S", "City": "C", "Geo": {"Lat": 1.0, "Lng": 2.0}},
		"Children": [{"Id": 2, "Name": "child"}]
	}`)

	require.NoError(t, SetField(item.Address.Geo, "Lat", 3.5))
	assert.Equal(t, []string{"Address"}, changedNames(t, item))
	assert.Equal(t, []string{"Geo"}, changedNames(t, item.Address))

	direct, err := DirectChangedFields(item)
	require.NoError(t, err)
	assert.Empty(t, direct)

	require.NoError(t, SetField(item.Children[0], "Name", "renamed"))
	assert.Equal(t, []string{"Address", "Children"}, changedNames(t, item))
}

func TestChangedFields_CyclicGraph(t *testing.T) {
	item := decodeItem(t, newTestCodec(constants.ProtocolV4), `{"Id": 1}`)
	item.Parent = item
	item.Children = []*testItem{item}

	assert.Empty(t, changedNames(t, item))

	item.SetName(ptr("x"))
	assert.Equal(t, []string{"Name"}, changedNames(t, item))
}

func TestChangedFields_Subtype(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	s, err := DecodeAs[*testSpecial](c, mustParse(t, `{"Id": 1, "Name": "x", "Level": 1}`))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "x", *s.Label)
	assert.Nil(t, s.Name)

	require.NoError(t, SetField(s, "Name", "y"))
	require.NoError(t, SetField(s, "Id", int32(2)))
	assert.Equal(t, []string{"Id", "Name"}, changedNames(t, s))
	assert.Equal(t, "y", *s.Label)
}
