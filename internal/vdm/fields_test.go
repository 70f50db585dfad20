package vdm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmcp/odata-vdm/internal/constants"
)

func TestField(t *testing.T) {
	item := decodeItem(t, newTestCodec(constants.ProtocolV4), `{"Id": 1, "foo": 42}`)

	id, err := Field(item, "Id")
	require.NoError(t, err)
	assert.Equal(t, int32(1), *id.(*int32))

	foo, err := Field(item, "foo")
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), foo)

	_, err = Field(item, "bar")
	assert.ErrorIs(t, err, ErrNoSuchField)
}

func TestSetField(t *testing.T) {
	item := &testItem{}

	require.NoError(t, SetField(item, "Name", "plain"))
	assert.Equal(t, "plain", *item.Name)

	require.NoError(t, SetField(item, "Name", ptr("pointer")))
	assert.Equal(t, "pointer", *item.Name)

	require.NoError(t, SetField(item, "Color", "Red"))
	assert.Equal(t, colorRed, *item.Color)

	err := SetField(item, "Id", "one")
	assert.Error(t, err)
	assert.Nil(t, item.ID)

	err = SetField(item, "Undeclared", 1)
	assert.ErrorIs(t, err, ErrNoSuchField)
	assert.False(t, item.HasCustomField("Undeclared"))

	assert.Equal(t, []string{"Color", "Name"}, item.Changes().Names())
}

func TestCopyFields(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	original := decodeItem(t, c, `{"Id": 1, "Name": "A", "Price": 1.50, "foo": 42}`)
	edited := decodeItem(t, c, `{"Id": 1, "Name": "B", "Price": 1.50, "foo": 43, "bar": true}`)

	require.NoError(t, CopyFields(original, edited))
	assert.Equal(t, []string{"Name", "bar", "foo"}, changedNames(t, original))
	assert.Equal(t, "B", *original.Name)

	payload, err := c.BuildUpdatePayload(original, PartialPatch, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "bar", "foo"}, keys(payload))
}

func TestCopyFields_Selected(t *testing.T) {
	c := newTestCodec(constants.ProtocolV4)
	original := decodeItem(t, c, `{"Name": "A", "foo": 42}`)
	edited := decodeItem(t, c, `{"Name": "B", "foo": 43}`)

	require.NoError(t, CopyFields(original, edited, "foo"))
	assert.Equal(t, []string{"foo"}, changedNames(t, original))
	assert.Equal(t, "A", *original.Name)
}

func TestCopyFields_TypeMismatch(t *testing.T) {
	err := CopyFields(&testItem{}, &testSpecial{})
	assert.Error(t, err)
}
