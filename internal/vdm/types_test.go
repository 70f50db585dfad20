package vdm

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zmcp/odata-vdm/internal/codec"
	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/wire"
)

type testColor string

const (
	colorRed   testColor = "Red"
	colorGreen testColor = "Green"
)

type testGeo struct {
	Base
	Lat *float64 `odata:"Lat"`
	Lng *float64 `odata:"Lng"`
}

func (testGeo) ODataType() string { return "Test.Geo" }

type testAddress struct {
	Base
	Street *string  `odata:"Street"`
	City   *string  `odata:"City"`
	Geo    *testGeo `odata:"Geo,complex"`
}

func (testAddress) ODataType() string { return "Test.Address" }

type testItem struct {
	Base
	ID       *int32         `odata:"Id"`
	Name     *string        `odata:"Name"`
	Price    *apd.Decimal   `odata:"Price"`
	Color    *testColor     `odata:"Color"`
	Day      *civil.Date    `odata:"Day"`
	Clock    *civil.Time    `odata:"Clock"`
	When     *time.Time     `odata:"When"`
	Key      *uuid.UUID     `odata:"Key"`
	Window   *time.Duration `odata:"Window"`
	Data     []byte         `odata:"Data"`
	Tags     []string       `odata:"Tags"`
	Raw      map[string]any `odata:"Raw"`
	Address  *testAddress   `odata:"Address,complex"`
	Parent   *testItem      `odata:"Parent,nav"`
	Children []*testItem    `odata:"Children,nav"`
}

func (testItem) ODataType() string { return "Test.Item" }

func (i *testItem) SetName(v *string) { SetTracked(i, "Name", &i.Name, v) }

// testSpecial redeclares the wire name "Name" of its supertype.
type testSpecial struct {
	testItem
	Label *string `odata:"Name"`
	Level *int32  `odata:"Level"`
}

func (testSpecial) ODataType() string { return "Test.Special" }

type testLegacy struct {
	Base
	Stamp *time.Time `odata:"Stamp,codec=legacy-datetime"`
}

func (testLegacy) ODataType() string { return "Test.Legacy" }

var errFragile = errors.New("fragile")

type testFragile struct {
	Base
	ID *int32 `odata:"Id"`
}

func (testFragile) ODataType() string { return "Test.Fragile" }
func (*testFragile) Construct() error { return errFragile }

type testPanicky struct {
	Base
}

func (testPanicky) ODataType() string { return "Test.Panicky" }
func (*testPanicky) Construct() error { panic("boom") }

type testOnlyNav struct {
	Base
	Items []*testItem `odata:"Items,nav"`
}

func (testOnlyNav) ODataType() string { return "Test.OnlyNav" }

func ptr[T any](v T) *T { return &v }

func dec(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRegistry(protocol constants.Protocol) *codec.Registry {
	b := codec.NewBuilder(protocol)
	codec.RegisterEnum(b, colorRed, colorGreen)
	return b.Build()
}

func newTestCodec(protocol constants.Protocol, opts ...Option) *Codec {
	return NewCodec(testRegistry(protocol), opts...)
}

func mustParse(t *testing.T, s string) any {
	t.Helper()
	v, err := wire.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func decodeItem(t *testing.T, c *Codec, s string) *testItem {
	t.Helper()
	item, err := DecodeAs[*testItem](c, mustParse(t, s))
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}
