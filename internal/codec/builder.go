package codec

import (
	"maps"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cockroachdb/apd/v3"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/zmcp/odata-vdm/internal/constants"
)

// Names of the codecs every registry carries besides the type defaults. A
// field selects one with the codec=<name> tag option.
const (
	NameDateTime             = "datetime"
	NameDateTimeOffset       = "datetimeoffset"
	NameLegacyDateTime       = "legacy-datetime"
	NameLegacyDateTimeOffset = "legacy-datetimeoffset"
	NameTimeOfDay            = "timeofday"
	NameLegacyTime           = "legacy-time"
	NameDecimalString        = "decimal-string"
	NameInt64String          = "int64-string"
)

// Builder collects codecs for a Registry.
type Builder struct {
	protocol constants.Protocol
	byType   map[reflect.Type]Codec
	named    map[string]Codec
}

// NewBuilder returns a builder seeded with the built-in codecs for protocol.
func NewBuilder(protocol constants.Protocol) *Builder {
	b := &Builder{
		protocol: protocol,
		byType:   make(map[reflect.Type]Codec),
		named:    make(map[string]Codec),
	}
	v2 := protocol.IsV2()

	b.Register(reflect.TypeFor[string](), stringCodec{})
	b.Register(reflect.TypeFor[bool](), boolCodec{})
	b.Register(reflect.TypeFor[int8](), intCodec{bits: 8})
	b.Register(reflect.TypeFor[int16](), intCodec{bits: 16})
	b.Register(reflect.TypeFor[int32](), intCodec{bits: 32})
	b.Register(reflect.TypeFor[int](), intCodec{bits: 64, native: true})
	b.Register(reflect.TypeFor[int64](), intCodec{bits: 64, asString: v2})
	b.Register(reflect.TypeFor[uint8](), uintCodec{bits: 8})
	b.Register(reflect.TypeFor[float32](), floatCodec{bits: 32, asString: v2})
	b.Register(reflect.TypeFor[float64](), floatCodec{bits: 64, asString: v2})
	b.Register(reflect.TypeFor[*apd.Decimal](), decimalCodec{asString: v2})

	b.Register(reflect.TypeFor[[]byte](), binaryCodec{})
	b.Register(reflect.TypeFor[uuid.UUID](), guidCodec{})
	b.Register(reflect.TypeFor[time.Duration](), durationCodec{})

	b.Register(reflect.TypeFor[strfmt.Date](), strfmtDateCodec{legacy: v2})
	b.Register(reflect.TypeFor[strfmt.UUID](), strfmtUUIDCodec{})
	b.Register(reflect.TypeFor[strfmt.Base64](), strfmtBase64Codec{})

	b.Register(reflect.TypeFor[civil.Date](), dateCodec{legacy: v2})
	if v2 {
		b.Register(reflect.TypeFor[civil.Time](), legacyTimeCodec{})
		b.Register(reflect.TypeFor[time.Time](), legacyDateTimeCodec{withOffset: true})
	} else {
		b.Register(reflect.TypeFor[civil.Time](), timeOfDayCodec{})
		b.Register(reflect.TypeFor[time.Time](), dateTimeOffsetCodec{})
	}

	if v2 {
		b.RegisterNamed(NameDateTime, legacyDateTimeCodec{})
	} else {
		b.RegisterNamed(NameDateTime, dateTimeOffsetCodec{})
	}
	b.RegisterNamed(NameDateTimeOffset, dateTimeOffsetCodec{})
	b.RegisterNamed(NameLegacyDateTime, legacyDateTimeCodec{})
	b.RegisterNamed(NameLegacyDateTimeOffset, legacyDateTimeCodec{withOffset: true})
	b.RegisterNamed(NameTimeOfDay, timeOfDayCodec{})
	b.RegisterNamed(NameLegacyTime, legacyTimeCodec{})
	b.RegisterNamed(NameDecimalString, decimalCodec{asString: true})
	b.RegisterNamed(NameInt64String, intCodec{bits: 64, asString: true})
	return b
}

// Register binds c to values of type t, replacing any earlier binding.
func (b *Builder) Register(t reflect.Type, c Codec) *Builder {
	b.byType[t] = c
	return b
}

// RegisterNamed makes c selectable by name from a field tag.
func (b *Builder) RegisterNamed(name string, c Codec) *Builder {
	b.named[name] = c
	return b
}

// RegisterEnum binds the string enumeration T. Wire values are matched
// against the exact names in values; anything else decodes to no value.
func RegisterEnum[T ~string](b *Builder, values ...T) *Builder {
	names := make(map[string]T, len(values))
	for _, v := range values {
		names[string(v)] = v
	}
	return b.Register(reflect.TypeFor[T](), enumCodec[T]{names: names})
}

// Build returns an immutable registry holding the codecs collected so far.
// The builder can keep being used without affecting the result.
func (b *Builder) Build() *Registry {
	return &Registry{
		protocol: b.protocol,
		byType:   maps.Clone(b.byType),
		named:    maps.Clone(b.named),
	}
}

// NewRegistry returns a registry with only the built-in codecs.
func NewRegistry(protocol constants.Protocol) *Registry {
	return NewBuilder(protocol).Build()
}
