package constants

// OData v4 specific type mappings
var ODataTypeMapV4 = map[string]string{
	"Edm.String":         "string",
	"Edm.Int16":          "int16",
	"Edm.Int32":          "int32",
	"Edm.Int64":          "int64",
	"Edm.Boolean":        "bool",
	"Edm.Byte":           "uint8",
	"Edm.SByte":          "int8",
	"Edm.Single":         "float32",
	"Edm.Double":         "float64",
	"Edm.Decimal":        "*apd.Decimal", // plain digits, no exponent
	"Edm.Date":           "civil.Date",
	"Edm.TimeOfDay":      "civil.Time",
	"Edm.DateTimeOffset": "time.Time",
	"Edm.Duration":       "time.Duration", // ISO 8601 duration
	"Edm.Guid":           "uuid.UUID",
	"Edm.Binary":         "[]byte",
}

// OData v4 content types
const (
	ContentTypeODataJSONV4     = "application/json;odata.metadata=minimal"
	ContentTypeODataJSONNoneV4 = "application/json;odata.metadata=none"
)

// OData v4 annotations
const (
	ODataContext  = "@odata.context"
	ODataType     = "@odata.type"
	ODataEtag     = "@odata.etag"
	ODataID       = "@odata.id"
	ODataCount    = "@odata.count"
	ODataNextLink = "@odata.nextLink"
	ODataValue    = "value"

	// Short forms accepted when the odata prefix is omitted (odata.metadata=none
	// and some 4.01 services).
	TypeShort = "@type"
	EtagShort = "@etag"
)

// IsTypeAnnotation reports whether key carries a type discriminator.
func IsTypeAnnotation(key string) bool {
	return key == ODataType || key == TypeShort
}

// IsEtagAnnotation reports whether key carries a version identifier.
func IsEtagAnnotation(key string) bool {
	return key == ODataEtag || key == EtagShort
}

// GetGoTypeV4 returns the Go type for an OData v4 type
func GetGoTypeV4(odataType string) string {
	if goType, ok := ODataTypeMapV4[odataType]; ok {
		return goType
	}
	return GetGoType(odataType)
}
