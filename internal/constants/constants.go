package constants

import (
	"fmt"
	"strings"
)

// Protocol identifies the OData protocol version a wire tree follows.
type Protocol string

// Supported OData protocol versions
const (
	ProtocolV2 Protocol = "2.0"
	ProtocolV4 Protocol = "4.0"
)

// OData primitive type mappings to the Go types the codec registry binds
var ODataTypeMap = map[string]string{
	"Edm.String":         "string",
	"Edm.Int16":          "int16",
	"Edm.Int32":          "int32",
	"Edm.Int64":          "int64",
	"Edm.Boolean":        "bool",
	"Edm.Byte":           "uint8",
	"Edm.SByte":          "int8",
	"Edm.Single":         "float32",
	"Edm.Double":         "float64",
	"Edm.Decimal":        "*apd.Decimal",
	"Edm.DateTime":       "time.Time", // legacy /Date(ms)/
	"Edm.DateTimeOffset": "time.Time",
	"Edm.Time":           "civil.Time", // PT{h}H{m}M{s}S
	"Edm.Guid":           "uuid.UUID",
	"Edm.Binary":         "[]byte",
}

// OData v2 JSON markers
const (
	V2Data         = "d"
	V2Results      = "results"
	V2Metadata     = "__metadata"
	V2MetadataEtag = "etag"
	V2MetadataType = "type"
	V2Deferred     = "__deferred"
	V2Count        = "__count"
	V2Next         = "__next"
)

// Wire field names for OData error payloads
const (
	ErrorKey        = "error"
	ErrorCode       = "code"
	ErrorMessage    = "message"
	ErrorValue      = "value"
	ErrorTarget     = "target"
	ErrorDetails    = "details"
	ErrorInnerError = "innererror"
)

// HTTP methods an update payload is sent with
const (
	POST  = "POST"
	PUT   = "PUT"
	PATCH = "PATCH"
	MERGE = "MERGE"
)

// Content types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeODataJSON = "application/json;odata=verbose"
)

// Error messages
const (
	ErrResponseParseFailed = "response parsing failed"
	ErrUnsupportedProtocol = "unsupported OData protocol version"
	ErrNotAnObject         = "expected a JSON object"
	ErrNotAnArray          = "expected a JSON array"
	ErrCyclicReference     = "cyclic entity reference"
	ErrNoChanges           = "update payload has no changed fields"
)

// Default values
const (
	DefaultProtocol = ProtocolV4
	DefaultOutput   = "json"
	DefaultStrategy = "patch"
)

// ParseProtocol accepts "2", "2.0", "v2", "4", "4.0" and "v4".
func ParseProtocol(s string) (Protocol, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v") {
	case "2", "2.0":
		return ProtocolV2, nil
	case "4", "4.0", "4.01":
		return ProtocolV4, nil
	}
	return "", fmt.Errorf("%s: %q", ErrUnsupportedProtocol, s)
}

// IsV2 reports whether p is the verbose JSON dialect of OData v2.
func (p Protocol) IsV2() bool {
	return p == ProtocolV2
}

func (p Protocol) String() string {
	return string(p)
}

// UpdateMethod returns the HTTP verb that carries a partial update.
func (p Protocol) UpdateMethod() string {
	if p.IsV2() {
		return MERGE
	}
	return PATCH
}

// GetGoType returns the Go type for an OData type
func GetGoType(odataType string) string {
	if goType, ok := ODataTypeMap[odataType]; ok {
		return goType
	}
	return "any" // fallback for unknown types
}
