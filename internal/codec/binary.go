package codec

import (
	"encoding/base64"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// binaryCodec handles Edm.Binary as standard base64 with padding.
type binaryCodec struct{}

func decodeBase64(raw any, target string) ([]byte, error) {
	s, err := wireString(raw, target)
	if err != nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, formatErr(raw, target, err)
	}
	return b, nil
}

func (binaryCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := decodeBase64(raw, "[]byte")
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (binaryCodec) Encode(value any) (any, error) {
	b, ok := value.([]byte)
	if !ok {
		return nil, formatErr(value, "[]byte", errUnexpectedType(value))
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// guidCodec handles Edm.Guid in the canonical lowercase hyphenated form.
type guidCodec struct{}

func (guidCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "uuid.UUID")
	if err != nil {
		return nil, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, formatErr(raw, "uuid.UUID", err)
	}
	return u, nil
}

func (guidCodec) Encode(value any) (any, error) {
	u, ok := value.(uuid.UUID)
	if !ok {
		return nil, formatErr(value, "uuid.UUID", errUnexpectedType(value))
	}
	return u.String(), nil
}

type strfmtUUIDCodec struct{}

func (strfmtUUIDCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := wireString(raw, "strfmt.UUID")
	if err != nil {
		return nil, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, formatErr(raw, "strfmt.UUID", err)
	}
	return strfmt.UUID(u.String()), nil
}

func (strfmtUUIDCodec) Encode(value any) (any, error) {
	u, ok := value.(strfmt.UUID)
	if !ok {
		return nil, formatErr(value, "strfmt.UUID", errUnexpectedType(value))
	}
	return strings.ToLower(u.String()), nil
}

type strfmtBase64Codec struct{}

func (strfmtBase64Codec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := decodeBase64(raw, "strfmt.Base64")
	if err != nil {
		return nil, err
	}
	return strfmt.Base64(b), nil
}

func (strfmtBase64Codec) Encode(value any) (any, error) {
	b, ok := value.(strfmt.Base64)
	if !ok {
		return nil, formatErr(value, "strfmt.Base64", errUnexpectedType(value))
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
