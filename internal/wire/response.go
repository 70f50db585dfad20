package wire

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/zmcp/odata-vdm/internal/constants"
	"github.com/zmcp/odata-vdm/internal/models"
)

// UnwrapResponse strips the protocol envelope from a parsed response body.
// v2 bodies are wrapped in "d" and collections in "results" with "__count"
// and "__next" siblings; v4 collections live in "value" next to
// "@odata.count" and "@odata.nextLink". An OData error payload is returned as
// a *models.ODataError.
func UnwrapResponse(body any, protocol constants.Protocol) (*models.ODataResponse, error) {
	obj, ok := body.(Object)
	if !ok {
		if arr, isArr := body.(Array); isArr {
			return &models.ODataResponse{Value: arr}, nil
		}
		return nil, fmt.Errorf("%s: %s", constants.ErrResponseParseFailed, constants.ErrNotAnObject)
	}

	// Check for error response
	if errorData, ok := obj[constants.ErrorKey]; ok {
		return nil, ParseError(errorData)
	}

	if protocol.IsV2() {
		return unwrapV2(obj), nil
	}
	return unwrapV4(obj), nil
}

func unwrapV2(response Object) *models.ODataResponse {
	d, ok := response[constants.V2Data]
	if !ok {
		// Some gateways omit the "d" wrapper
		d = response
	}
	dMap, ok := d.(Object)
	if !ok {
		return &models.ODataResponse{Value: d}
	}

	results, ok := dMap[constants.V2Results].(Array)
	if !ok {
		// Single entity
		return &models.ODataResponse{Value: dMap}
	}
	resp := &models.ODataResponse{Value: results}
	if count, ok := dMap[constants.V2Count]; ok {
		resp.Count = countValue(count)
	}
	if next, ok := dMap[constants.V2Next].(string); ok {
		resp.NextLink = next
	}
	return resp
}

func unwrapV4(response Object) *models.ODataResponse {
	resp := &models.ODataResponse{}
	if ctx, ok := response[constants.ODataContext].(string); ok {
		resp.Context = ctx
	}

	// Collections use "value"; a single entity is the body itself
	value, ok := response[constants.ODataValue].(Array)
	if !ok {
		entity := maps.Clone(response)
		delete(entity, constants.ODataContext)
		resp.Value = entity
		return resp
	}
	resp.Value = value
	if count, ok := response[constants.ODataCount]; ok {
		resp.Count = countValue(count)
	}
	if next, ok := response[constants.ODataNextLink].(string); ok {
		resp.NextLink = next
	}
	return resp
}

func countValue(v any) *int64 {
	var (
		n   int64
		err error
	)
	switch c := v.(type) {
	case json.Number:
		n, err = c.Int64()
	case string:
		n, err = strconv.ParseInt(c, 10, 64)
	case float64:
		n = int64(c)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &n
}

// ParseError converts the "error" member of an OData response into a
// *models.ODataError. Both the v2 shape (message.value) and the v4 shape
// (message as a string) are understood.
func ParseError(errorData any) *models.ODataError {
	obj, ok := errorData.(Object)
	if !ok {
		return &models.ODataError{Message: fmt.Sprint(errorData)}
	}

	odataErr := &models.ODataError{}
	odataErr.Code, _ = obj[constants.ErrorCode].(string)
	odataErr.Target, _ = obj[constants.ErrorTarget].(string)

	switch msg := obj[constants.ErrorMessage].(type) {
	case string:
		odataErr.Message = msg
	case Object:
		odataErr.Message, _ = msg[constants.ErrorValue].(string)
		odataErr.Lang, _ = msg["lang"].(string)
	}
	if odataErr.Message == "" {
		odataErr.Message = fmt.Sprint(errorData)
	}

	if details, ok := obj[constants.ErrorDetails].(Array); ok {
		for _, item := range details {
			d, ok := item.(Object)
			if !ok {
				continue
			}
			detail := models.ODataErrorDetail{}
			detail.Code, _ = d[constants.ErrorCode].(string)
			detail.Message, _ = d[constants.ErrorMessage].(string)
			detail.Target, _ = d[constants.ErrorTarget].(string)
			odataErr.Details = append(odataErr.Details, detail)
		}
	}
	if inner, ok := obj[constants.ErrorInnerError].(Object); ok {
		odataErr.InnerError = inner
	}
	return odataErr
}
