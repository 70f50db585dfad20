package models

import (
	"fmt"
	"strings"
)

// ODataError represents an OData error response
type ODataError struct {
	Code       string             `json:"code,omitempty"`
	Message    string             `json:"message"`
	Lang       string             `json:"lang,omitempty"`
	Details    []ODataErrorDetail `json:"details,omitempty"`
	InnerError map[string]any     `json:"innererror,omitempty"`
	Target     string             `json:"target,omitempty"`
}

// ODataErrorDetail represents detailed error information
type ODataErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

func (e *ODataError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "OData error %s: %s", e.Code, e.Message)
	} else {
		fmt.Fprintf(&b, "OData error: %s", e.Message)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, " (target %s)", e.Target)
	}
	for _, d := range e.Details {
		fmt.Fprintf(&b, "; %s: %s", d.Code, d.Message)
	}
	return b.String()
}

// ODataResponse is an unwrapped OData response body. Value holds either a
// single entity object or the array of a collection.
type ODataResponse struct {
	Context  string `json:"@odata.context,omitempty"`
	Count    *int64 `json:"@odata.count,omitempty"`
	NextLink string `json:"@odata.nextLink,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// IsCollection reports whether the response carried an entity collection.
func (r *ODataResponse) IsCollection() bool {
	_, ok := r.Value.([]any)
	return ok
}
