package twitter

import (
	"encoding/json"
	"fmt"
)

// Twitter v1.1 error codes the claim engine distinguishes
const (
	CodeAlreadyFavorited    = 139
	CodeNoStatusFound       = 144
	CodeOverDailyLimit      = 185
	CodeDuplicateStatus     = 187
	CodeAlreadyRetweeted    = 327
	CodeRetweetNotPermitted = 328
	CodeReplyTargetDeleted  = 385
)

// APIError is an error response from the Twitter API
type APIError struct {
	StatusCode int
	Code       int // First error code of the response, 0 when absent
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter: status %d: code %d: %s", e.StatusCode, e.Code, e.Message)
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		apiErr.Code = payload.Errors[0].Code
		apiErr.Message = payload.Errors[0].Message
		return apiErr
	}

	apiErr.Message = string(body)
	if len(apiErr.Message) > 200 {
		apiErr.Message = apiErr.Message[:200]
	}
	return apiErr
}
