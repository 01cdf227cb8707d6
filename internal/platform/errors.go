package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

var retryInPattern = regexp.MustCompile(`too many request(?:s)?, retry in ([0-9]+) minute`)

// actionFields are the per-action keys of a structured error body, in reporting order
var actionFields = []string{"message", "follow", "retweet", "reply", "like", "tweet"}

// ResponseError is a non-2xx answer from the platform API
type ResponseError struct {
	StatusCode int
	Message    string            // Top-level "message"
	Fields     map[string]string // String members of the "error" object, e.g. error.follow
}

func (e *ResponseError) Error() string {
	msg := e.ReportMessage()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("platform: status %d: %s", e.StatusCode, msg)
}

// ReportMessage returns the most specific message the platform gave, or "" when none
func (e *ResponseError) ReportMessage() string {
	if e.Message != "" {
		return e.Message
	}
	for _, f := range actionFields {
		if v := e.Fields[f]; v != "" {
			return v
		}
	}
	return ""
}

// RetryAfter extracts the wait from a "too many requests, retry in N minute(s)" message
func (e *ResponseError) RetryAfter() (time.Duration, bool) {
	candidates := []string{e.Message}
	for _, f := range actionFields {
		candidates = append(candidates, e.Fields[f])
	}
	for _, c := range candidates {
		m := retryInPattern.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		minutes, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return time.Duration(minutes) * time.Minute, true
	}
	return 0, false
}

// Transient reports whether the failure is a server-side error worth retrying later
func (e *ResponseError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// parseResponseError decodes an error body of either shape:
// {"message": "..."} or {"error": {"message": "...", "follow": "..."}} or {"error": "..."}
func parseResponseError(status int, body []byte) *ResponseError {
	re := &ResponseError{StatusCode: status, Fields: map[string]string{}}

	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return re
	}

	re.Message = rawString(payload.Message)

	if len(payload.Error) == 0 {
		return re
	}
	if s := rawString(payload.Error); s != "" {
		re.Fields["message"] = s
		return re
	}
	var fields map[string]any
	if err := json.Unmarshal(payload.Error, &fields); err == nil {
		for k, v := range fields {
			if s, ok := v.(string); ok {
				re.Fields[k] = s
			}
		}
	}
	return re
}

// rawString returns a JSON string value, or the first string of a JSON array of strings
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
