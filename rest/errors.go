package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// httpStatusMessages maps HTTP status codes to human-readable error messages.
var httpStatusMessages = map[int]string{
	400: "Bad request. Please check error message and your parameters.",
	401: "Authentication failed. Please supply valid credentials.",
	403: "Authorization failed. The credentials lack permission for this resource.",
	404: "The requested resource could not be found.",
	405: "The HTTP method is not allowed for this resource.",
	409: "The request conflicts with the current state of the resource.",
	413: "The request size exceeds the limit.",
	414: "The request URL is too long.",
	422: "The request was well-formed but could not be processed.",
	429: "Too many requests. Please wait and resend your request.",
	500: "Internal server error.",
	502: "Bad gateway.",
	503: "Resource currently unavailable. Try again later.",
	504: "Gateway timeout.",
}

// Error is returned for every non-2xx response.
type Error struct {
	StatusCode int
	Status     string
	// Message is the API's own description of the failure, if it sent one.
	Message string
	// Code is the API's machine-readable error code or type, if any.
	Code   string
	Body   []byte
	Header http.Header

	summary string
}

func (e *Error) Error() string {
	summary := e.summary
	if summary == "" {
		summary = "unknown error"
	}
	msg := fmt.Sprintf("HTTP %d: %s", e.StatusCode, summary)
	if e.Message != "" && e.Message != summary {
		msg += " --> " + e.Message
	}
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg
}

// ErrorDecoder extracts a message and an error code from an error body.
type ErrorDecoder func(body []byte) (message, code string)

// DefaultErrorDecoder understands the error shapes used by the APIs in this
// module:
//
//	{"message": "..."}
//	{"error": {"message": "...", "code": 404, "type": "..."}}
//	{"error": "invalid_grant", "error_description": "..."}
//	{"errorCode": "...", "message": "..."}
func DefaultErrorDecoder(body []byte) (message, code string) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", ""
	}

	message = stringField(doc, "message")
	code = stringField(doc, "errorCode")
	if code == "" {
		code = stringField(doc, "code")
	}

	switch e := doc["error"].(type) {
	case map[string]any:
		if message == "" {
			message = stringField(e, "message")
		}
		for _, key := range []string{"status", "code", "type"} {
			if code == "" {
				code = stringField(e, key)
			}
		}
	case string:
		if code == "" {
			code = e
		}
		if message == "" {
			message = stringField(doc, "error_description")
		}
		if message == "" {
			message = e
		}
	}
	return message, code
}

func stringField(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}

func (c *Client) newError(res *http.Response, body []byte) error {
	e := &Error{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       body,
		Header:     res.Header,
	}
	if found, message := c.statusMessage(res.StatusCode); found {
		e.summary = message
	}
	if len(body) > 0 {
		e.Message, e.Code = c.decodeError(body)
	}
	return e
}

// statusMessage retrieves a predefined error message for a given HTTP status code, if available.
func (c *Client) statusMessage(status int) (bool, string) {
	if msg, found := c.messages[status]; found {
		return found, msg
	}
	return false, ""
}

// StatusCode returns the HTTP status of an *Error in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// IsUnauthorized reports whether err is a 401 API error.
func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }

// IsForbidden reports whether err is a 403 API error.
func IsForbidden(err error) bool { return StatusCode(err) == http.StatusForbidden }

// IsRateLimited reports whether err is a 429 API error.
func IsRateLimited(err error) bool { return StatusCode(err) == http.StatusTooManyRequests }

// Require checks that every named parameter has a value. Arguments are
// name/value pairs; all missing names are reported together.
func Require(pairs ...string) error {
	var result *multierror.Error
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			result = multierror.Append(result, fmt.Errorf("missing required parameter %q", pairs[i]))
		}
	}
	return result.ErrorOrNil()
}
