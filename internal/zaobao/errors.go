package zaobao

import (
	"errors"
	"fmt"
)

var errMissingCode = errors.New("envelope missing code field")

// User-facing messages. These are stable output, not log text: callers
// in chat deployments forward them verbatim, so changing them changes
// what users see.
const (
	// MsgCannotConnect is returned for any transport failure
	// (connection refused, DNS, timeout).
	MsgCannotConnect = "无法连接到早报服务，请稍后重试。"

	// MsgMalformed is returned when the response body is not a
	// well-formed envelope.
	MsgMalformed = "早报数据格式不正确，请稍后重试。"

	// PlaceholderNoNews substitutes the news section when the field has
	// an unusable shape, or is empty under the placeholder policy.
	PlaceholderNoNews = "【暂无详细新闻】"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindTransport covers connection errors, DNS failures and the
	// configured timeout expiring. Never retried.
	KindTransport ErrorKind = "transport"
	// KindHTTPStatus covers non-2xx HTTP responses.
	KindHTTPStatus ErrorKind = "http_status"
	// KindMalformed covers bodies that do not decode into the envelope.
	KindMalformed ErrorKind = "malformed"
	// KindUpstream covers well-formed envelopes with a non-200 code.
	KindUpstream ErrorKind = "upstream"
	// KindValidation covers payloads missing a required field.
	KindValidation ErrorKind = "validation"
)

// FetchError describes why a fetch produced no briefing. Message is the
// fixed user-facing string for the failure class; Err carries the
// underlying cause for logs and run records.
type FetchError struct {
	Kind    ErrorKind
	Message string
	Field   string // set for KindValidation
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

func transportError(err error) *FetchError {
	return &FetchError{Kind: KindTransport, Message: MsgCannotConnect, Err: err}
}

func statusError(status int) *FetchError {
	return &FetchError{
		Kind:    KindHTTPStatus,
		Message: fmt.Sprintf("早报服务返回异常状态 %d，请稍后重试。", status),
		Err:     fmt.Errorf("unexpected HTTP status %d", status),
	}
}

func malformedError(err error) *FetchError {
	return &FetchError{Kind: KindMalformed, Message: MsgMalformed, Err: err}
}

func upstreamError(code int, msg string) *FetchError {
	return &FetchError{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("获取早报失败: %s", msg),
		Err:     fmt.Errorf("upstream code %d: %s", code, msg),
	}
}

func missingFieldError(field string) *FetchError {
	return &FetchError{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf("早报数据不完整，缺少 %s 信息，请稍后重试。", field),
		Err:     fmt.Errorf("payload missing required field %q", field),
	}
}
