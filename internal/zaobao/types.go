// Package zaobao fetches the daily morning briefing from the alapi.cn
// zaobao API and renders it as text. One invocation performs exactly one
// outbound POST; every failure path collapses into a deterministic,
// human-readable message instead of an escaped error.
package zaobao

import (
	"encoding/json"
	"time"
)

// DefaultEndpoint is the production zaobao API URL.
const DefaultEndpoint = "https://v3.alapi.cn/api/zaobao"

// Config holds the parameters for a single fetch. It is immutable for
// the duration of a call.
type Config struct {
	Token    string
	Endpoint string
	Timeout  time.Duration
}

// Envelope is the outer wrapper the API puts around every response.
// Code is a pointer so a response missing the field entirely can be
// distinguished from code 0 and rejected as malformed.
type Envelope struct {
	Code *int    `json:"code"`
	Msg  string  `json:"msg"`
	Data Payload `json:"data"`
}

// Payload carries the briefing fields. The upstream is loose about
// shapes, so News tolerates both a single string and a list of strings.
type Payload struct {
	Date  string   `json:"date"`
	News  NewsList `json:"news"`
	Weiyu string   `json:"weiyu"`
	Audio *string  `json:"audio"`
}

// NewsList models the three shapes the upstream has been observed to
// send for the news field: a list of strings, a single string, or
// something else entirely. An unrecognized shape is not a decode
// failure; it is recorded so rendering can substitute a placeholder.
type NewsList struct {
	Items []string
	// Present reports whether the field appeared with a non-null value.
	Present bool
	// Invalid reports whether the value had an unusable shape.
	Invalid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NewsList) UnmarshalJSON(data []byte) error {
	*n = NewsList{}

	if string(data) == "null" {
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		n.Items = items
		n.Present = true
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			n.Items = []string{single}
		}
		n.Present = true
		return nil
	}

	// Wrong shape (object, number, mixed list). Keep the field marked
	// present so it does not read as missing, but flag it unusable.
	n.Present = true
	n.Invalid = true
	return nil
}

// MarshalJSON implements json.Marshaler. The normalized form is always
// a list of strings.
func (n NewsList) MarshalJSON() ([]byte, error) {
	if n.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(n.Items)
}
