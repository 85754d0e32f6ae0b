package zaobao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient points a Client at an httptest server returning the
// given status and body.
func newTestClient(t *testing.T, status int, body string) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if req["token"] != "test-token" {
			t.Errorf("expected token test-token, got %s", req["token"])
		}
		if req["format"] != "json" {
			t.Errorf("expected format json, got %s", req["format"])
		}

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(Config{Token: "test-token", Endpoint: srv.URL}, RenderOptions{})
}

func TestFetchAndRenderSuccess(t *testing.T) {
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","news":["A","B"],"weiyu":"Stay positive"}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	want := "【每日早报】\n今天是 2024-05-01\nA\nB\nStay positive"
	if got != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFetchAndRenderPreservesNewsOrder(t *testing.T) {
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","news":["first","second","third"],"weiyu":"end"}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	for _, part := range []string{"2024-05-01", "first", "second", "third", "end"} {
		if !strings.Contains(got, part) {
			t.Fatalf("output missing %q: %q", part, got)
		}
	}
	if strings.Index(got, "first") > strings.Index(got, "second") ||
		strings.Index(got, "second") > strings.Index(got, "third") {
		t.Errorf("news items out of order: %q", got)
	}
	if strings.Index(got, "2024-05-01") > strings.Index(got, "first") {
		t.Errorf("date should precede news: %q", got)
	}
	if strings.Index(got, "third") > strings.Index(got, "end") {
		t.Errorf("news should precede weiyu: %q", got)
	}
}

func TestFetchAndRenderNewsAsSingleString(t *testing.T) {
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","news":"only headline","weiyu":"w"}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	want := "【每日早报】\n今天是 2024-05-01\nonly headline\nw"
	if got != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFetchAndRenderNewsWrongShape(t *testing.T) {
	// news as an object is neither a string nor a list: the placeholder
	// substitutes, date and weiyu still render.
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","news":{"k":"v"},"weiyu":"w"}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	want := "【每日早报】\n今天是 2024-05-01\n" + PlaceholderNoNews + "\nw"
	if got != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFetchAndRenderAudioLink(t *testing.T) {
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","news":["A"],"weiyu":"w","audio":"https://example.com/brief.mp3"}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	want := "【每日早报】\n今天是 2024-05-01\nA\nw\n\n音频链接: https://example.com/brief.mp3"
	if got != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFetchAndRenderUpstreamError(t *testing.T) {
	body := `{"code":401,"msg":"invalid token","data":{}}`
	client := newTestClient(t, http.StatusOK, body)

	got := client.FetchAndRender(context.Background())

	if !strings.Contains(got, "invalid token") {
		t.Errorf("expected upstream message in output, got %q", got)
	}
	if !strings.Contains(got, "获取早报失败") {
		t.Errorf("expected failure prefix in output, got %q", got)
	}
}

func TestFetchAndRenderMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing date", `{"code":200,"msg":"","data":{"news":["A"],"weiyu":"w"}}`, "date"},
		{"missing news", `{"code":200,"msg":"","data":{"date":"2024-05-01","weiyu":"w"}}`, "news"},
		{"null news", `{"code":200,"msg":"","data":{"date":"2024-05-01","news":null,"weiyu":"w"}}`, "news"},
		{"missing weiyu", `{"code":200,"msg":"","data":{"date":"2024-05-01","news":["A"]}}`, "weiyu"},
		{"empty date", `{"code":200,"msg":"","data":{"date":"","news":["A"],"weiyu":"w"}}`, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.StatusOK, tt.body)

			got := client.FetchAndRender(context.Background())

			if !strings.Contains(got, "缺少 "+tt.field) {
				t.Errorf("expected output to name field %s, got %q", tt.field, got)
			}
			// No partial content on validation failure.
			if strings.Contains(got, "今天是") {
				t.Errorf("expected no rendered brief, got %q", got)
			}
		})
	}
}

func TestFetchAndRenderMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `this is not json`},
		{"missing code", `{"msg":"hi","data":{}}`},
		{"wrong typed date", `{"code":200,"msg":"","data":{"date":123,"news":["A"],"weiyu":"w"}}`},
		{"data wrong container", `{"code":200,"msg":"","data":[1,2,3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.StatusOK, tt.body)

			got := client.FetchAndRender(context.Background())

			if got != MsgMalformed {
				t.Errorf("expected %q, got %q", MsgMalformed, got)
			}
		})
	}
}

func TestFetchAndRenderHTTPStatusError(t *testing.T) {
	client := newTestClient(t, http.StatusBadGateway, `{"code":200}`)

	got := client.FetchAndRender(context.Background())

	if !strings.Contains(got, "502") {
		t.Errorf("expected status in output, got %q", got)
	}
}

func TestFetchAndRenderTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(Config{Token: "t", Endpoint: srv.URL}, RenderOptions{})

	got := client.FetchAndRender(context.Background())

	if got != MsgCannotConnect {
		t.Errorf("expected %q, got %q", MsgCannotConnect, got)
	}
}

func TestFetchAndRenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		Token:    "t",
		Endpoint: srv.URL,
		Timeout:  50 * time.Millisecond,
	}, RenderOptions{})

	got := client.FetchAndRender(context.Background())

	if got != MsgCannotConnect {
		t.Errorf("timeout must read as transport failure, got %q", got)
	}
}

func TestFetchReturnsTypedErrors(t *testing.T) {
	body := `{"code":401,"msg":"invalid token","data":{}}`
	client := newTestClient(t, http.StatusOK, body)

	payload, ferr := client.Fetch(context.Background())
	if payload != nil {
		t.Fatalf("expected nil payload, got %+v", payload)
	}
	if ferr == nil {
		t.Fatal("expected error")
	}
	if ferr.Kind != KindUpstream {
		t.Errorf("expected kind %s, got %s", KindUpstream, ferr.Kind)
	}
}

func TestFetchValidationErrorNamesField(t *testing.T) {
	body := `{"code":200,"msg":"","data":{"date":"2024-05-01","weiyu":"w"}}`
	client := newTestClient(t, http.StatusOK, body)

	_, ferr := client.Fetch(context.Background())
	if ferr == nil {
		t.Fatal("expected error")
	}
	if ferr.Kind != KindValidation || ferr.Field != "news" {
		t.Errorf("expected validation error on news, got kind=%s field=%s", ferr.Kind, ferr.Field)
	}
}
