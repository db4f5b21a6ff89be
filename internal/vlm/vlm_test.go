package vlm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captionFixture(t *testing.T, handler http.HandlerFunc) VLM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{InterfaceType: InterfaceOpenAI, BaseURL: srv.URL, Model: "test-model"})
}

func TestCaptionParsesChatCompletionResponse(t *testing.T) {
	client := captionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("model = %v, want test-model", req["model"])
		}
		raw, _ := json.Marshal(req["messages"])
		if !strings.Contains(string(raw), "data:image/png;base64,AAAA") {
			t.Errorf("request messages carry no inline image data URL: %s", raw)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "a cat on a mat"}},
			},
		})
	})

	caption, err := client.Caption(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("Caption() error = %v", err)
	}
	if caption != "a cat on a mat" {
		t.Errorf("caption = %q, want %q", caption, "a cat on a mat")
	}
}

func TestCaptionNon2xxIsAnError(t *testing.T) {
	client := captionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	if _, err := client.Caption(context.Background(), "AAAA"); err == nil {
		t.Fatal("Caption() error = nil, want error on non-2xx response")
	}
}

func TestCaptionEmptyChoicesYieldsEmptyString(t *testing.T) {
	client := captionFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	caption, err := client.Caption(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("Caption() error = %v", err)
	}
	if caption != "" {
		t.Errorf("caption = %q, want empty for a choiceless response", caption)
	}
}

func TestNewDefaultsModelPerInterface(t *testing.T) {
	cases := []struct {
		iface InterfaceType
		want  string
	}{
		{InterfaceOpenAI, "gpt-4o-mini"},
		{InterfaceOllama, "llava"},
		{"", "gpt-4o-mini"},
	}
	for _, c := range cases {
		v := New(Config{InterfaceType: c.iface})
		cc, ok := v.(*chatCaptioner)
		if !ok {
			t.Fatalf("New() = %T, want *chatCaptioner", v)
		}
		if cc.model != c.want {
			t.Errorf("interface %q: model = %q, want %q", c.iface, cc.model, c.want)
		}
	}
}
