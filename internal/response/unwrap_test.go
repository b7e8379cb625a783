package response

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResourcesFillsDefaults(t *testing.T) {
	got := Resources(json.RawMessage(`{"resources":[{"uri":"urn:a"}]}`))

	want := []Resource{{URI: "urn:a", Name: "urn:a", Description: "", MIMEType: DefaultMIMEType}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resources() mismatch (-want +got):\n%s", diff)
	}
	if DefaultMIMEType != "application/json" {
		t.Fatalf("DefaultMIMEType = %q, want application/json", DefaultMIMEType)
	}
}

func TestResourcesKeepsDeclaredFields(t *testing.T) {
	raw := json.RawMessage(`{"resources":[{
		"uri":"insights://runs/7/summary",
		"name":"Run summary",
		"description":"Totals for run 7",
		"mimeType":"text/markdown"
	}]}`)

	want := []Resource{{
		URI:         "insights://runs/7/summary",
		Name:        "Run summary",
		Description: "Totals for run 7",
		MIMEType:    "text/markdown",
	}}
	if diff := cmp.Diff(want, Resources(raw)); diff != "" {
		t.Fatalf("Resources() mismatch (-want +got):\n%s", diff)
	}
}

func TestResourcesSkipsMalformedEntries(t *testing.T) {
	raw := json.RawMessage(`{"resources":[
		"not-an-object",
		42,
		null,
		{"name":"missing uri"},
		{"uri":""},
		{"uri":7},
		{"uri":"urn:ok","name":"kept"}
	]}`)

	got := Resources(raw)
	if len(got) != 1 || got[0].URI != "urn:ok" || got[0].Name != "kept" {
		t.Fatalf("Resources() = %+v, want only urn:ok", got)
	}
}

func TestResourcesMissingArrayIsEmpty(t *testing.T) {
	for _, raw := range []string{`{}`, `{"resources":null}`, `{"resources":{}}`, `[]`, `null`, ``} {
		got := Resources(json.RawMessage(raw))
		if got == nil || len(got) != 0 {
			t.Fatalf("Resources(%q) = %#v, want empty non-nil slice", raw, got)
		}
	}
}

func TestResourceText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "first entry", raw: `{"contents":[{"uri":"urn:a","text":"hello"},{"uri":"urn:b","text":"ignored"}]}`, want: "hello"},
		{name: "utf8 text", raw: `{"contents":[{"uri":"urn:a","mimeType":"text/plain","text":"naïve ✓"}]}`, want: "naïve ✓"},
		{name: "missing text", raw: `{"contents":[{"uri":"urn:a"}]}`, want: ""},
		{name: "empty contents", raw: `{"contents":[]}`, want: ""},
		{name: "missing contents", raw: `{}`, want: ""},
		{name: "non-object entry", raw: `{"contents":["hello"]}`, want: ""},
		{name: "null result", raw: `null`, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResourceText(json.RawMessage(tc.raw)); got != tc.want {
				t.Fatalf("ResourceText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestChatText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "echo", raw: `{"content":[{"type":"text","text":"echo:hi"}]}`, want: "echo:hi"},
		{name: "first text block wins", raw: `{"content":[{"type":"image","data":"AA=="},{"type":"text","text":"second"},{"type":"text","text":"third"}]}`, want: "second"},
		{name: "empty text block", raw: `{"content":[{"type":"text","text":""}]}`, want: ""},
		{name: "absent content", raw: `{"model":"gpt-4o"}`, want: NoContentPlaceholder},
		{name: "empty content", raw: `{"content":[]}`, want: NoContentPlaceholder},
		{name: "null result", raw: `null`, want: NoContentPlaceholder},
		{name: "no text block", raw: `{"content":[{"type":"image","data":"AA=="}]}`, want: `{"type":"image","data":"AA=="}`},
		{name: "scalar element", raw: `{"content":["plain"]}`, want: `"plain"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChatText(json.RawMessage(tc.raw)); got != tc.want {
				t.Fatalf("ChatText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEnsureTrailingNewline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a", want: "a\n"},
		{in: "a\n", want: "a\n"},
		{in: "", want: ""},
		{in: "résumé", want: "résumé\n"},
	}
	for _, tt := range tests {
		if got := EnsureTrailingNewline(tt.in); got != tt.want {
			t.Fatalf("EnsureTrailingNewline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
