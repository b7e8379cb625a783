// Package response projects helper replies into the values callers use.
// Every projection tolerates missing optional fields.
package response

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// DefaultMIMEType is assumed for resources that do not declare one.
	DefaultMIMEType = "application/json"

	// NoContentPlaceholder is returned for chat replies without content.
	NoContentPlaceholder = "No content received from the migration helper."

	textBlockType = "text"
)

// Resource describes one entry of a resources/list reply.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// Resources projects a resources/list result. A missing or non-array
// resources field yields an empty list. Entries that are not objects or that
// lack a uri are skipped.
func Resources(result json.RawMessage) []Resource {
	var envelope struct {
		Resources []json.RawMessage `json:"resources"`
	}
	if !decodeObject(result, &envelope) {
		return []Resource{}
	}

	out := make([]Resource, 0, len(envelope.Resources))
	for _, raw := range envelope.Resources {
		if !isObject(raw) {
			continue
		}
		var res mcp.Resource
		if err := json.Unmarshal(raw, &res); err != nil || res.URI == "" {
			continue
		}
		out = append(out, withDefaults(res))
	}
	return out
}

func withDefaults(res mcp.Resource) Resource {
	out := Resource{
		URI:         res.URI,
		Name:        res.Name,
		Description: res.Description,
		MIMEType:    res.MIMEType,
	}
	if out.Name == "" {
		out.Name = out.URI
	}
	if out.MIMEType == "" {
		out.MIMEType = DefaultMIMEType
	}
	return out
}

// ResourceText projects a resources/read result to the text of its first
// content entry, or "" when there is none.
func ResourceText(result json.RawMessage) string {
	var envelope struct {
		Contents []json.RawMessage `json:"contents"`
	}
	if !decodeObject(result, &envelope) || len(envelope.Contents) == 0 {
		return ""
	}

	var contents mcp.TextResourceContents
	if !isObject(envelope.Contents[0]) || json.Unmarshal(envelope.Contents[0], &contents) != nil {
		return ""
	}
	return contents.Text
}

// ChatText projects a messages/create result. It returns the text of the
// first text block, NoContentPlaceholder when content is absent or empty,
// and otherwise the raw JSON of the first content element.
func ChatText(result json.RawMessage) string {
	var envelope struct {
		Content []json.RawMessage `json:"content"`
	}
	if !decodeObject(result, &envelope) || len(envelope.Content) == 0 {
		return NoContentPlaceholder
	}

	for _, raw := range envelope.Content {
		if !isObject(raw) {
			continue
		}
		var block mcp.TextContent
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		if block.Type == textBlockType {
			return block.Text
		}
	}
	return string(bytes.TrimSpace(envelope.Content[0]))
}

// EnsureTrailingNewline appends a newline to non-empty text lacking one.
func EnsureTrailingNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

func decodeObject(raw json.RawMessage, v any) bool {
	if !isObject(raw) {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
