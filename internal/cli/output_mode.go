package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/response"
)

type outputMode int

const (
	outputModeText outputMode = iota
	outputModeJSON
)

func (m outputMode) isJSON() bool {
	return m == outputModeJSON
}

// writeResources renders one tab-separated line per resource in text mode,
// or an indented JSON array.
func writeResources(out io.Writer, mode outputMode, resources []response.Resource) error {
	if mode.isJSON() {
		if resources == nil {
			resources = []response.Resource{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resources)
	}

	for _, r := range resources {
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", r.URI, r.Name, r.MIMEType); err != nil {
			return err
		}
	}
	return nil
}
