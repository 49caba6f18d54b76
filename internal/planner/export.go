// internal/planner/export.go
package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ExportContentType = "application/json; charset=utf-8"

// Export is a downloadable itinerary file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

func newExport(it Itinerary) (Export, error) {
	data, err := json.MarshalIndent(it, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("encode itinerary: %w", err)
	}
	return Export{
		Filename:    exportFilename(it.Name),
		ContentType: ExportContentType,
		Data:        data,
	}, nil
}

// exportFilename is "<name>.json" with path separators and control
// characters replaced.
func exportFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	return clean + ".json"
}

// ParseExport decodes a file produced by Download.
func ParseExport(data []byte) (Itinerary, error) {
	var it Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return Itinerary{}, fmt.Errorf("decode itinerary: %w", err)
	}
	if it.Stops == nil {
		it.Stops = []Stop{}
	}
	return it, nil
}
