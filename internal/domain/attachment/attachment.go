// Package attachment describes how embedded subsidy files are named and reported once persisted.
package attachment

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

// ContentTool is the MCP tool that reads a persisted attachment back.
const ContentTool = "get_file_content"

// unsafeChars are replaced in file names: Windows-reserved characters and path separators.
var unsafeChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "|", "_",
	"?", "_", "*", "_", `\`, "_", "/", "_", " ", "_",
)

// FallbackName is the name used when an item has no usable name of its own.
func FallbackName(c subsidy.Category, index int) string {
	return fmt.Sprintf("%s_%d.pdf", c.Label(), index+1)
}

// Sanitize makes name safe to use as a single path segment.
// Japanese characters are preserved. An unusable result yields fallback.
func Sanitize(name, fallback string) string {
	safe := unsafeChars.Replace(name)
	switch safe {
	case "", "_", ".", "..":
		return fallback
	}
	return safe
}

// Access tells a consumer how to fetch a persisted file later.
type Access struct {
	Tool        string            `json:"tool"`
	Params      map[string]string `json:"params"`
	Description string            `json:"description"`
}

// Entry is the outcome for one attachment: either a stored file or a failure.
type Entry struct {
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name,omitempty"`
	Size         int     `json:"size,omitempty"`
	MCPAccess    *Access `json:"mcp_access,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Failed reports whether the entry records a failure.
func (e Entry) Failed() bool { return e.Error != "" }

// Stored builds a success entry pointing back at ContentTool.
func Stored(subsidyID, name, original string, size int) Entry {
	return Entry{
		Name:         name,
		OriginalName: original,
		Size:         size,
		MCPAccess: &Access{
			Tool: ContentTool,
			Params: map[string]string{
				"subsidy_id": subsidyID,
				"filename":   name,
			},
			Description: "use the " + ContentTool + " tool to read this file",
		},
	}
}

// Failure builds a failure entry carrying the original name.
func Failure(original string, reason error) Entry {
	return Entry{
		Name:  original,
		Error: fmt.Sprintf("failed to save (%s): %v", original, reason),
	}
}

// Report is the per-category outcome of one persist call.
// Only categories that had items appear in Files.
type Report struct {
	Files         map[subsidy.Category][]Entry `json:"files"`
	SaveDirectory string                       `json:"save_directory"`
}
