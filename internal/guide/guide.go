// Package guide holds the static usage texts served as MCP prompts and resources.
package guide

import (
	"embed"
	"strings"
)

//go:embed texts
var texts embed.FS

// Prompt is a named instruction text.
type Prompt struct {
	Name        string
	Description string
	Text        string
}

// Resource is a static document addressed by URI.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Text        string
}

// GuidelinesURI addresses the usage guidelines.
const GuidelinesURI = "jgrants://guidelines"

var (
	prompts = []Prompt{
		{
			Name:        "subsidy_search_guide",
			Description: "補助金検索のガイドとベストプラクティス",
			Text:        mustRead("texts/subsidy_search_guide.md"),
		},
		{
			Name:        "api_usage_agreement",
			Description: "jGrants API利用に関する同意事項",
			Text:        mustRead("texts/api_usage_agreement.md"),
		},
	}

	resources = []Resource{
		{
			URI:         GuidelinesURI,
			Name:        "jGrants MCP サーバー利用ガイドライン",
			Description: "常に参照可能な利用ガイドライン",
			MIMEType:    "text/plain",
			Text:        mustRead("texts/guidelines.txt"),
		},
	}
)

func mustRead(name string) string {
	b, err := texts.ReadFile(name)
	if err != nil {
		panic("guide: " + err.Error())
	}
	return strings.TrimSpace(string(b))
}

// Prompts lists every prompt in a stable order.
func Prompts() []Prompt { return prompts }

// FindPrompt looks a prompt up by name.
func FindPrompt(name string) (Prompt, bool) {
	for _, p := range prompts {
		if p.Name == name {
			return p, true
		}
	}
	return Prompt{}, false
}

// Resources lists every resource.
func Resources() []Resource { return resources }

// FindResource looks a resource up by URI.
func FindResource(uri string) (Resource, bool) {
	for _, r := range resources {
		if r.URI == uri {
			return r, true
		}
	}
	return Resource{}, false
}
