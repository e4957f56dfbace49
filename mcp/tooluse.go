package mcp

import (
	"encoding/json"
	"strings"
)

const (
	TagUseTool        = "use_mcp_tool"
	TagAccessResource = "access_mcp_resource"
)

// toolTags are the directives an assistant may embed, in detection order.
var toolTags = []string{TagUseTool, TagAccessResource}

// ToolInvocation is a parsed use_mcp_tool directive.
type ToolInvocation struct {
	ServerName string
	ToolName   string
	Arguments  map[string]any
}

// ResourceAccess is a parsed access_mcp_resource directive.
type ResourceAccess struct {
	ServerName string
	URI        string
}

func openTag(tag string) string  { return "<" + tag + ">" }
func closeTag(tag string) string { return "</" + tag + ">" }

// ContainsToolUse reports whether text holds both the opening and closing
// tag of any directive. Nesting is not validated.
func ContainsToolUse(text string) bool {
	for _, tag := range toolTags {
		if strings.Contains(text, openTag(tag)) && strings.Contains(text, closeTag(tag)) {
			return true
		}
	}
	return false
}

// SplitContent separates the earliest directive from the surrounding text.
// plain is the text before and after the block, trimmed; block runs from the
// opening through the first matching closing tag. Later directives stay in
// plain untouched. ok is false when no complete block is found, in which
// case plain is the whole trimmed text.
func SplitContent(text string) (plain, block string, ok bool) {
	start, tag := -1, ""
	for _, t := range toolTags {
		if i := strings.Index(text, openTag(t)); i >= 0 && (start < 0 || i < start) {
			start, tag = i, t
		}
	}
	if start < 0 {
		return strings.TrimSpace(text), "", false
	}

	end := strings.Index(text[start:], closeTag(tag))
	if end < 0 {
		return strings.TrimSpace(text), "", false
	}
	end += start + len(closeTag(tag))

	block = strings.TrimSpace(text[start:end])
	plain = strings.TrimSpace(text[:start] + text[end:])
	return plain, block, true
}

// between returns the trimmed text between the first open/close pair of tag.
func between(text, tag string) (string, bool) {
	i := strings.Index(text, openTag(tag))
	if i < 0 {
		return "", false
	}
	rest := text[i+len(openTag(tag)):]
	j := strings.Index(rest, closeTag(tag))
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}

// ExtractToolUse parses the first use_mcp_tool directive in block. It fails
// when a field is missing or the arguments are not a JSON object.
func ExtractToolUse(block string) (ToolInvocation, bool) {
	body, ok := between(block, TagUseTool)
	if !ok {
		return ToolInvocation{}, false
	}
	server, ok := between(body, "server_name")
	if !ok {
		return ToolInvocation{}, false
	}
	tool, ok := between(body, "tool_name")
	if !ok {
		return ToolInvocation{}, false
	}
	rawArgs, ok := between(body, "arguments")
	if !ok || !strings.HasPrefix(rawArgs, "{") {
		return ToolInvocation{}, false
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || args == nil {
		return ToolInvocation{}, false
	}
	return ToolInvocation{ServerName: server, ToolName: tool, Arguments: args}, true
}

// ExtractResourceAccess parses the first access_mcp_resource directive in block.
func ExtractResourceAccess(block string) (ResourceAccess, bool) {
	body, ok := between(block, TagAccessResource)
	if !ok {
		return ResourceAccess{}, false
	}
	server, ok := between(body, "server_name")
	if !ok || server == "" {
		return ResourceAccess{}, false
	}
	uri, ok := between(body, "uri")
	if !ok || uri == "" {
		return ResourceAccess{}, false
	}
	return ResourceAccess{ServerName: server, URI: uri}, true
}
