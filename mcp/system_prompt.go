package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"

	"ycli/config"
)

const noServers = "(No MCP servers currently connected)"

// SystemPrompt returns the base assistant prompt followed by a section for
// every connected server, listing its tools, resource templates and
// resources as reported live by the server.
func (m *Manager) SystemPrompt(ctx context.Context) string {
	return basePrompt + m.serverInfo(ctx)
}

func (m *Manager) serverInfo(ctx context.Context) string {
	names := m.Servers()
	if len(names) == 0 {
		return noServers
	}

	sections := make([]string, 0, len(names))
	for _, name := range names {
		session, ok := m.session(name)
		if !ok {
			continue
		}
		sections = append(sections, "## "+name+
			toolsSection(ctx, name, session)+
			templatesSection(ctx, session)+
			resourcesSection(ctx, session))
	}
	return strings.Join(sections, "\n\n")
}

func toolsSection(ctx context.Context, server string, session Session) string {
	result, err := session.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Error listing tools for %s: %v", server, err)
		}
		return ""
	}
	if result == nil || len(result.Tools) == 0 {
		return ""
	}

	tools := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		entry := fmt.Sprintf("- %s: %s", tool.Name, tool.Description)
		if schema := inputSchema(tool); schema != "" {
			entry += "\n    Input Schema:\n    " + strings.ReplaceAll(schema, "\n", "\n    ")
		}
		tools = append(tools, entry)
	}
	return "\n\n### Available Tools\n" + strings.Join(tools, "\n\n")
}

// inputSchema returns the tool's input schema as indented JSON.
func inputSchema(tool mcptypes.Tool) string {
	data, err := json.Marshal(tool)
	if err != nil {
		return ""
	}
	schema := gjson.GetBytes(data, "inputSchema")
	if !schema.Exists() {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(schema.Raw), "", "  "); err != nil {
		return schema.Raw
	}
	return out.String()
}

func templatesSection(ctx context.Context, session Session) string {
	result, err := session.ListResourceTemplates(ctx, mcptypes.ListResourceTemplatesRequest{})
	if err != nil || result == nil || len(result.ResourceTemplates) == 0 {
		return ""
	}
	lines := make([]string, 0, len(result.ResourceTemplates))
	for _, t := range result.ResourceTemplates {
		data, err := json.Marshal(t)
		if err != nil {
			continue
		}
		fields := gjson.GetManyBytes(data, "uriTemplate", "name", "description")
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", fields[0].String(), fields[1].String(), fields[2].String()))
	}
	return "\n\n### Resource Templates\n" + strings.Join(lines, "\n")
}

func resourcesSection(ctx context.Context, session Session) string {
	result, err := session.ListResources(ctx, mcptypes.ListResourcesRequest{})
	if err != nil || result == nil || len(result.Resources) == 0 {
		return ""
	}
	lines := make([]string, 0, len(result.Resources))
	for _, r := range result.Resources {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", r.URI, r.Name, r.Description))
	}
	return "\n\n### Direct Resources\n" + strings.Join(lines, "\n")
}

const basePrompt = `You are y, my private assistant.

====

PRIVATE ASSISTANT

I am y, your private assistant. I am here to help you with a wide range of tasks, from managing your projects to providing information and assistance on various topics. I can help you with simple chat, task management, and much more. Just let me know what you need help with, and I'll do my best to assist you.

====

TOOL USE

You have access to a set of tools that are executed upon the user's approval. You can use one tool per message, and will receive the result of that tool use in the user's response. You use tools step-by-step to accomplish a given task, with each tool use informed by the result of the previous tool use.

# Tool Use Formatting

Tool use is formatted using XML-style tags. The tool name is enclosed in opening and closing tags, and each parameter is similarly enclosed within its own set of tags. Here's the structure:

<tool_name>
<parameter1_name>value1</parameter1_name>
<parameter2_name>value2</parameter2_name>
...
</tool_name>

Always adhere to this format for the tool use to ensure proper parsing and execution.

# Tools
## use_mcp_tool
Description: Request to use a tool provided by a connected MCP server. Each MCP server can provide multiple tools with different capabilities. Tools have defined input schemas that specify required and optional parameters.
Parameters:
- server_name: (required) The name of the MCP server providing the tool
- tool_name: (required) The name of the tool to execute
- arguments: (required) A JSON object containing the tool's input parameters, following the tool's input schema
Usage:
<use_mcp_tool>
<server_name>server name here</server_name>
<tool_name>tool name here</tool_name>
<arguments>
{
  "param1": "value1",
  "param2": "value2"
}
</arguments>
</use_mcp_tool>

## access_mcp_resource
Description: Request to access a resource provided by a connected MCP server. Resources represent data sources that can be used as context, such as files, API responses, or system information.
Parameters:
- server_name: (required) The name of the MCP server providing the resource
- uri: (required) The URI identifying the specific resource to access
Usage:
<access_mcp_resource>
<server_name>server name here</server_name>
<uri>resource URI here</uri>
</access_mcp_resource>

# Tool Use Examples
## Example 1: Requesting to use an MCP tool

<use_mcp_tool>
<server_name>weather-server</server_name>
<tool_name>get_forecast</tool_name>
<arguments>
{
  "city": "San Francisco",
  "days": 5
}
</arguments>
</use_mcp_tool>

## Example 2: Requesting to access an MCP resource

<access_mcp_resource>
<server_name>weather-server</server_name>
<uri>weather://san-francisco/current</uri>
</access_mcp_resource>

# Tool Use Guidelines

1. Assess what information you already have and what information you need to proceed with the task.
2. Choose the most appropriate tool based on the task and the tool descriptions provided.
3. If multiple actions are needed, use one tool at a time per message to accomplish the task iteratively, with each tool use being informed by the result of the previous tool use. Do not assume the outcome of any tool use.
4. Formulate your tool use using the XML format specified for each tool.
5. After each tool use, the user will respond with the result of that tool use, including whether it succeeded or failed and why.
6. ALWAYS wait for user confirmation after each tool use before proceeding. Never assume the success of a tool use without explicit confirmation of the result from the user.

# Tool Use Is Not Always Necessary

Tools are not always required. Use them when you need specific resources, complex operations or access to external systems.

====

MCP SERVERS

The Model Context Protocol (MCP) enables communication between the system and locally running MCP servers that provide additional tools and resources to extend your capabilities.

# Connected MCP Servers

When a server is connected, you can use the server's tools via the ` + "`use_mcp_tool`" + ` tool, and access the server's resources via the ` + "`access_mcp_resource`" + ` tool.

`
