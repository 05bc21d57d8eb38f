package mcp

import (
	"context"
	"fmt"

	"github.com/agentloop/agentloop/tool"
)

// Tools exposes the given servers as a family of generic tools. With more
// than one server the list tools aggregate across all of them and take an
// optional "server" filter; the URI-addressed tools try each server in order
// until one succeeds.
func Tools(clients ...*Client) []tool.Tool {
	return []tool.Tool{
		listResourcesTool(clients),
		getResourceTool(clients),
		listToolsTool(clients),
		executeToolTool(clients),
	}
}

var serverFilterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"server": map[string]any{
			"type":        "string",
			"description": "Only query the server with this name",
		},
	},
}

func listResourcesTool(clients []*Client) tool.Tool {
	return tool.NewFunctionTool(
		"list_mcp_resources",
		"List resources available from connected context servers.",
		serverFilterSchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			filter, _ := args["server"].(string)
			resources := []map[string]any{}
			for _, c := range selectClients(clients, filter) {
				rs, err := c.ListResources(ctx)
				if err != nil {
					return nil, err
				}
				for _, r := range rs {
					r["server"] = c.Name()
					resources = append(resources, r)
				}
			}
			return resources, nil
		},
	)
}

func getResourceTool(clients []*Client) tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"uri": map[string]any{
				"type":        "string",
				"description": "URI of the resource, in the form scheme://path",
			},
			"server": map[string]any{
				"type":        "string",
				"description": "Only query the server with this name",
			},
		},
		"required": []string{"uri"},
	}
	return tool.NewFunctionTool(
		"get_mcp_resource",
		"Fetch a resource from a context server by its URI.",
		schema,
		func(ctx context.Context, args map[string]any) (any, error) {
			uri, _ := args["uri"].(string)
			filter, _ := args["server"].(string)

			var lastErr error
			for _, c := range selectClients(clients, filter) {
				res, err := c.GetResource(ctx, uri)
				if err == nil {
					return res, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no server matches %q", filter)
			}
			return nil, lastErr
		},
	)
}

func listToolsTool(clients []*Client) tool.Tool {
	return tool.NewFunctionTool(
		"list_mcp_tools",
		"List tools available on connected context servers.",
		serverFilterSchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			filter, _ := args["server"].(string)
			tools := []map[string]any{}
			for _, c := range selectClients(clients, filter) {
				ts, err := c.ListTools(ctx)
				if err != nil {
					return nil, err
				}
				for _, t := range ts {
					tools = append(tools, map[string]any{
						"server":      c.Name(),
						"uri":         t.URI,
						"name":        t.Name,
						"description": t.Description,
						"parameters":  t.Parameters,
					})
				}
			}
			return tools, nil
		},
	)
}

func executeToolTool(clients []*Client) tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"uri": map[string]any{
				"type":        "string",
				"description": "URI of the tool, in the form scheme://path",
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Parameters passed to the tool",
			},
			"server": map[string]any{
				"type":        "string",
				"description": "Only use the server with this name",
			},
		},
		"required": []string{"uri"},
	}
	return tool.NewFunctionTool(
		"execute_mcp_tool",
		"Execute a tool hosted on a context server and return its result.",
		schema,
		func(ctx context.Context, args map[string]any) (any, error) {
			uri, _ := args["uri"].(string)
			filter, _ := args["server"].(string)
			params, _ := args["params"].(map[string]any)

			var lastErr error
			for _, c := range selectClients(clients, filter) {
				out, err := c.ExecuteTool(ctx, uri, params)
				if err == nil {
					return out, nil
				}
				lastErr = err
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no server matches %q", filter)
			}
			return nil, lastErr
		},
	)
}

func selectClients(clients []*Client, filter string) []*Client {
	if filter == "" {
		return clients
	}
	out := make([]*Client, 0, 1)
	for _, c := range clients {
		if c.Name() == filter {
			out = append(out, c)
		}
	}
	return out
}
