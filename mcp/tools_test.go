package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNamedServer(t *testing.T, name string) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /resources", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"uri": "file://" + name + "/doc"}})
	})
	mux.HandleFunc("GET /tools", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"uri": "run://" + name, "name": name + "_tool"}})
	})
	mux.HandleFunc("POST /tools/run/task", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ran_on": name})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(Config{Name: name, URL: srv.URL})
}

func TestToolsNames(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"))
	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
	}
	assert.ElementsMatch(t, []string{
		"list_mcp_resources", "get_mcp_resource", "list_mcp_tools", "execute_mcp_tool",
	}, names)
}

func TestListResourcesAggregates(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"), newNamedServer(t, "beta"))

	out, err := tools[0].Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	resources := out.([]map[string]any)
	require.Len(t, resources, 2)
	assert.Equal(t, "alpha", resources[0]["server"])
	assert.Equal(t, "beta", resources[1]["server"])
}

func TestListResourcesServerFilter(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"), newNamedServer(t, "beta"))

	out, err := tools[0].Run(context.Background(), map[string]any{"server": "beta"})
	require.NoError(t, err)
	resources := out.([]map[string]any)
	require.Len(t, resources, 1)
	assert.Equal(t, "file://beta/doc", resources[0]["uri"])
}

func TestListToolsAggregates(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"))

	out, err := tools[2].Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	remote := out.([]map[string]any)
	require.Len(t, remote, 1)
	assert.Equal(t, "alpha_tool", remote[0]["name"])
	assert.Equal(t, "alpha", remote[0]["server"])
}

func TestExecuteToolFirstSuccessWins(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"), newNamedServer(t, "beta"))

	out, err := tools[3].Run(context.Background(), map[string]any{"uri": "run://task"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ran_on": "alpha"}, out)
}

func TestExecuteToolUnknownServerFilter(t *testing.T) {
	tools := Tools(newNamedServer(t, "alpha"))

	_, err := tools[3].Run(context.Background(), map[string]any{
		"uri": "run://task", "server": "gamma",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamma")
}
