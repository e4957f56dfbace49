package config

import "slices"

// MCPServerConfig describes how to launch a stdio MCP server.
type MCPServerConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// MCPRegistry manages MCP server definitions in a JSONL file.
type MCPRegistry struct {
	path string
}

func NewMCPRegistry(path string) *MCPRegistry {
	return &MCPRegistry{path: path}
}

func (r *MCPRegistry) List() ([]MCPServerConfig, error) {
	return ReadJSONL[MCPServerConfig](r.path)
}

// Get returns the named server. Read failures are logged and reported as
// not found.
func (r *MCPRegistry) Get(name string) (MCPServerConfig, bool) {
	servers, err := r.List()
	if err != nil {
		if DebugLog != nil {
			DebugLog.Printf("[MCPRegistry] Failed to load %s: %v", r.path, err)
		}
		return MCPServerConfig{}, false
	}
	for _, s := range servers {
		if s.Name == name {
			return s, true
		}
	}
	return MCPServerConfig{}, false
}

// Add inserts or replaces the server with the same name.
func (r *MCPRegistry) Add(server MCPServerConfig) error {
	servers, err := r.List()
	if err != nil {
		return err
	}
	servers = slices.DeleteFunc(servers, func(s MCPServerConfig) bool { return s.Name == server.Name })
	servers = append(servers, server)
	return WriteJSONL(r.path, servers)
}

func (r *MCPRegistry) Delete(name string) (bool, error) {
	servers, err := r.List()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(servers), func(s MCPServerConfig) bool { return s.Name == name })
	if len(kept) == len(servers) {
		return false, nil
	}
	return true, WriteJSONL(r.path, kept)
}
