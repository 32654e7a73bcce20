// Package config holds deployment configuration: the well-known companion
// program addresses and the environment/.env plumbing the commands read
// their endpoints from.
package config

import (
	"bufio"
	"os"
	"strings"
)

// LoadEnv merges KEY=VALUE pairs from an optional .env file into the
// process environment. Values already set in the environment win.
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		// The .env file is optional.
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if os.Getenv(key) == "" {
			os.Setenv(key, strings.TrimSpace(value))
		}
	}
	return scanner.Err()
}

// GetRPCEndpoints returns the comma-separated RPC_ENDPOINTS list, empty if
// unset.
func GetRPCEndpoints() []string {
	raw := os.Getenv("RPC_ENDPOINTS")
	if raw == "" {
		return nil
	}
	var endpoints []string
	for _, endpoint := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			endpoints = append(endpoints, trimmed)
		}
	}
	return endpoints
}

// GetWSEndpoint returns the WS_ENDPOINT override, or derives a WebSocket URL
// from the first RPC endpoint.
func GetWSEndpoint() string {
	if v := os.Getenv("WS_ENDPOINT"); v != "" {
		return v
	}
	endpoints := GetRPCEndpoints()
	if len(endpoints) == 0 {
		return ""
	}
	ws := strings.Replace(endpoints[0], "https://", "wss://", 1)
	return strings.Replace(ws, "http://", "ws://", 1)
}
