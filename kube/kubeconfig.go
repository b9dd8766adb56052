// Package kube reads cluster context information from a kubeconfig file. Only
// the context-related subset of the kubeconfig schema is modeled; credentials
// and cluster endpoints stay untouched.
package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the kubeconfig location relative to the home directory.
const DefaultConfigPath = ".kube/config"

// ContextInfo describes a single kubeconfig context entry.
type ContextInfo struct {
	Name    string `json:"name" yaml:"name"`
	Cluster string `json:"cluster" yaml:"cluster"`
	User    string `json:"user" yaml:"user"`
	Current bool   `json:"current" yaml:"current"`
}

// kubeconfig models the subset of the file needed for context listing.
type kubeconfig struct {
	CurrentContext string `yaml:"current-context"`
	Contexts       []struct {
		Name    string `yaml:"name"`
		Context struct {
			Cluster string `yaml:"cluster"`
			User    string `yaml:"user"`
		} `yaml:"context"`
	} `yaml:"contexts"`
}

// ConfigPath resolves the kubeconfig location: the KUBECONFIG environment
// variable when set, otherwise ~/.kube/config.
func ConfigPath() (string, error) {
	if p := os.Getenv("KUBECONFIG"); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigPath), nil
}

// ListContexts returns all contexts from the default kubeconfig location.
func ListContexts() ([]ContextInfo, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	return ListContextsFromFile(path)
}

// ListContextsFromFile parses the given kubeconfig and returns its contexts
// with the current one flagged.
func ListContextsFromFile(path string) ([]ContextInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	var cfg kubeconfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}

	contexts := make([]ContextInfo, 0, len(cfg.Contexts))
	for _, ctx := range cfg.Contexts {
		contexts = append(contexts, ContextInfo{
			Name:    ctx.Name,
			Cluster: ctx.Context.Cluster,
			User:    ctx.Context.User,
			Current: ctx.Name == cfg.CurrentContext,
		})
	}

	return contexts, nil
}
