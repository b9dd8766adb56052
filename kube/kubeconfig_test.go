package kube

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKubeconfig = `apiVersion: v1
kind: Config
current-context: staging
clusters:
- name: staging-cluster
  cluster:
    server: https://staging.example.com
- name: prod-cluster
  cluster:
    server: https://prod.example.com
contexts:
- name: staging
  context:
    cluster: staging-cluster
    user: staging-admin
- name: prod
  context:
    cluster: prod-cluster
    user: prod-admin
users:
- name: staging-admin
- name: prod-admin
`

func writeKubeconfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestListContextsFromFile(t *testing.T) {
	path := writeKubeconfig(t, sampleKubeconfig)

	contexts, err := ListContextsFromFile(path)
	require.NoError(t, err)
	require.Len(t, contexts, 2)

	assert.Equal(t, ContextInfo{Name: "staging", Cluster: "staging-cluster", User: "staging-admin", Current: true}, contexts[0])
	assert.Equal(t, ContextInfo{Name: "prod", Cluster: "prod-cluster", User: "prod-admin", Current: false}, contexts[1])
}

func TestListContextsFromFileMissing(t *testing.T) {
	_, err := ListContextsFromFile(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "failed to read kubeconfig")
}

func TestListContextsFromFileMalformed(t *testing.T) {
	path := writeKubeconfig(t, "contexts: {not: [valid")

	_, err := ListContextsFromFile(path)
	assert.ErrorContains(t, err, "failed to parse kubeconfig")
}

func TestConfigPathHonorsEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", "/tmp/custom-kubeconfig")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-kubeconfig", path)
}

func TestListContextsHonorsEnv(t *testing.T) {
	path := writeKubeconfig(t, sampleKubeconfig)
	t.Setenv("KUBECONFIG", path)

	contexts, err := ListContexts()
	require.NoError(t, err)
	assert.Len(t, contexts, 2)
}
