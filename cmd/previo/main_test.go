package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/Previo/internal/config"
)

const export = `{
  "header": {"client": "ACME", "entry": "240001", "supplier": "Foo", "date": "2024-05-17"},
  "products": [
    {"schema": "current", "product": {"id": "p1", "descripcion": "Tornillo", "cantidad": 3, "peso_neto_unitario": 0.1}},
    {"schema": "legacy", "product": {"id": "p2", "code": "X-1", "detailedDescription": "Tuerca", "quantity": 2, "weight": 1.5}}
  ]
}`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRenderThenInspect(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "export.json")
	pdf := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(in, []byte(export), 0o600))

	out := execute(t, "render", in, "-o", pdf)
	assert.Contains(t, out, "(2 products)")

	out = execute(t, "inspect", pdf)
	assert.Contains(t, out, "pages: 1")
	assert.Contains(t, out, "Tornillo")
	assert.Contains(t, out, "Tuerca")
}

func TestRenderRejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"products":[{"schema":"v0","product":{}}]}`), 0o600))

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"render", in})
	assert.Error(t, cmd.Execute())
}

func TestIntegrationEnvUsesConfig(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "postgres://x@db/previo", RedisAddr: "redis:6379", S3Endpoint: "minio:9000"}
	assert.Equal(t, []string{
		"PREVIO_TEST_DATABASE_URL=postgres://x@db/previo",
		"PREVIO_TEST_REDIS_ADDR=redis:6379",
		"PREVIO_TEST_S3_ENDPOINT=minio:9000",
	}, integrationEnv(cfg))
}
