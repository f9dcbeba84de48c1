// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// testEnv is a config file pointing at a fake Tiny API and temp storage.
type testEnv struct {
	dir        string
	configPath string
	tokenPath  string
}

// newTestEnv writes a config for upstream. With clientCreds the OAuth client
// id and secret are set.
func newTestEnv(t *testing.T, upstream string, clientCreds bool) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		tokenPath:  filepath.Join(dir, "tiny_token.json"),
	}

	var client string
	if clientCreds {
		client = "  client_id: test-client\n  client_secret: test-secret\n"
	}

	cfg := fmt.Sprintf(`tiny:
  base_url: %[1]s
  token_url: %[1]s/token
%[2]s  timeout: 5s
  min_interval: 0s
  page_jitter_min: 0s
  page_jitter_max: 0s
  detail_jitter_min: 0s
  detail_jitter_max: 0s
  max_retries: 0
  retry_min: 0s
  retry_max: 0s
credentials:
  path: %[3]s
database:
  driver: duckdb
  path: %[4]s
  max_memory: 512MB
sync:
  policy: safe-merge
  ledger_dir: %[5]s
logging:
  level: error
  format: json
`, upstream, client, env.tokenPath, filepath.Join(dir, "ordersync.duckdb"), dir)

	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

// writeToken stores a credential that expires in an hour.
func (e *testEnv) writeToken(t *testing.T, access string) {
	t.Helper()
	body := fmt.Sprintf(`{"access_token":%q,"refresh_token":"refresh-1","expires_at":%d,"last_renewal":%d}`,
		access, time.Now().Add(time.Hour).Unix(), time.Now().Unix())
	require.NoError(t, os.WriteFile(e.tokenPath, []byte(body), 0o600))
}

// execute runs the root command with args and returns stdout and the error.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.configPath}, args...)...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// fakeTiny serves ids through the list endpoint and a full detail for each,
// plus a short contacts listing.
func fakeTiny(t *testing.T, ids ...int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch {
		case r.URL.Path == "/ordem-servico":
			items := []any{}
			if r.URL.Query().Get("offset") == "0" || r.URL.Query().Get("offset") == "" {
				for _, id := range ids {
					items = append(items, map[string]any{
						"id":         id,
						"situacao":   "3 - Finalizada",
						"data":       "2025-04-10",
						"marcadores": []any{map[string]any{"descricao": "Instagram"}},
					})
				}
			}
			writeJSON(t, w, map[string]any{"itens": items})

		case strings.HasPrefix(r.URL.Path, "/ordem-servico/"):
			id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/ordem-servico/"), 10, 64)
			if err != nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(t, w, map[string]any{"ordemServico": map[string]any{
				"id":                 id,
				"numeroOrdemServico": strconv.FormatInt(1000+id, 10),
				"situacao":           "3 - Finalizada",
				"data":               "2025-04-10",
				"totalOrdemServico":  "1.200,00",
				"equipamento":        "iPhone 12",
				"descricaoProblema":  "Tela quebrada",
			}})

		case r.URL.Path == "/contatos":
			items := []any{}
			if r.URL.Query().Get("offset") == "0" {
				items = append(items,
					map[string]any{"id": 501, "nome": "Ana", "fone": "1111"},
					map[string]any{"id": 502, "nome": "Bruno", "endereco": "Rua B", "numero": "2"},
					map[string]any{"id": 503},
				)
			}
			writeJSON(t, w, map[string]any{"itens": items})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
