package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// VaultConfig describes a HashiCorp Vault KV location to hydrate the
// process environment from (database credentials, WhatsApp tokens).
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// VaultResult summarizes a hydration run
type VaultResult struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
}

// LoadVaultConfigFromEnv builds a VaultConfig from VAULT_* variables.
// pathOverride, when non-empty, wins over VAULT_PATH.
func LoadVaultConfigFromEnv(pathOverride string) VaultConfig {
	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}
	kvVersion := 2
	if val := os.Getenv("VAULT_KV_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			kvVersion = parsed
		}
	}
	path := pathOverride
	if path == "" {
		path = os.Getenv("VAULT_PATH")
	}
	if path == "" {
		path = "vetcore"
	}
	timeout := 5 * time.Second
	if val := os.Getenv("VAULT_TIMEOUT_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     mount,
		Path:      path,
		KVVersion: kvVersion,
		Timeout:   timeout,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
}

// HydrateFromVault fetches the KV entry and exports its keys into the
// process environment. Existing variables are kept unless Overwrite is set.
// A disabled config is a no-op.
func HydrateFromVault(cfg VaultConfig) (VaultResult, error) {
	if !cfg.Enabled {
		return VaultResult{Enabled: false}, nil
	}

	result := VaultResult{Enabled: true, Path: cfg.Path}

	if cfg.Addr == "" || cfg.Token == "" {
		return result, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	data, err := fetchKV(ctx, cfg)
	if err != nil {
		return result, err
	}

	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, stringifyVaultValue(value)); err != nil {
			return result, err
		}
		result.Loaded++
	}

	return result, nil
}

// fetchKV reads the secret payload over the Vault HTTP API
func fetchKV(ctx context.Context, cfg VaultConfig) (map[string]interface{}, error) {
	url, err := buildVaultURL(cfg.Addr, cfg.Mount, cfg.Path, cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	return extractVaultData(payload, cfg.KVVersion)
}

func buildVaultURL(addr, mount, path string, kvVersion int) (string, error) {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func extractVaultData(payload map[string]interface{}, kvVersion int) (map[string]interface{}, error) {
	if kvVersion == 1 {
		if data, ok := payload["data"].(map[string]interface{}); ok {
			return data, nil
		}
		return nil, errors.New("vault response missing data for KV v1")
	}

	if data, ok := payload["data"].(map[string]interface{}); ok {
		if inner, ok := data["data"].(map[string]interface{}); ok {
			return inner, nil
		}
	}
	return nil, errors.New("vault response missing data for KV v2")
}

func stringifyVaultValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
