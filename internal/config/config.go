package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAPIURL is used when neither the rc file nor ECAT_API_URL name a
// backend. It matches the dev-server default of the e-Catalog backend.
const DefaultAPIURL = "http://localhost:8000/api/v1"

const rcName = ".ecatrc"

// Config holds the client settings read from ~/.ecatrc and the environment.
type Config struct {
	APIURL       string
	Token        string
	RefreshToken string
	WSURL        string
}

// DefaultPath returns the rc file location in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return rcName
	}
	return filepath.Join(home, rcName)
}

// Load reads the rc file at path, then applies environment overrides
// (ECAT_API_URL, ECAT_TOKEN, ECAT_REFRESH_TOKEN, ECAT_WS_URL). A missing
// file is not an error; env-only configuration is fine.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			switch key {
			case "ECAT_API_URL":
				cfg.APIURL = val
			case "ECAT_TOKEN":
				cfg.Token = val
			case "ECAT_REFRESH_TOKEN":
				cfg.RefreshToken = val
			case "ECAT_WS_URL":
				cfg.WSURL = val
			}
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if v := os.Getenv("ECAT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("ECAT_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("ECAT_REFRESH_TOKEN"); v != "" {
		cfg.RefreshToken = v
	}
	if v := os.Getenv("ECAT_WS_URL"); v != "" {
		cfg.WSURL = v
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.WSURL == "" {
		cfg.WSURL = DeriveWSURL(cfg.APIURL)
	}
	return cfg, nil
}

// Save writes the rc file with 0600 permissions. The API URL is always
// written; tokens only when present.
func Save(path string, cfg Config) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("config: api url empty")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ECAT_API_URL=%s\n", cfg.APIURL)
	if cfg.Token != "" {
		fmt.Fprintf(&b, "ECAT_TOKEN=%s\n", cfg.Token)
	}
	if cfg.RefreshToken != "" {
		fmt.Fprintf(&b, "ECAT_REFRESH_TOKEN=%s\n", cfg.RefreshToken)
	}
	if cfg.WSURL != "" {
		fmt.Fprintf(&b, "ECAT_WS_URL=%s\n", cfg.WSURL)
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// DeriveWSURL maps the REST base URL onto the chat WebSocket root:
// http(s)://host[/api/v1] -> ws(s)://host/ws.
func DeriveWSURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + "/ws"
}
