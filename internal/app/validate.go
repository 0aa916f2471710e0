package app

import (
	"fmt"
	"strings"

	"chatsync/pkg/config"
)

// validateConfig fails fast on settings the server cannot run without.
func validateConfig(cfg *config.Config, addr, dbPath string) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("listen address is empty")
	}
	if strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("db path is empty")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile == "" {
		return fmt.Errorf("tls cert_file set without key_file")
	}
	if cfg.Server.TLS.KeyFile != "" && cfg.Server.TLS.CertFile == "" {
		return fmt.Errorf("tls key_file set without cert_file")
	}
	return nil
}
