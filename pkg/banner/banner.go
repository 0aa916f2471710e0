package banner

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"chatsync/pkg/config"
	"chatsync/pkg/store"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗███████╗██╗   ██╗███╗   ██╗ ██████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔════╝╚██╗ ██╔╝████╗  ██║██╔════╝
██║     ███████║███████║   ██║   ███████╗ ╚████╔╝ ██╔██╗ ██║██║
██║     ██╔══██║██╔══██║   ██║   ╚════██║  ╚██╔╝  ██║╚██╗██║██║
╚██████╗██║  ██║██║  ██║   ██║   ███████║   ██║   ██║ ╚████║╚██████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝   ╚═╝   ╚═╝  ╚═══╝ ╚═════╝
`

// Print writes the startup banner with the effective runtime settings and
// a few readiness checks operators tend to forget.
func Print(cfg *config.Config, addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if store.Ready() {
		fmt.Printf("DB Size:  %s\n", humanize.Bytes(store.DiskUsage()))
	}
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config:   %s\n", sources)
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/conversations              - open a direct conversation")
	fmt.Println("POST /v1/conversations/group        - create a group")
	fmt.Println("POST /v1/conversations/{id}/messages - send a message")
	fmt.Println("GET  /v1/conversations              - conversation list for the caller")
	fmt.Println("GET  /v1/users                      - user directory")
	fmt.Println("GET  /v1/subscribe                  - websocket change feed")

	fmt.Println("\n== Production? =================================================")
	if cfg == nil {
		fmt.Println("- No config loaded; flags/env only")
		return
	}
	if n := len(cfg.Security.APIKeys.Backend); n > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for directory sync)")
	}
	if n := len(cfg.Security.APIKeys.Frontend); n > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if n := len(cfg.Security.SigningKeys) + len(cfg.Security.APIKeys.Backend); n > 0 {
		fmt.Printf("- Signing keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Signing keys: MISSING (user signatures cannot verify)")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
}
