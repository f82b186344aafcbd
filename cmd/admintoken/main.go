// File: cmd/admintoken/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"telegram-subscription-shop/internal/config"
	"telegram-subscription-shop/internal/infra/api"
)

// admintoken prints a bearer token for the /api/admin endpoints.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to admin.token_ttl)")
	flag.Parse()

	// dev mode: only the admin secret matters here
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Admin.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "admin.jwt_secret (ADMIN_JWT_SECRET) is not set")
		os.Exit(1)
	}
	lifetime := cfg.Admin.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, exp, err := api.NewAuthManager(cfg.Admin.JWTSecret, lifetime).Mint(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.UTC().Format(time.RFC3339))
}
