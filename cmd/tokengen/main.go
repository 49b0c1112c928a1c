// Command tokengen issues API tokens signed with AUTH_JWT_SECRET.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/milestone-tracker/internal/auth"
	"github.com/spec-kit/milestone-tracker/internal/config"
)

func main() {
	subject := pflag.StringP("subject", "s", "", "token subject")
	scopes := pflag.StringSlice("scope", []string{auth.ScopeReplayWrite, auth.ScopeReplayRead}, "granted scopes")
	ttl := pflag.Duration("ttl", 0, "token lifetime; defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" || *subject == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET and --subject are required")
		os.Exit(2)
	}

	lifetime := cfg.Auth.AccessTokenTTL()
	if *ttl > 0 {
		lifetime = *ttl
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime)
	token, expiresAt, err := tokens.GenerateToken(*subject, *scopes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
