// Command issue_token prints a caller token for an address. It stands in
// for the external token issuer in development and signs with the same
// JWT_SECRET and TOKEN_TTL the server is configured with.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"stellarcade/internal/config"
	"stellarcade/internal/domain"
	"stellarcade/internal/service"
)

func main() {
	cfg := config.Load()
	if err := run(os.Args[1:], cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("issue_token", flag.ContinueOnError)
	addr := fs.String("address", "", "caller address the token is issued for")
	ttl := fs.Duration("ttl", cfg.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr == "" {
		return errors.New("-address is required")
	}
	if err := service.InitJWT(cfg.JWTSecret); err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}

	token, err := service.IssueCallerToken(domain.Address(*addr), *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	// verify read
	got, err := service.ParseCallerToken(token)
	if err != nil || got != domain.Address(*addr) {
		return fmt.Errorf("token does not round-trip: %v", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
