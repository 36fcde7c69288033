// Command token prints a bearer token for an actor id, signed with JWT_SECRET.
//
//	go run ./cmd/token -sub user-1 -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"happymemories/config"
	"happymemories/internal/adapters/auth"
)

func main() {
	sub := flag.String("sub", "", "actor id to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "token: -sub is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}

	token, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer).Issue(*sub, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
