package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"curbside/internal/auth"
)

// Issues a development bearer token for manual API testing, e.g.:
//
//	JWT_SECRET=dev-secret go run ./scripts/issuetoken -user 10 -role customer
func main() {
	userID := flag.Int64("user", 1, "user id for the token subject")
	role := flag.String("role", "customer", "customer or partner")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	issuer := flag.String("issuer", "curbside", "token issuer")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	switch auth.Role(*role) {
	case auth.RoleCustomer, auth.RolePartner:
	default:
		fmt.Fprintf(os.Stderr, "unknown role: %s\n", *role)
		os.Exit(1)
	}

	tokens := auth.NewTokens(secret, *issuer, *ttl)
	token, err := tokens.Issue(auth.Identity{UserID: *userID, Role: auth.Role(*role)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
