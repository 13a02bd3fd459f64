// Command devtoken mints a bearer token for local testing, signed with
// JWT_SECRET from the environment or .env.
//
//	go run ./cmd/devtoken -user 5 -role passenger
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

func main() {
	user := flag.Uint64("user", 1, "user id (sub claim)")
	role := flag.String("role", "passenger", "role claim: passenger or operator")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}
	tok, err := utils.NewAccessToken(secret, *user, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
}
