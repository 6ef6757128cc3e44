package main

import (
	"flag"
	"fmt"
	"log"

	"roombooking/internal/config"
	jwtsvc "roombooking/internal/pkg/jwt"
)

// devtoken prints a signed bearer token for local testing.
func main() {
	userID := flag.Int64("user", 1, "user id")
	role := flag.String("role", jwtsvc.RoleUser, "role: user, staff or admin")
	flag.Parse()

	switch *role {
	case jwtsvc.RoleUser, jwtsvc.RoleStaff, jwtsvc.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProd() {
		log.Fatal("devtoken refuses to run in production")
	}

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(*userID, *role)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
