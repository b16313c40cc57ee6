package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gymstay/backend/internal/config"
	"gymstay/backend/internal/firebase"
)

func main() {
	uid := flag.String("uid", "", "target firebase uid")
	role := flag.String("role", "owner", "admin or owner")
	flag.Parse()
	if *uid == "" {
		log.Fatal("uid is required: -uid=xxxxx")
	}
	if *role != "admin" && *role != "owner" {
		log.Fatalf("unknown role %q: use admin or owner", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("firebase.NewApp: %v", err)
	}
	authClient, err := firebase.NewAuthClient(ctx, app)
	if err != nil {
		log.Fatalf("app.Auth: %v", err)
	}

	claims := map[string]interface{}{
		"role":  *role,
		"admin": *role == "admin",
	}
	if err := authClient.SetCustomUserClaims(ctx, *uid, claims); err != nil {
		log.Fatalf("SetCustomUserClaims: %v", err)
	}

	fmt.Printf("ok: %s claims set for %s\n", *role, *uid)
}
