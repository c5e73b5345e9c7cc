// seed inserts a verified member, an admin and an approved affiliate into the
// local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/wisdom-hub/internal/password"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	seedPassword  = "password123"
	memberEmail   = "member@test.local"
	adminEmail    = "admin@test.local"
	affiliateCode = "AFF-5EED5EED5EED"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	if err := postgres.Migrate(ctx, dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	hash, err := password.NewHasher(password.MinCost).Hash(seedPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	memberID := upsertUser(ctx, pool, memberEmail, "Seed Member", hash, []string{"Mindset", "Discipline"})
	adminID := upsertUser(ctx, pool, adminEmail, "Seed Admin", hash, nil)

	var affiliateID string
	err = pool.QueryRow(ctx, `
		INSERT INTO affiliates (user_id, affiliate_code, commission_rate, status, approved_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING id`,
		memberID, affiliateCode, domain.DefaultCommissionRate, domain.AffiliateApproved,
	).Scan(&affiliateID)
	if err != nil {
		log.Fatalf("upsert affiliate: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Member:     %s / %s  (id %s)\n", memberEmail, seedPassword, memberID)
	fmt.Printf("  Admin:      %s / %s  (id %s)\n", adminEmail, seedPassword, adminID)
	fmt.Printf("  Affiliate:  %s  (id %s, approved, %d%%)\n", affiliateCode, affiliateID, domain.DefaultCommissionRate)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Start the server with the admin allow-listed:")
	fmt.Println()
	fmt.Printf("    ADMIN_EMAILS=%s go run ./cmd/server\n", adminEmail)
	fmt.Println()
	fmt.Println("  Step 1, log in as the member:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", memberEmail, seedPassword)
	fmt.Println("    # → {\"user\":{...},\"token\":\"eyJ...\"}")
	fmt.Println()
	fmt.Println("  Step 2, look at the affiliate's stats and referral link:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Printf("    curl -s http://localhost:8080/affiliates/%s/stats -H \"Authorization: Bearer $JWT\"\n", affiliateCode)
	fmt.Printf("    curl -s http://localhost:8080/affiliates/%s/referral-link\n", affiliateCode)
	fmt.Println()
	fmt.Println("  Step 3, log in as the admin and list pending affiliates:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/affiliates/pending -H \"Authorization: Bearer $ADMIN_JWT\"")
}

// upsertUser creates or refreshes a verified account with the given password hash.
func upsertUser(ctx context.Context, pool *pgxpool.Pool, email, name, hash string, interests []string) string {
	if interests == nil {
		interests = []string{}
	}
	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, email_verified, interests)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, email_verified = TRUE, updated_at = NOW()
		RETURNING id`,
		domain.NormalizeEmail(email), name, hash, interests,
	).Scan(&id)
	if err != nil {
		log.Fatalf("upsert user %s: %v", email, err)
	}
	return id
}
