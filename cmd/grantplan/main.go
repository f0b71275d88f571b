// grantplan is an operator tool that changes an account's plan directly in
// the database, for support cases where the payment gateway path is not
// appropriate (refund goodwill, internal testing).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

func main() {
	var (
		emailFlag string
		planFlag  string
	)

	flag.StringVar(&emailFlag, "email", "", "account email to update")
	flag.StringVar(&planFlag, "plan", domain.PlanPro, "plan to assign (free, pro)")
	flag.Parse()

	email := strings.ToLower(strings.TrimSpace(emailFlag))
	plan := strings.TrimSpace(strings.ToLower(planFlag))

	if email == "" {
		exitWithError(errors.New("-email is required"))
	}
	switch plan {
	case domain.PlanFree, domain.PlanPro:
	default:
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	status := string(domain.SubscriptionFree)
	if plan == domain.PlanPro {
		status = string(domain.SubscriptionActive)
	}

	tag, err := pool.Exec(ctx, `
UPDATE accounts
SET plan = $2, subscription_status = $3, updated_at = now()
WHERE email = $1;`, email, plan, status)
	if err != nil {
		exitWithError(fmt.Errorf("update failed: %w", err))
	}
	if tag.RowsAffected() == 0 {
		exitWithError(fmt.Errorf("no account with email %q", email))
	}

	fmt.Printf("updated %s to plan=%s status=%s\n", email, plan, status)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
