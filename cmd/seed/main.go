// Command seed bootstraps a fresh database: the platform admin account and
// the product module catalog. Safe to re-run; existing rows are left alone.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	dsn       = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	adminUser = flag.String("admin-user", "admin", "Username for the platform admin")
	adminPass = flag.String("admin-pass", "", "Password for the platform admin (required)")
	dryRun    = flag.Bool("dry-run", false, "Print the plan; no DB writes")
)

// Product modules mirror the platform feature set: field capture,
// campaign monitoring, reporting.
var modules = []struct {
	Code string
	Name string
}{
	{"topo", "Levantamiento Topográfico"},
	{"monitoreo", "Monitoreo de Campañas"},
	{"informes", "Informes y Exportación"},
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()

	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *adminPass == "" && !*dryRun {
		fatalf("--admin-pass is required")
	}

	if *dryRun {
		fmt.Printf("Would create admin user %q and %d product modules\n", *adminUser, len(modules))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	for _, m := range modules {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO directory.modules (id, code, name) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO NOTHING`,
			uuid.NewString(), m.Code, m.Name)
		if err != nil {
			fatalf("insert module %s: %v", m.Code, err)
		}
	}
	fmt.Printf("Ensured %d product modules\n", len(modules))

	hashed, err := bcrypt.GenerateFromPassword([]byte(*adminPass), bcrypt.DefaultCost)
	if err != nil {
		fatalf("hash password: %v", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO app_auth.users (user_id, username, hashed_password, role)
		 VALUES ($1, $2, $3, 'admin')
		 ON CONFLICT (username) DO NOTHING`,
		uuid.NewString(), *adminUser, string(hashed))
	if err != nil {
		fatalf("insert admin: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		fmt.Printf("Admin user %q already exists, left unchanged\n", *adminUser)
	} else {
		fmt.Printf("Created admin user %q\n", *adminUser)
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
