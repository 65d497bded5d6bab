package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureWalletTables()
	ensureTasksTable()
	ensureOffersTable()
	ensureContractsTable()
	ensureSupportTicketsTable()
}

// ensureUsersTable creates users if missing
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            skills TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureWalletTables creates wallets and the append-only transactions log.
// Balance is in minor currency units; the CHECK keeps it non-negative even
// if a handler ever skips its own guard.
func ensureWalletTables() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS wallets (
            user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create wallets table: %v", err)
	}

	_, err = Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL CHECK (type IN ('debit', 'credit', 'funding')),
            amount BIGINT NOT NULL CHECK (amount > 0),
            reason TEXT NOT NULL DEFAULT '',
            counterparty_id UUID NULL REFERENCES users(id) ON DELETE SET NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create transactions table: %v", err)
	}
}

// ensureTasksTable creates tasks if missing
func ensureTasksTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS tasks (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            component_type TEXT NOT NULL CHECK (component_type IN ('Backend', 'Frontend', 'Database', 'Deployment', 'Full Stack')),
            participation_fee BIGINT NOT NULL CHECK (participation_fee >= 0),
            budget BIGINT NOT NULL CHECK (budget >= 0),
            deadline TIMESTAMP WITH TIME ZONE NOT NULL,
            posted_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in-progress', 'completed', 'disputed', 'closed', 'expired')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_tasks_posted_by ON tasks(posted_by);
        CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
    `)
	if err != nil {
		log.Printf("failed to create tasks table: %v", err)
	}
}

// ensureOffersTable creates offers if missing. UNIQUE(task_id, worker_id)
// enforces one offer per worker per task under concurrent applies.
func ensureOffersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS offers (
            id UUID PRIMARY KEY,
            task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            worker_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            proposed_fee BIGINT NOT NULL CHECK (proposed_fee > 0),
            message TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected', 'withdrawn')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (task_id, worker_id)
        );
        CREATE INDEX IF NOT EXISTS idx_offers_task ON offers(task_id);
        CREATE INDEX IF NOT EXISTS idx_offers_worker ON offers(worker_id);
    `)
	if err != nil {
		log.Printf("failed to create offers table: %v", err)
	}
}

// ensureContractsTable creates contracts if missing. UNIQUE(task_id) makes
// the loser of a concurrent double-acceptance fail at commit time no matter
// what its handler pre-checked. Milestones live on the row as JSONB so flag
// flips commit in the same transaction as the payout they trigger.
func ensureContractsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS contracts (
            id UUID PRIMARY KEY,
            task_id UUID NOT NULL UNIQUE REFERENCES tasks(id) ON DELETE CASCADE,
            accepted_offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
            payment_terms TEXT NOT NULL CHECK (payment_terms IN ('quarter', 'half', 'full')),
            milestones JSONB NOT NULL,
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'cancelled')),
            dispute_raised BOOLEAN NOT NULL DEFAULT FALSE,
            dispute_reason TEXT NOT NULL DEFAULT '',
            dispute_by TEXT NULL CHECK (dispute_by IN ('poster', 'worker')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create contracts table: %v", err)
	}
}

// ensureSupportTicketsTable creates support_tickets if missing
func ensureSupportTicketsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS support_tickets (
            id UUID PRIMARY KEY,
            task_id UUID NULL REFERENCES tasks(id) ON DELETE SET NULL,
            contract_id UUID NULL REFERENCES contracts(id) ON DELETE SET NULL,
            raised_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            description TEXT NOT NULL,
            evidence TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'resolved')),
            admin_decision TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            resolved_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_support_tickets_raised_by ON support_tickets(raised_by);
        CREATE INDEX IF NOT EXISTS idx_support_tickets_status ON support_tickets(status);
    `)
	if err != nil {
		log.Printf("failed to create support_tickets table: %v", err)
	}
}
