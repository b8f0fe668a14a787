package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/infra/credentials"
	"github.com/leavend/campaign-studio/internal/infra/google"
)

func main() {
	var fileFlag string
	flag.StringVar(&fileFlag, "file", "", "path to a Google service-account JSON key (\"-\" reads stdin; fallbacks to GOOGLE_SERVICE_ACCOUNT_FILE)")
	flag.Parse()

	path := strings.TrimSpace(fileFlag)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "service account key is required via -file or GOOGLE_SERVICE_ACCOUNT_FILE")
		os.Exit(1)
	}

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read service account key: %v\n", err)
		os.Exit(1)
	}
	account, err := google.ParseServiceAccountJSON(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid service account key: %v\n", err)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credential").Str("principal", account.ClientEmail).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	ctxExec, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	if err := store.SetServiceAccountJSON(ctxExec, raw); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist service account key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("service account %s stored successfully\n", account.ClientEmail)
}
