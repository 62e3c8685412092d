package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"stellarcade/internal/db"
	"stellarcade/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	apply := flag.Bool("apply", false, "apply pending migrations")
	flag.Parse()

	if !*apply {
		files, err := migrations.Files(migrations.DialectPostgres)
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, name := range files {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	applied, err := migrations.ApplyPostgres(ctx, pool)
	if err != nil {
		log.Fatalf("apply: %v", err)
	}
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	if len(applied) == 0 {
		fmt.Println("nothing to apply")
	}
}
