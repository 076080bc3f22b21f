package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"grabeat/internal/models"
)

// Seeds a handful of menu items for local development. Schema comes
// from the migration files; run the API once (or golang-migrate
// directly) before seeding.
func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Seeding menu items...")
	if err := seedMenu(ctx, db); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✅ Done.")
}

func seedMenu(ctx context.Context, db *bun.DB) error {
	now := time.Now()
	items := []models.MenuItem{
		{ID: uuid.NewString(), Title: "Double Smash Burger", Desc: "Two smashed beef patties, cheddar, pickles", Price: 1250, IsAvailable: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Title: "Crispy Chicken Burger", Desc: "Buttermilk fried chicken, slaw, spicy mayo", Price: 1150, IsAvailable: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Title: "Fries", Desc: "Skin-on fries with sea salt", Price: 450, IsAvailable: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Title: "Burger Combo", Desc: "Any burger with fries and a drink", Price: 1650, Combo: true, IsAvailable: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Title: "Cola", Desc: "330ml can", Price: 300, IsAvailable: true, CreatedAt: now, UpdatedAt: now},
	}

	_, err := db.NewInsert().Model(&items).Exec(ctx)
	return err
}
