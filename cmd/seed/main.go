package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartmenu/api/internal/config"
	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/enum"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	demo := flag.Bool("demo", false, "Also seed a demo catalog (areas, tables, categories, foods)")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *email == "" {
		*email = "admin@smartmenu.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Admin"
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	queries := database.New(tx)

	admin, err := seedAdmin(ctx, queries, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	if *demo {
		if err := seedDemoCatalog(ctx, queries); err != nil {
			log.Fatalf("Failed to seed demo catalog: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Admin ID: %s", admin.ID)
}

// seedAdmin creates the initial admin login if it doesn't exist.
func seedAdmin(ctx context.Context, queries *database.Queries, email, password, name string) (database.StaffUser, error) {
	existing, err := queries.GetStaffUserByEmail(ctx, email)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", email, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.StaffUser{}, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.StaffUser{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := queries.CreateStaffUser(ctx, database.CreateStaffUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         enum.StaffRoleAdmin,
	})
	if err != nil {
		return database.StaffUser{}, fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created admin user '%s' (ID: %s)", email, user.ID)
	return user, nil
}

// seedDemoCatalog fills an empty database with a small working restaurant:
// one area with three tables and a menu with a combo, mains and an add-on.
func seedDemoCatalog(ctx context.Context, queries *database.Queries) error {
	existing, err := queries.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if len(existing) > 0 {
		log.Println("Catalog already has data, skipping demo seed")
		return nil
	}

	area, err := queries.CreateArea(ctx, database.CreateAreaParams{
		Code:      "G",
		Name:      "Ground floor",
		SortOrder: 1,
	})
	if err != nil {
		return fmt.Errorf("insert area: %w", err)
	}

	for i := int32(1); i <= 3; i++ {
		_, err := queries.CreateTable(ctx, database.CreateTableParams{
			Code:        fmt.Sprintf("B%02d", i),
			Name:        fmt.Sprintf("Bàn %d", i),
			AreaID:      area.ID,
			IndexNumber: i,
		})
		if err != nil {
			return fmt.Errorf("insert table %d: %w", i, err)
		}
	}

	noodles, err := queries.CreateCategory(ctx, database.CreateCategoryParams{Name: "Noodles", SortOrder: 1})
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	drinks, err := queries.CreateCategory(ctx, database.CreateCategoryParams{Name: "Drinks", SortOrder: 2})
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	foods := []database.CreateFoodParams{
		{CategoryID: noodles.ID, Name: "Pho Bo", Price: 55000, IsAvailable: true},
		{CategoryID: noodles.ID, Name: "Bun Cha", Price: 50000, IsAvailable: true},
		{CategoryID: noodles.ID, Name: "Extra Beef", Price: 15000, IsAddon: true, IsAvailable: true},
		{CategoryID: drinks.ID, Name: "Tra Da", Price: 5000, IsAvailable: true},
		{CategoryID: noodles.ID, Name: "Combo Pho + Tra Da", Price: 58000, IsCombo: true, IsAvailable: true},
	}

	var combo database.Food
	for _, params := range foods {
		food, err := queries.CreateFood(ctx, params)
		if err != nil {
			return fmt.Errorf("insert food '%s': %w", params.Name, err)
		}
		if food.IsCombo {
			combo = food
		}
	}

	for i, name := range []string{"Pho Bo", "Tra Da"} {
		_, err := queries.CreateComboItem(ctx, database.CreateComboItemParams{
			ComboID:   combo.ID,
			ItemName:  name,
			SortOrder: int32(i),
		})
		if err != nil {
			return fmt.Errorf("insert combo item '%s': %w", name, err)
		}
	}

	log.Println("Seeded demo catalog")
	return nil
}
