package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-library-management/config"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

type sampleBook struct {
	title  string
	year   int
	copies int
}

var sampleCatalog = []struct {
	first, last, nationality string
	born                     int
	books                    []sampleBook
}{
	{"Jane", "Austen", "British", 1775, []sampleBook{
		{"Pride and Prejudice", 1813, 5},
		{"Emma", 1815, 3},
	}},
	{"Gabriel", "Garcia Marquez", "Colombian", 1927, []sampleBook{
		{"One Hundred Years of Solitude", 1967, 4},
	}},
	{"Ursula", "Le Guin", "American", 1929, []sampleBook{
		{"The Left Hand of Darkness", 1969, 2},
		{"The Dispossessed", 1974, 2},
	}},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var adminID int64
	err = db.QueryRow(`
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ((lower(email))) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		RETURNING id
	`, "Library", "Admin", cfg.SeedAdminEmail, hash, string(entity.RoleAdmin)).Scan(&adminID)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%d email=%s\n", adminID, cfg.SeedAdminEmail)

	var authors int
	if err := db.QueryRow(`SELECT count(*) FROM authors`).Scan(&authors); err != nil {
		log.Fatalf("failed to count authors: %v", err)
	}
	if authors > 0 {
		fmt.Println("catalog already present; skipping sample catalog")
		return
	}

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("failed to begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	books := 0
	for _, a := range sampleCatalog {
		var authorID int64
		if err := tx.QueryRow(`
			INSERT INTO authors (first_name, last_name, birth_year, nationality)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, a.first, a.last, a.born, a.nationality).Scan(&authorID); err != nil {
			log.Fatalf("failed to seed author %s %s: %v", a.first, a.last, err)
		}
		for _, b := range a.books {
			if _, err := tx.Exec(`
				INSERT INTO books (title, publication_year, available_copies, total_copies, author_id)
				VALUES ($1, $2, $3, $3, $4)
			`, b.title, b.year, b.copies, authorID); err != nil {
				log.Fatalf("failed to seed book %q: %v", b.title, err)
			}
			books++
		}
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("failed to commit catalog: %v", err)
	}
	fmt.Printf("seeded catalog: authors=%d books=%d\n", len(sampleCatalog), books)
}
