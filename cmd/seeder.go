package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"expense_history", "expense_attachments", "expenses", "audit_logs"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing expense data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		seedUsers(db, string(hash))
		seedCategories(db)
		seedMasterData(db)

		fmt.Println("Seed data loaded")
	},
}

func seedUsers(db *gorm.DB, passwordHash string) {
	users := []struct {
		Email string
		Name  string
		Role  string
	}{
		{"admin@mail.com", "Ayu Admin", "admin"},
		{"requestor@mail.com", "Rina Requestor", "requestor"},
		{"verifier@mail.com", "Vino Verifier", "verifier"},
		{"approver@mail.com", "Agus Approver", "approver"},
	}

	for _, u := range users {
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec(
			"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
			u.Email, u.Name, passwordHash, u.Role,
		).Error; err != nil {
			log.Fatalf("failed to insert user %s: %v", u.Email, err)
		}
		fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
	}
}

func seedCategories(db *gorm.DB) {
	categories := []struct {
		Name               string
		Desc               string
		AttachmentRequired bool
		AutoApproveAmount  int64
	}{
		{"perjalanan", "perjalanan dinas dan transportasi", true, 500000},
		{"makan", "makan dan hiburan", false, 1000000},
		{"kantor", "perlengkapan, peralatan kantor", true, 250000},
		{"lain_lain", "biaya lain-lain", true, 0},
	}

	for _, c := range categories {
		var categoryID int64
		if err := db.Raw("SELECT id FROM expense_categories WHERE name = ?", c.Name).Row().Scan(&categoryID); err == nil {
			continue
		}
		if err := db.Exec(
			"INSERT INTO expense_categories (name, description, attachment_required, auto_approve_amount, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
			c.Name, c.Desc, c.AttachmentRequired, c.AutoApproveAmount,
		).Error; err != nil {
			log.Fatalf("failed to insert expense category %s: %v", c.Name, err)
		}
		fmt.Printf("Seeded expense category: %s\n", c.Name)
	}

	subcategories := []struct {
		Category           string
		Name               string
		AttachmentRequired bool
	}{
		{"perjalanan", "tiket", true},
		{"perjalanan", "taksi", false},
		{"makan", "jamuan klien", true},
	}

	for _, sc := range subcategories {
		var categoryID int64
		if err := db.Raw("SELECT id FROM expense_categories WHERE name = ?", sc.Category).Row().Scan(&categoryID); err != nil {
			log.Fatalf("category not found for subcategory %s: %v", sc.Name, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM expense_subcategories WHERE category_id = ? AND name = ?", categoryID, sc.Name).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec(
			"INSERT INTO expense_subcategories (category_id, name, attachment_required, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
			categoryID, sc.Name, sc.AttachmentRequired,
		).Error; err != nil {
			log.Fatalf("failed to insert subcategory %s: %v", sc.Name, err)
		}
		fmt.Printf("Seeded subcategory: %s/%s\n", sc.Category, sc.Name)
	}
}

func seedMasterData(db *gorm.DB) {
	projects := []struct {
		Name string
		Code string
	}{
		{"Head Office Operations", "HO-OPS"},
		{"Plant Expansion", "PLANT-EXP"},
	}

	for _, p := range projects {
		var exists int
		if err := db.Raw("SELECT 1 FROM projects WHERE code = ?", p.Code).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec(
			"INSERT INTO projects (name, code, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())",
			p.Name, p.Code,
		).Error; err != nil {
			log.Fatalf("failed to insert project %s: %v", p.Code, err)
		}
		fmt.Printf("Seeded project: %s\n", p.Code)
	}

	sites := []struct {
		Name string
		Code string
	}{
		{"Jakarta HQ", "JKT-01"},
		{"Surabaya Plant", "SBY-01"},
	}

	for _, s := range sites {
		var exists int
		if err := db.Raw("SELECT 1 FROM sites WHERE code = ?", s.Code).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec(
			"INSERT INTO sites (name, code, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())",
			s.Name, s.Code,
		).Error; err != nil {
			log.Fatalf("failed to insert site %s: %v", s.Code, err)
		}
		fmt.Printf("Seeded site: %s\n", s.Code)
	}
}
