package database

import (
	"fmt"
	"log"
	"os"

	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/auth"
	"gorm.io/gorm"
)

// RunSeeds creates the initial admin user from ADMIN_EMAIL / ADMIN_PASSWORD.
// Registration only ever produces students, so this is the one way an admin
// account comes into existence.
func RunSeeds(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	if name == "" {
		name = "Administrator"
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Admin user %s already exists, skipping", email)
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleAdmin,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Printf("Created admin user %s (id=%d)", admin.Email, admin.ID)
	return nil
}
