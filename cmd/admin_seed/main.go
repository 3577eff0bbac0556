// Seeds an initial admin user so the API is usable on a fresh database.
package main

import (
	"errors"
	"log"

	"nexus/internal/config"
	"nexus/internal/models"
	"nexus/internal/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("database initialization failed: %v", err)
	}

	email := config.GetEnv("ADMIN_EMAIL", "admin@nexus.local")
	password := config.GetEnv("ADMIN_PASSWORD", "")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	var existing models.User
	err := repositories.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("admin user %s already exists, nothing to do", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("lookup failed: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := models.User{
		Email:    email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := repositories.DB.Create(&admin).Error; err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	log.Printf("admin user %s created", email)
}
