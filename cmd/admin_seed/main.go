// Package main seeds the initial admin user from environment
// variables. It is idempotent: an existing admin is left untouched.
package main

import (
	"log"
	"os"

	"taqsit/internal/config"
	"taqsit/internal/models"
	"taqsit/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminPhone := os.Getenv("ADMIN_PHONE")
	if adminEmail == "" || adminPassword == "" || adminPhone == "" {
		log.Fatal("ADMIN_EMAIL, ADMIN_PASSWORD, and ADMIN_PHONE must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("Failed to get SQL DB instance: %v", err)
			} else if err := sqlDB.Close(); err != nil {
				log.Printf("Failed to close database connection: %v", err)
			}
		}
	}()

	userRepo := repositories.NewUserRepository(repositories.DB)
	if _, err := userRepo.GetByEmail(adminEmail); err == nil {
		log.Println("Admin user already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	adminUser := &models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		FullName: "Platform Admin",
		Phone:    adminPhone,
		Role:     models.RoleAdmin,
	}
	if err := userRepo.Create(adminUser); err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	log.Printf("Admin user created: id=%d email=%s", adminUser.ID, adminUser.Email)
}
