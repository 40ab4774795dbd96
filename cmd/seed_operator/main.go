// Command seed_operator bootstraps the first back-office operator.
package main

import (
	"context"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"kobopay/internal/config"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
)

func main() {
	config.LoadEnv()

	email := os.Getenv("OPERATOR_EMAIL")
	password := os.Getenv("OPERATOR_PASSWORD")
	role := config.GetEnv("OPERATOR_ROLE", models.RoleAdmin)

	if email == "" || password == "" {
		log.Fatal("OPERATOR_EMAIL and OPERATOR_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("failed to initialize databases: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}()

	repo := repositories.NewOperatorRepository(repositories.DB)
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		log.Println("operator already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash password:", err)
	}

	op := &models.Operator{
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := repo.Create(ctx, op); err != nil {
		log.Fatal("failed to create operator:", err)
	}
	log.Printf("operator %s created with role %s", email, role)
}
