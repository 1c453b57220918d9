package config

import (
	"fmt"
	"os"

	"github.com/tobipay/bundlepay/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	UserAPIURL string
	ItemAPIURL string

	BankAPIURL   string
	CardAPIURL   string
	WalletAPIURL string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		UserAPIURL: os.Getenv("USER_API_URL"),
		ItemAPIURL: os.Getenv("ITEM_API_URL"),

		BankAPIURL:   os.Getenv("BANK_API_URL"),
		CardAPIURL:   os.Getenv("CARD_API_URL"),
		WalletAPIURL: os.Getenv("WALLET_API_URL"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.PGCode{},
		&models.PG{},
		&models.PaymentLimitCond{},
		&models.Bundle{},
		&models.Package{},
		&models.Payment{},
	)
	if err != nil {
		return nil, err
	}

	seedPGCodes(db)

	return db, nil
}

func seedPGCodes(db *gorm.DB) {
	codes := []models.PGCode{
		{Name: "Bank Transfer", Code: "BANK"},
		{Name: "Card", Code: "CARD"},
		{Name: "E-Wallet", Code: "WALLET"},
		{Name: "Points", Code: "POINT"},
	}

	for _, code := range codes {
		var existing models.PGCode
		result := db.Where("code = ?", code.Code).First(&existing)
		if result.Error != nil {
			db.Create(&code)
		}
	}
}
