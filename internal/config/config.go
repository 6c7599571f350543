package config

import (
	"os"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	PhotosBucket    string
	OutputBucket    string
}

type StripeConfig struct {
	SecretKey   string
	PriceSingle string
	PricePack   string
}

type FlyConfig struct {
	APIURL string
	Token  string
	App    string
	Image  string
}

type Config struct {
	BaseURL       string
	CallbackToken string
	R2            R2Config
	Stripe        StripeConfig
	Fly           FlyConfig
}

func LoadConfig() *Config {
	cfg := &Config{}

	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:3000")
	cfg.CallbackToken = os.Getenv("WORKER_CALLBACK_TOKEN")

	// R2 config
	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.PhotosBucket = getEnv("R2_PHOTOS_BUCKET", "photos")
	cfg.R2.OutputBucket = getEnv("R2_OUTPUT_BUCKET", "output")

	// Stripe config
	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.PriceSingle = os.Getenv("STRIPE_PRICE_SINGLE")
	cfg.Stripe.PricePack = os.Getenv("STRIPE_PRICE_PACK")

	// Fly.io render worker
	cfg.Fly.APIURL = getEnv("FLY_API_URL", "https://api.machines.dev")
	cfg.Fly.Token = os.Getenv("FLY_TOKEN")
	cfg.Fly.App = getEnv("FLY_APP", "movilagen")
	cfg.Fly.Image = getEnv("FLY_IMAGE", "registry.fly.io/movilagen:latest")

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
