package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// GetAPIKey returns the OpenRouter API key from the environment.
func GetAPIKey() (string, error) {
	key := os.Getenv("OPENROUTER_API_KEY")
	if key == "" {
		return "", fmt.Errorf("OPENROUTER_API_KEY not set (in .env or environment)")
	}
	return key, nil
}

func GetDatabaseURL(urlEnv string) (string, error) {
	if urlEnv == "" {
		urlEnv = "DATABASE_URL"
	}
	url := os.Getenv(urlEnv)
	if url == "" {
		return "", fmt.Errorf("%s not set (in .env or environment)", urlEnv)
	}
	return url, nil
}
