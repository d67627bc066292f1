package config

import "os"

type Config struct {
	Addr         string
	DatabaseURL  string
	JWTSecret    string
	AllowOrigins string
}

func Load() Config {
	addr := os.Getenv("SWEET_SHOP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	origins := os.Getenv("ALLOW_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000"
	}

	return Config{
		Addr:         addr,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AllowOrigins: origins,
	}
}
