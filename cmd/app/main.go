package main

import (
	"database/sql"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/naruebet14/sweet-shop-backend/internal/cart"
	"github.com/naruebet14/sweet-shop-backend/internal/config"
	"github.com/naruebet14/sweet-shop-backend/internal/sweet"
	"github.com/naruebet14/sweet-shop-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	app := fiber.New()
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 15 * time.Minute,
	}))
	app.Use(requestLogger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "sweet shop api is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	var (
		userRepo  user.Repository
		sweetRepo sweet.Repository
		cartRepo  cart.Repository
	)
	if cfg.DatabaseURL != "" {
		db := mustOpenDB(cfg.DatabaseURL)
		defer db.Close()
		ensureSchema(db)
		userRepo = user.NewPostgresRepository(db)
		sweetRepo = sweet.NewPostgresRepository(db)
		cartRepo = cart.NewPostgresRepository(db)
		log.Info().Msg("using postgres storage")
	} else {
		memSweets := sweet.NewInMemoryRepository(nil)
		memCarts := cart.NewInMemoryRepository()
		// catalog deletes drop referencing cart lines, same as the FK cascade
		memSweets.OnDelete(memCarts.DropLines)
		userRepo = user.NewInMemoryRepository(nil)
		sweetRepo = memSweets
		cartRepo = memCarts
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}

	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, []byte(cfg.JWTSecret))

	sweetService := sweet.NewService(sweetRepo)
	sweetHandler := sweet.NewHandler(sweetService)

	cartService := cart.NewService(cartRepo, sweetService)
	cartHandler := cart.NewHandler(cartService)

	userHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	userHandler.RegisterProtectedRoutes(app)
	sweetHandler.RegisterProtectedRoutes(app, user.RequireAdmin)
	cartHandler.RegisterProtectedRoutes(app)

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("request")
	return err
}

func mustOpenDB(url string) *sql.DB {
	db, err := sql.Open("pgx", url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	return db
}

func ensureSchema(db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sweets (
			sweet_id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			price NUMERIC NOT NULL CHECK (price >= 0),
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			description TEXT,
			image_url TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			cart_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL UNIQUE REFERENCES users(user_id) ON DELETE CASCADE,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			item_id SERIAL PRIMARY KEY,
			cart_id INT NOT NULL REFERENCES carts(cart_id) ON DELETE CASCADE,
			sweet_id TEXT NOT NULL REFERENCES sweets(sweet_id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL,
			image_url TEXT,
			quantity INT NOT NULL CHECK (quantity >= 1 AND quantity <= 5),
			UNIQUE (cart_id, sweet_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatal().Err(err).Msg("schema bootstrap failed")
		}
	}
}
