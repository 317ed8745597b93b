package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/neotogether/neotogether/internal/config"
	"github.com/neotogether/neotogether/internal/database"
)

type interestSeed struct {
	name     string
	category string
}

var interestCatalog = []interestSeed{
	// Outdoors & Sports
	{"Hiking", "Outdoors"},
	{"Running", "Outdoors"},
	{"Cycling", "Outdoors"},
	{"Swimming", "Outdoors"},
	{"Camping", "Outdoors"},
	{"Rock Climbing", "Outdoors"},
	{"Soccer", "Sports"},
	{"Basketball", "Sports"},
	{"Tennis", "Sports"},
	{"Yoga", "Fitness"},
	{"Gym", "Fitness"},
	{"Martial Arts", "Fitness"},

	// Creative
	{"Photography", "Creative"},
	{"Painting", "Creative"},
	{"Drawing", "Creative"},
	{"Writing", "Creative"},
	{"Music", "Creative"},
	{"Dancing", "Creative"},
	{"Crafts", "Creative"},
	{"Pottery", "Creative"},

	// Social
	{"Board Games", "Social"},
	{"Video Games", "Social"},
	{"Trivia", "Social"},
	{"Book Club", "Social"},
	{"Language Exchange", "Social"},
	{"Volunteering", "Social"},

	// Food & Drink
	{"Cooking", "Food"},
	{"Baking", "Food"},
	{"Wine Tasting", "Food"},
	{"Coffee", "Food"},
	{"Foodie Adventures", "Food"},

	// Tech & Learning
	{"Programming", "Tech"},
	{"AI & ML", "Tech"},
	{"Startups", "Tech"},
	{"Science", "Learning"},
	{"History", "Learning"},
	{"Philosophy", "Learning"},

	// Entertainment
	{"Movies", "Entertainment"},
	{"Theater", "Entertainment"},
	{"Concerts", "Entertainment"},
	{"Comedy", "Entertainment"},
	{"Anime", "Entertainment"},

	// Other
	{"Pets", "Lifestyle"},
	{"Travel", "Lifestyle"},
	{"Meditation", "Wellness"},
	{"Gardening", "Lifestyle"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := config.Load()
	db, err := database.NewConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Schema applied")

	seeded := 0
	for _, interest := range interestCatalog {
		result, err := db.ExecContext(ctx, `
			INSERT INTO interests (name, category) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, interest.name, interest.category)
		if err != nil {
			log.Fatalf("Failed to seed interest %q: %v", interest.name, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			seeded++
		}
	}
	log.Printf("Seeded %d interests (%d already present)", seeded, len(interestCatalog)-seeded)
}
