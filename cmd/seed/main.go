package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clipquiz/internal/model"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database("clipquiz")
	packColl := db.Collection("packs")

	now := time.Now()
	packs := []interface{}{
		model.Pack{
			Name: "Synthwave Starter",
			Tags: []string{"electronic", "80s", "demo"},
			Tracks: []model.Track{
				{
					Artist:    "The Midnight",
					Title:     "Sunset",
					Aliases:   []string{"Sunset (feat. Nikki Flores)"},
					Locator:   "https://media.example.com/clips/midnight-sunset.ogg",
					OffsetSec: 45,
					LengthSec: 20,
				},
				{
					Artist:    "FM-84",
					Title:     "Running in the Night",
					Aliases:   []string{"Runninginthenight", "Running In The Night (feat. Ollie Wride)"},
					Locator:   "https://media.example.com/clips/fm84-running.ogg",
					OffsetSec: 60,
					LengthSec: 20,
				},
				{
					Artist:  "Gunship",
					Title:   "Tech Noir",
					Locator: "https://media.example.com/clips/gunship-technoir.ogg",
					// play from the top to the natural end, capped by config
					LengthSec: model.TrackLengthFull,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		model.Pack{
			Name: "Movie Themes",
			Tags: []string{"soundtrack", "demo"},
			Tracks: []model.Track{
				{
					Artist:    "John Williams",
					Title:     "The Imperial March",
					Aliases:   []string{"Imperial March", "Darth Vader's Theme"},
					Locator:   "https://media.example.com/clips/imperial-march.ogg",
					OffsetSec: 10,
					LengthSec: 15,
				},
				{
					Artist:    "Ennio Morricone",
					Title:     "The Ecstasy of Gold",
					Aliases:   []string{"Ecstasy of Gold"},
					Locator:   "https://media.example.com/clips/ecstasy-of-gold.ogg",
					OffsetSec: 90,
					LengthSec: 25,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	result, err := packColl.InsertMany(ctx, packs)
	if err != nil {
		log.Fatalf("Failed to seed packs: %v", err)
	}
	log.Printf("Seeded %d packs", len(result.InsertedIDs))
	for _, id := range result.InsertedIDs {
		log.Printf("  pack %v", id)
	}
}
