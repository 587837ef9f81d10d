// Command main runs the database seeder for Warbler.
package main

import (
	"context"
	"flag"
	"os"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numMessages := flag.Int("messages", 300, "Number of messages to create")
	follows := flag.Int("follows", 10, "Follows per user")
	likes := flag.Int("likes", 20, "Likes per user")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	fixture := flag.String("fixture", "", "Load this YAML fixture instead of random data")
	randSeed := flag.Int64("seed", 0, "Random seed for a reproducible run (0 = time based)")
	flag.Parse()

	log := middleware.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	middleware.ConfigureLogger(os.Stdout, cfg.Env)
	log = middleware.Logger

	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	s, err := seed.NewSeeder(db, seed.Options{
		NumUsers:       *numUsers,
		NumMessages:    *numMessages,
		FollowsPerUser: *follows,
		LikesPerUser:   *likes,
		BcryptCost:     cfg.BcryptCost,
		RandSeed:       *randSeed,
	})
	if err != nil {
		log.Error("failed to prepare seeder", "error", err)
		os.Exit(1)
	}

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	if *fixture != "" {
		fx, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Error("failed to load fixture", "error", err)
			os.Exit(1)
		}
		sum, err := seed.ApplyFixture(db, fx, cfg.BcryptCost)
		if err != nil {
			log.Error("fixture seeding failed", "error", err)
			os.Exit(1)
		}
		log.Info("fixture loaded", "users", sum.Users, "messages", sum.Messages)
		return
	}

	if _, err := s.Run(context.Background()); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	log.Info("all test users have the same password", "password", seed.DefaultPassword)
}
