package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/campusconnect/api/config"
	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/auth"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	logger, err := utils.NewLogger(env.GO_ENV)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := database.Open(env, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seeder := database.NewSeeder(store.DB(), auth.NewHasher(auth.DefaultCost), logger)
	admin := database.AdminAccount{Email: env.ADMIN_EMAIL, Password: env.ADMIN_PASSWORD}
	if err := seeder.SeedAll(context.Background(), admin); err != nil {
		logger.Error("seeding failed", "error", err)
		color.Red("Seeding failed: %v", err)
		return
	}

	counts, err := seeder.Counts(context.Background())
	if err != nil {
		logger.Error("failed to count seeded rows", "error", err)
		return
	}

	color.Green("\nSeeding completed")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows"})
	for _, c := range counts {
		table.Append([]string{c.Table, strconv.FormatInt(c.Rows, 10)})
	}
	table.Render()
}
