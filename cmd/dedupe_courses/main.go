package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/komodohub/komodo-hub-backend/internal/data/db"
	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

func main() {
	var dryRun bool
	var concurrency int
	flag.BoolVar(&dryRun, "dry-run", false, "report duplicate groups without deleting")
	flag.IntVar(&concurrency, "concurrency", 4, "groups deleted in parallel")
	flag.Parse()

	if err := run(dryRun, concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "dedupe_courses: %v\n", err)
		os.Exit(1)
	}
}

func run(dryRun bool, concurrency int) error {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log, db.PoolConfigFromEnv())
	if err != nil {
		return err
	}
	defer pg.Close()

	gdb := pg.DB()
	deduper := services.NewCourseDeduper(gdb, log, repos.NewCourseRepo(gdb, log), repos.NewUserProgressRepo(gdb, log))
	deduper.Concurrency = concurrency

	plan, res, err := deduper.Run(context.Background(), dryRun)
	if err != nil {
		return err
	}
	for _, g := range plan {
		fmt.Printf("%q: keep %s (%d modules), remove %d\n", g.Title, g.Keep.ID, len(g.Keep.Modules), len(g.Discard))
	}
	if dryRun {
		fmt.Printf("dry run: %d duplicate groups, nothing deleted\n", res.Groups)
		return nil
	}
	fmt.Printf("removed %d courses and %d progress rows across %d groups\n", res.CoursesDeleted, res.ProgressDeleted, res.Groups)
	return nil
}
