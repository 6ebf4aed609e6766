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
	var file string
	var force bool
	flag.StringVar(&file, "file", "configs/courses.yaml", "course catalog to load")
	flag.BoolVar(&force, "force", false, "insert even when courses already exist")
	flag.Parse()

	if err := run(file, force); err != nil {
		fmt.Fprintf(os.Stderr, "seed_courses: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, force bool) error {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	cat, err := services.LoadCourseCatalog(file)
	if err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}

	pg, err := db.NewPostgresService(log, db.PoolConfigFromEnv())
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	gdb := pg.DB()
	svc := services.NewCourseService(gdb, log, repos.NewCourseRepo(gdb, log), repos.NewUserProgressRepo(gdb, log))
	n, err := svc.Seed(context.Background(), cat, force)
	if err != nil {
		return err
	}
	fmt.Printf("inserted %d courses from %s\n", n, file)
	return nil
}
