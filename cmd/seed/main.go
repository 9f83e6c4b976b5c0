package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/linkmarket/backend/internal/infrastructure/logger"
	"github.com/linkmarket/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		fixturesPath string
		dump         bool
		force        bool
		logLevel     string
		opts         GenerateOptions
	)
	flag.StringVar(&fixturesPath, "fixtures", "", "Load profiles and outlets from a YAML file instead of generating them")
	flag.BoolVar(&dump, "dump", false, "Print the data set as YAML and exit without touching the database")
	flag.BoolVar(&force, "force", false, "Allow seeding when LM_APP_ENV is production")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.IntVar(&opts.Buyers, "buyers", 5, "Generated buyer accounts")
	flag.IntVar(&opts.Publishers, "publishers", 4, "Generated publisher accounts")
	flag.IntVar(&opts.OutletsPerPublisher, "outlets", 3, "Generated outlets per publisher")
	flag.StringVar(&opts.Password, "password", "Password123", "Password for generated accounts")
	flag.Uint64Var(&opts.Seed, "seed", 0, "Random seed for generated data (0 for random)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	var fixtures *Fixtures
	if fixturesPath != "" {
		fixtures, err = LoadFixtures(fixturesPath)
		if err != nil {
			log.Fatal("Failed to load fixtures", zap.Error(err))
		}
	} else {
		fixtures = GenerateFixtures(opts)
	}

	if dump {
		out, err := yaml.Marshal(fixtures)
		if err != nil {
			log.Fatal("Failed to encode fixtures", zap.Error(err))
		}
		fmt.Print(string(out))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.App.IsProduction() && !force {
		log.Fatal("Refusing to seed a production database; pass -force to override")
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel("warn")))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	seeder := NewSeeder(
		persistence.NewGormProfileRepository(db.DB),
		persistence.NewGormMediaOutletRepository(db.DB),
		log,
	)
	res, err := seeder.Seed(ctx, fixtures)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete",
		zap.Int("profiles_created", res.ProfilesCreated),
		zap.Int("profiles_skipped", res.ProfilesSkipped),
		zap.Int("outlets_created", res.OutletsCreated),
		zap.Int("outlets_skipped", res.OutletsSkipped),
	)
}
