// Command manage runs administrative tasks against the clinic database:
// schema migrations, superuser creation and static file collection.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/clinic-api/docs"
	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
)

const usage = `usage: manage [-config path] <command> [args]

commands:
  migrate up|down|version   apply, roll back or report schema migrations
  createsuperuser           create the configured admin account if missing
  collectstatic             write the OpenAPI document into the static root
  bootstrap                 migrate up, createsuperuser and collectstatic
`

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	app.SetupLogging(cfg.Log)

	if err := run(cfg, flag.Args()); err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
	}
}

func run(cfg *config.Config, args []string) error {
	switch args[0] {
	case "migrate":
		direction := "up"
		if len(args) > 1 {
			direction = args[1]
		}
		return migrate(cfg, direction)
	case "createsuperuser":
		return createSuperuser(cfg)
	case "collectstatic":
		return collectStatic(cfg.StaticRoot)
	case "bootstrap":
		if err := migrate(cfg, "up"); err != nil {
			return err
		}
		if cfg.Superuser.Username == "" {
			log.Warn().Msg("SUPERUSER_USERNAME not set, skipping superuser creation")
		} else if err := createSuperuser(cfg); err != nil {
			return err
		}
		return collectStatic(cfg.StaticRoot)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func migrate(cfg *config.Config, direction string) error {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
	return nil
}

func createSuperuser(cfg *config.Config) error {
	su := cfg.Superuser
	if su.Username == "" || su.Password == "" {
		return fmt.Errorf("superuser username and password must be configured")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := app.New(cfg, db)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := a.Users.EnsureSuperuser(ctx, su.Username, su.Email, su.Password)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("username", su.Username).Msg("superuser created")
	} else {
		log.Info().Str("username", su.Username).Msg("superuser already exists")
	}
	return nil
}

// collectStatic writes the OpenAPI document as swagger.json and
// swagger.yaml under root/swagger.
func collectStatic(root string) error {
	if root == "" {
		return fmt.Errorf("static root is not configured")
	}
	dir := filepath.Join(root, "swagger")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	doc := docs.SwaggerInfo.ReadDoc()
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "swagger.json"), pretty, 0o644); err != nil {
		return fmt.Errorf("failed to write swagger.json: %w", err)
	}

	out, err := yaml.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("failed to encode swagger.yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "swagger.yaml"), out, 0o644); err != nil {
		return fmt.Errorf("failed to write swagger.yaml: %w", err)
	}

	log.Info().Str("dir", dir).Msg("static files collected")
	return nil
}
