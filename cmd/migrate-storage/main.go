// migrate-storage copies leaderboards and player settings from the JSON
// disk storage into SQLite or PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-storage \
//	    -data-dir data \
//	    -driver postgres \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user parkour \
//	    -pg-password parkour \
//	    -pg-database parkour
package main

import (
	"flag"
	"log"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/database"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/storage"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "data", "Path to the disk storage data directory")
	driver := flag.String("driver", "sqlite", "Target database: sqlite or postgres")
	sqlitePath := flag.String("sqlite", "data/parkour.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "parkour", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "parkour", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "parkour", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("Disk to SQL Storage Migration Tool")
	log.Println("==================================")

	log.Printf("Opening disk storage: %s", *dataDir)
	disk, err := storage.NewDisk(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open disk storage: %v", err)
	}

	var db *database.Database
	if !*dryRun {
		cfg := database.DefaultConfig(*sqlitePath)
		cfg.Driver = *driver
		if *driver == "postgres" {
			cfg.Postgres = database.DefaultPostgresConfig()
			cfg.Postgres.Host = *pgHost
			cfg.Postgres.Port = *pgPort
			cfg.Postgres.User = *pgUser
			cfg.Postgres.Password = *pgPassword
			cfg.Postgres.Database = *pgDatabase
			cfg.Postgres.SSLMode = *pgSSLMode
			log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
		} else {
			log.Printf("Opening SQLite database: %s", *sqlitePath)
		}

		db, err = database.OpenWithConfig(cfg)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
	} else {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	steps := []struct {
		name    string
		migrate func(*storage.Disk, *database.Database) (int, error)
	}{
		{"leaderboards", migrateScores},
		{"players", migratePlayers},
	}

	var total int
	for _, s := range steps {
		log.Printf("Migrating %s", s.name)
		count, err := s.migrate(disk, db)
		if err != nil {
			log.Fatalf("Failed to migrate %s: %v", s.name, err)
		}
		log.Printf("  Migrated %d rows", count)
		total += count
	}

	log.Println("==================================")
	log.Printf("Migration complete! Total rows migrated: %d", total)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

// migrateScores copies every mode's leaderboard. db is nil on a dry run.
func migrateScores(disk *storage.Disk, db *database.Database) (int, error) {
	modes, err := disk.Modes()
	if err != nil {
		return 0, err
	}

	var count int
	for _, mode := range modes {
		scores, err := disk.ReadScores(mode)
		if err != nil {
			return count, err
		}
		log.Printf("  %s: %d scores", mode, len(scores))
		if db != nil {
			if err := db.WriteScores(mode, scores); err != nil {
				return count, err
			}
		}
		count += len(scores)
	}
	return count, nil
}

// migratePlayers copies every player settings file. db is nil on a dry run.
func migratePlayers(disk *storage.Disk, db *database.Database) (int, error) {
	ids, err := disk.Players()
	if err != nil {
		return 0, err
	}

	var count int
	for _, id := range ids {
		settings, err := disk.ReadPlayer(id)
		if err != nil {
			log.Printf("  skipping %s: %v", id, err)
			continue
		}
		if db != nil {
			if err := db.WritePlayer(settings); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}
