// Command migrate applies the embedded schema migrations and seeds the plan
// catalog, then exits. Useful for CI and for operators who run migrations
// separately from the server.
package main

import (
	"log"

	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/migration"
	"github.com/lubetrack/lubetrack/internal/seed"
	"github.com/lubetrack/lubetrack/pkg/db"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()

	dialector, err := db.Dialect(cfg)
	if err != nil {
		log.Fatalf("resolve database dialect: %v", err)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("unwrap database handle: %v", err)
	}
	defer sqlDB.Close()

	if err := migration.RunMigrations(sqlDB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	if err := seed.EnsureDefaultPlans(conn); err != nil {
		log.Fatalf("seed plan catalog: %v", err)
	}

	log.Println("migrations applied")
}
