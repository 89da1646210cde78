// Command seed migrates the schema and loads bootstrap data, such as the
// first platform admin, from JSON files.
package main

import (
	"flag"
	"log"

	"campusorbit_backend/internals/configs"
	database "campusorbit_backend/internals/databases"
	"campusorbit_backend/internals/seeds"
)

func main() {
	dir := flag.String("dir", "seed_data", "directory holding the seed JSON files")
	migrate := flag.Bool("migrate", true, "run AutoMigrate first")
	flag.Parse()

	configs.LoadEnv()
	db := configs.InitCommandDB()
	defer database.Close(db)

	if *migrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Printf("[ERROR] migrate: %v", err)
			return
		}
		log.Println("[INFO] schema migrated")
	}
	if err := seeds.RunAllSeeds(db, *dir); err != nil {
		log.Printf("[ERROR] seed: %v", err)
	}
}
