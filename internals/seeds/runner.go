package seeds

import (
	"log"
	"path/filepath"

	"gorm.io/gorm"

	"campusorbit_backend/internals/seeds/users"
)

// RunAllSeeds loads every seed file found under dir.
func RunAllSeeds(db *gorm.DB, dir string) error {
	created, skipped, err := users.SeedPlatformAdminsFromJSON(db, filepath.Join(dir, "platform_admins.json"))
	if err != nil {
		return err
	}
	log.Printf("[SEED] platform admins: %d created, %d skipped", created, skipped)
	return nil
}
