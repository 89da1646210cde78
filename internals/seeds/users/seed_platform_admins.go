package users

import (
	"errors"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	userModel "campusorbit_backend/internals/features/users/users/model"
)

type PlatformAdminSeed struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SeedPlatformAdminsFromJSON inserts the platform admins listed in filePath.
// Existing emails are skipped, so the seed can run on every deploy.
func SeedPlatformAdminsFromJSON(db *gorm.DB, filePath string) (created, skipped int, err error) {
	log.Println("[SEED] reading", filePath)
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, err
	}
	var inputs []PlatformAdminSeed
	if err := sonic.Unmarshal(raw, &inputs); err != nil {
		return 0, 0, err
	}

	for _, in := range inputs {
		email := userModel.NormalizeEmail(in.Email)
		if email == "" || in.Password == "" {
			log.Printf("[SEED] entry without email or password skipped")
			skipped++
			continue
		}

		var existing userModel.User
		err := db.Where("user_email = ?", email).Take(&existing).Error
		if err == nil {
			log.Printf("[SEED] %s already exists, skipped", email)
			skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, err
		}

		u := userModel.User{
			UserEmail:     email,
			UserFirstName: in.FirstName,
			UserLastName:  in.LastName,
			UserRole:      constants.RolePlatformAdmin,
			UserIsActive:  true,
		}
		if err := u.SetPassword(in.Password); err != nil {
			return created, skipped, err
		}
		if err := db.Create(&u).Error; err != nil {
			return created, skipped, err
		}
		log.Printf("[SEED] platform admin %s created", email)
		created++
	}
	return created, skipped, nil
}
