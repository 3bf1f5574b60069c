package database

import (
	"strings"

	"github.com/arnold/wellness-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL when the URL starts with postgres, otherwise
// to a SQLite file (or ":memory:").
func Open(url string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(url, "postgres") {
		dialector = postgres.Open(url)
	} else {
		dialector = sqlite.Open(url)
	}

	mode := logger.Warn
	if verbose {
		mode = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(mode),
		TranslateError: true,
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserProfile{},
		&models.TrainingCompletion{},
		&models.Group{},
		&models.GroupMember{},
		&models.UserActivity{},
		&models.MemberActivityEntry{},
		&models.MemberAchievement{},
		&models.GroupNotification{},
		&models.NotificationPreferences{},
		&models.GroupFeedActivity{},
		&models.GroupInvitation{},
		&models.ChatMessage{},
	)
}
