package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering a username that exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// Open opens the user database and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}

	return db, nil
}

// Directory is the persistent store mapping internal user ids to profiles.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a Directory backed by db.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Lookup finds a user by internal id.
func (d *Directory) Lookup(id string) (*User, error) {
	var u User
	result := d.db.First(&u, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &u, nil
}

// FindByUsername finds a user by username.
func (d *Directory) FindByUsername(username string) (*User, error) {
	var u User
	result := d.db.First(&u, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &u, nil
}

// Create inserts a new user, assigning an id when absent.
func (d *Directory) Create(u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	result := d.db.Create(u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return result.Error
	}
	return nil
}

// UpsertGithub creates or updates the account tied to a GitHub user id,
// refreshing the profile fields on every login.
func (d *Directory) UpsertGithub(githubID int64, username, email, avatarURL string) (*User, error) {
	var u User
	err := d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.First(&u, "github_id = ?", githubID)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			u = User{
				ID:        uuid.New().String(),
				Username:  username,
				Email:     email,
				GithubID:  &githubID,
				AvatarURL: avatarURL,
			}
			return tx.Create(&u).Error
		}

		u.Username = username
		u.Email = email
		u.AvatarURL = avatarURL
		return tx.Save(&u).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &u, nil
}
