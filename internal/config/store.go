// Package config holds typed agent settings, persisted as string
// key/value rows in the same sqlite database the history store uses.
package config

import "gorm.io/gorm"

// AppSetting is a single key/value row.
type AppSetting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// TableName pins the table name independent of Go naming conventions.
func (AppSetting) TableName() string {
	return "app_settings"
}

// Store is the raw string key/value layer Manager's typed getters
// and setters build on.
type Store struct {
	db *gorm.DB
}

// NewStore wires db and migrates the AppSetting table.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&AppSetting{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// GetString returns the stored value for key, or ("", false) if absent.
func (s *Store) GetString(key string) (string, bool) {
	var row AppSetting
	err := s.db.First(&row, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return row.Value, true
}

// SetString upserts key=value.
func (s *Store) SetString(key, value string) error {
	row := AppSetting{Key: key, Value: value}
	return s.db.Save(&row).Error
}

// Delete removes key, if present.
func (s *Store) Delete(key string) error {
	return s.db.Delete(&AppSetting{}, "key = ?", key).Error
}
