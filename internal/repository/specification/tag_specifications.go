package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ByTagName struct {
	Name string
}

func (s ByTagName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(name) = ?", strings.ToLower(s.Name))
}

type ByTagNames struct {
	Names []string
}

func (s ByTagNames) Apply(db *gorm.DB) *gorm.DB {
	lowered := make([]string, len(s.Names))
	for i, n := range s.Names {
		lowered[i] = strings.ToLower(n)
	}
	return db.Where("LOWER(name) IN ?", lowered)
}
