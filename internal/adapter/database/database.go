package database

import (
	"fmt"

	"github.com/semmidev/offsite/internal/config"
	"github.com/semmidev/offsite/internal/domain"
)

func New(cfg *config.DatabaseConfig) (domain.Database, error) {
	switch cfg.Type {
	case "mysql", "mariadb":
		return NewMySQL(cfg), nil
	case "postgresql":
		return NewPostgreSQL(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
