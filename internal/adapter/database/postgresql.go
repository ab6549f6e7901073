package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/semmidev/offsite/internal/config"
)

type PostgreSQLDatabase struct {
	config *config.DatabaseConfig
}

func NewPostgreSQL(cfg *config.DatabaseConfig) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{config: cfg}
}

func (p *PostgreSQLDatabase) env() []string {
	env := append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", p.config.Password))
	if p.config.SSLMode != "" {
		env = append(env, fmt.Sprintf("PGSSLMODE=%s", p.config.SSLMode))
	}
	return env
}

// Backup writes a plain SQL dump; compression is applied afterwards so the
// artifact name matches the MySQL one.
func (p *PostgreSQLDatabase) Backup(ctx context.Context, outputPath string) error {
	cmd := exec.CommandContext(ctx, "pg_dump",
		fmt.Sprintf("--host=%s", p.config.Host),
		fmt.Sprintf("--port=%d", p.config.Port),
		fmt.Sprintf("--username=%s", p.config.Username),
		"--format=plain",
		"--no-owner",
		fmt.Sprintf("--file=%s", outputPath),
		p.config.Database,
	)
	cmd.Env = p.env()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (p *PostgreSQLDatabase) GetName() string {
	return p.config.Database
}

func (p *PostgreSQLDatabase) GetType() string {
	return "postgresql"
}

func (p *PostgreSQLDatabase) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "psql",
		fmt.Sprintf("--host=%s", p.config.Host),
		fmt.Sprintf("--port=%d", p.config.Port),
		fmt.Sprintf("--username=%s", p.config.Username),
		fmt.Sprintf("--dbname=%s", p.config.Database),
		"-c", "SELECT 1",
	)
	cmd.Env = p.env()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}

	return nil
}
