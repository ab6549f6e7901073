package database

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/semmidev/offsite/internal/config"
)

// MySQLDatabase dumps MySQL and MariaDB site databases with mysqldump.
type MySQLDatabase struct {
	config *config.DatabaseConfig
}

func NewMySQL(cfg *config.DatabaseConfig) *MySQLDatabase {
	return &MySQLDatabase{config: cfg}
}

func (m *MySQLDatabase) connArgs() []string {
	return []string{
		fmt.Sprintf("--host=%s", m.config.Host),
		fmt.Sprintf("--port=%d", m.config.Port),
		fmt.Sprintf("--user=%s", m.config.Username),
		fmt.Sprintf("--password=%s", m.config.Password),
	}
}

func (m *MySQLDatabase) Backup(ctx context.Context, outputPath string) error {
	args := append(m.connArgs(),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		fmt.Sprintf("--result-file=%s", outputPath),
		m.config.Database,
	)

	cmd := exec.CommandContext(ctx, "mysqldump", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mysqldump failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (m *MySQLDatabase) GetName() string {
	return m.config.Database
}

func (m *MySQLDatabase) GetType() string {
	return "mysql"
}

func (m *MySQLDatabase) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "mysql", append(m.connArgs(), "-e", "SELECT 1")...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}

	return nil
}
