package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/semmidev/offsite/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

const minimalConfig = `
site:
  name: erp.example.com
  config_path: /srv/sites/erp.example.com/site_config.json
database:
  host: localhost
backup:
  path: /srv/sites/erp.example.com/private/backups
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given a minimal config file", t, func() {
		cfg, err := Load(writeConfig(t, minimalConfig))

		Convey("It loads with defaults applied", func() {
			So(err, ShouldBeNil)
			So(cfg.App.Name, ShouldEqual, "offsite")
			So(cfg.Database.Type, ShouldEqual, "mysql")
			So(cfg.Database.Port, ShouldEqual, 3306)
			So(cfg.Backup.RetentionDays, ShouldEqual, 7)
			So(cfg.Backup.MaxReuseSize, ShouldEqual, int64(1<<30))
			So(cfg.Storage.Backend, ShouldEqual, "azure")
			So(cfg.Queue.Name, ShouldEqual, "long")
			So(cfg.Queue.Timeout, ShouldEqual, 1500*time.Second)
			So(cfg.Queue.MaxRetries, ShouldEqual, 2)
			So(cfg.Schedule.Daily, ShouldEqual, "0 0 0 * * *")
			So(cfg.Notify.Service, ShouldEqual, "Azure Storage")
		})

		Convey("Settings default to disabled and Daily", func() {
			settings, err := cfg.Settings.ToDomain()
			So(err, ShouldBeNil)
			So(settings.Enabled, ShouldBeFalse)
			So(settings.Frequency, ShouldEqual, domain.Daily)
		})
	})

	Convey("Given a config with explicit values", t, func() {
		cfg, err := Load(writeConfig(t, minimalConfig+`
settings:
  enabled: true
  frequency: Weekly
  endpoint_url: UseDevelopmentStorage=true
  default_container: backups
  backup_files: true
  notify_email: ops@example.com
queue:
  timeout: 30m
  max_retries: 3
`))

		So(err, ShouldBeNil)
		So(cfg.Queue.Timeout, ShouldEqual, 30*time.Minute)
		So(cfg.Queue.MaxRetries, ShouldEqual, 3)

		settings, err := cfg.Settings.ToDomain()
		So(err, ShouldBeNil)
		So(settings, ShouldResemble, domain.Settings{
			Enabled:          true,
			Frequency:        domain.Weekly,
			EndpointURL:      "UseDevelopmentStorage=true",
			DefaultContainer: "backups",
			BackupFiles:      true,
			NotifyEmail:      "ops@example.com",
		})
	})

	Convey("A missing file fails to load", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "failed to read config")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Site:     SiteConfig{Name: "erp", ConfigPath: "/srv/site_config.json"},
			Database: DatabaseConfig{Type: "mariadb", Host: "localhost"},
			Backup:   BackupConfig{Path: "/srv/backups"},
			Settings: SettingsConfig{Frequency: "Daily"},
			Storage:  StorageConfig{Backend: "azure"},
			Queue:    QueueConfig{Workers: 1, Timeout: time.Minute, MaxRetries: 2},
		}
	}

	Convey("Validate", t, func() {
		Convey("accepts a complete config", func() {
			cfg := valid()
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("rejects an unsupported database type", func() {
			cfg := valid()
			cfg.Database.Type = "mongodb"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("rejects an unknown frequency", func() {
			cfg := valid()
			cfg.Settings.Frequency = "Hourly"
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Hourly")
		})

		Convey("requires a destination when enabled", func() {
			cfg := valid()
			cfg.Settings.Enabled = true
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.Settings.EndpointURL = "UseDevelopmentStorage=true"
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.Settings.DefaultContainer = "backups"
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("does not require an endpoint for Google Drive", func() {
			cfg := valid()
			cfg.Storage.Backend = "gdrive"
			cfg.Settings.Enabled = true
			cfg.Settings.DefaultContainer = "folder-id"
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("rejects a queue without workers or timeout", func() {
			cfg := valid()
			cfg.Queue.Workers = 0
			So(cfg.Validate(), ShouldNotBeNil)

			cfg = valid()
			cfg.Queue.Timeout = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func TestSettingsStore(t *testing.T) {
	Convey("Given a settings store", t, func() {
		store := NewSettingsStore(domain.Settings{Frequency: domain.Daily})

		Convey("Set replaces the current settings", func() {
			store.Set(domain.Settings{Enabled: true, Frequency: domain.Monthly})

			current, err := store.Current()
			So(err, ShouldBeNil)
			So(current.Enabled, ShouldBeTrue)
			So(current.Frequency, ShouldEqual, domain.Monthly)
		})

		Convey("WatchSettings is a no-op without a loaded file", func() {
			cfg := &Config{}
			So(func() { cfg.WatchSettings(store, func(error) {}) }, ShouldNotPanic)
		})
	})
}
