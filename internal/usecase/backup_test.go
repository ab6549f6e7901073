package usecase

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/semmidev/offsite/internal/domain"
	"github.com/semmidev/offsite/internal/infrastructure/logger"
	"github.com/spf13/afero"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDestinationFolder(t *testing.T) {
	Convey("DestinationFolder takes the first 15 characters of the base name", t, func() {
		So(DestinationFolder("/b/20240305_143000-erp_example_com-database.sql.gz"), ShouldEqual, "20240305_143000")
		So(DestinationFolder("short.sql"), ShouldEqual, "short.sql")
	})

	Convey("DestinationFolder counts characters, not bytes", t, func() {
		folder := DestinationFolder("/b/" + strings.Repeat("é", 20) + ".sql.gz")
		So(folder, ShouldEqual, strings.Repeat("é", 15))
		So(utf8.ValidString(folder), ShouldBeTrue)
	})
}

func TestUploader(t *testing.T) {
	Convey("Given an Uploader", t, func() {
		ctx := context.Background()
		fs := afero.NewMemMapFs()
		out := &bytes.Buffer{}
		uploader := NewUploader(fs, "erp.example.com", logger.Nop(), out)
		container := newFakeContainer()
		So(afero.WriteFile(fs, "/b/db.sql.gz", []byte("dump"), 0644), ShouldBeNil)

		Convey("it uploads to <site>/backup/<folder>/<basename>", func() {
			res := uploader.Upload(ctx, "/b/db.sql.gz", "20240305_143000", container)

			So(res.Err, ShouldBeNil)
			So(res.Key, ShouldEqual, "erp.example.com/backup/20240305_143000/db.sql.gz")
			So(container.objects[res.Key], ShouldEqual, "dump")
			So(out.String(), ShouldContainSubstring, "Uploading file: /b/db.sql.gz")
		})

		Convey("a container failure is absorbed into the result", func() {
			container.fail["erp.example.com/backup/f/db.sql.gz"] = errors.New("quota exceeded")
			res := uploader.Upload(ctx, "/b/db.sql.gz", "f", container)

			So(res.Err, ShouldNotBeNil)
			So(out.String(), ShouldContainSubstring, "Error uploading: quota exceeded")
		})

		Convey("a missing local file is absorbed into the result", func() {
			res := uploader.Upload(ctx, "/b/missing.tar", "f", container)

			So(res.Err, ShouldNotBeNil)
			So(res.Err.Error(), ShouldContainSubstring, "failed to open file")
			So(container.order, ShouldBeEmpty)
		})
	})
}

func TestBackup(t *testing.T) {
	Convey("Given a Backup orchestrator", t, func() {
		ctx := context.Background()
		fs := afero.NewMemMapFs()
		full := domain.ArtifactSet{
			Database:     "/b/20240305_143000-erp_example_com-database.sql.gz",
			SiteConfig:   "/b/20240305_143000-erp_example_com-site_config_backup.json",
			PublicFiles:  "/b/20240305_143001-erp_example_com-files.tar",
			PrivateFiles: "/b/20240305_143001-erp_example_com-private-files.tar",
		}
		for _, p := range []string{full.Database, full.SiteConfig, full.PublicFiles, full.PrivateFiles} {
			So(afero.WriteFile(fs, p, []byte(path.Base(p)), 0644), ShouldBeNil)
		}

		settings := &staticSettings{settings: domain.Settings{
			Enabled:          true,
			Frequency:        domain.Daily,
			EndpointURL:      "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=a2V5;EndpointSuffix=core.windows.net",
			DefaultContainer: "site-backups",
			BackupFiles:      true,
		}}
		gen := &fakeGenerator{newSet: full, latest: []domain.ArtifactSet{full}}
		container := newFakeContainer()
		opener := &fakeOpener{container: container}
		uploader := NewUploader(fs, "erp.example.com", logger.Nop(), &bytes.Buffer{})
		backup := NewBackup(settings, opener, NewLocator(gen, logger.Nop()), uploader, logger.Nop())

		prefix := "erp.example.com/backup/20240305_143000/"

		Convey("it opens the configured container and uploads in fixed order", func() {
			report, err := backup.Run(ctx, false)

			So(err, ShouldBeNil)
			So(opener.endpoint, ShouldEqual, settings.settings.EndpointURL)
			So(opener.name, ShouldEqual, "site-backups")
			So(container.order, ShouldResemble, []string{
				prefix + "20240305_143000-erp_example_com-database.sql.gz",
				prefix + "20240305_143000-erp_example_com-site_config_backup.json",
				prefix + "20240305_143001-erp_example_com-private-files.tar",
				prefix + "20240305_143001-erp_example_com-files.tar",
			})
			So(report.Folder, ShouldEqual, "20240305_143000")
			So(report.Attempted, ShouldEqual, 4)
			So(report.Complete(), ShouldBeTrue)
			So(container.closed, ShouldBeTrue)
		})

		Convey("every upload of a run shares the destination folder", func() {
			_, err := backup.Run(ctx, true)
			So(err, ShouldBeNil)
			for _, key := range container.order {
				So(path.Dir(key), ShouldEqual, "erp.example.com/backup/20240305_143000")
			}
			So(gen.newCalls, ShouldHaveLength, 1)
		})

		Convey("with backup_files off no archive is uploaded", func() {
			settings.settings.BackupFiles = false
			report, err := backup.Run(ctx, false)

			So(err, ShouldBeNil)
			So(report.Attempted, ShouldEqual, 2)
			So(container.order, ShouldHaveLength, 2)
			So(gen.latestCalls, ShouldResemble, []bool{false})

			container.order = nil
			report, err = backup.Run(ctx, true)
			So(err, ShouldBeNil)
			So(report.Attempted, ShouldEqual, 2)
			So(container.order, ShouldHaveLength, 2)
		})

		Convey("a failed upload does not stop the others or fail the run", func() {
			container.fail[prefix+"20240305_143000-erp_example_com-site_config_backup.json"] = errors.New("503 server busy")
			report, err := backup.Run(ctx, false)

			So(err, ShouldBeNil)
			So(container.order, ShouldHaveLength, 4)
			So(container.objects, ShouldHaveLength, 3)
			So(report.Uploaded, ShouldEqual, 3)
			So(report.Attempted, ShouldEqual, 4)
			So(report.Complete(), ShouldBeFalse)
			So(report.Failed[0].Path, ShouldEqual, full.SiteConfig)
		})

		Convey("absent archives are skipped silently", func() {
			gen.latest = []domain.ArtifactSet{full.WithoutFiles()}
			report, err := backup.Run(ctx, false)

			So(err, ShouldBeNil)
			So(gen.generateCalls, ShouldEqual, 1)
			So(report.Attempted, ShouldEqual, 2)
			So(report.Complete(), ShouldBeTrue)
		})

		Convey("a missing site config counts as a failed upload", func() {
			gen.latest = []domain.ArtifactSet{{Database: full.Database}}
			settings.settings.BackupFiles = false
			report, err := backup.Run(ctx, false)

			So(err, ShouldBeNil)
			So(container.order, ShouldHaveLength, 1)
			So(report.Attempted, ShouldEqual, 2)
			So(report.Uploaded, ShouldEqual, 1)
			So(report.Complete(), ShouldBeFalse)
			So(report.Failed, ShouldHaveLength, 1)
			So(report.Failed[0].Err.Error(), ShouldContainSubstring, "site config")
		})

		Convey("a deadline that expires mid-run ends the run with the deadline error", func() {
			container.stall = prefix + "20240305_143000-erp_example_com-site_config_backup.json"
			deadline, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			report, err := backup.Run(deadline, false)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(report.Attempted, ShouldEqual, 2)
			So(report.Uploaded, ShouldEqual, 1)
			So(container.order, ShouldHaveLength, 2)
			So(domain.Classify(deadline, report, err).Kind, ShouldEqual, domain.OutcomeTimeout)
		})

		Convey("container open errors propagate before any lookup", func() {
			opener.err = errors.New("AuthenticationFailed")
			_, err := backup.Run(ctx, false)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, opener.err), ShouldBeTrue)
			So(gen.latestCalls, ShouldBeEmpty)
		})

		Convey("locator errors propagate", func() {
			gen.latestErr = errors.New("permission denied")
			_, err := backup.Run(ctx, false)

			So(errors.Is(err, gen.latestErr), ShouldBeTrue)
			So(container.closed, ShouldBeTrue)
		})

		Convey("no database dump at all is an error", func() {
			gen.latest = []domain.ArtifactSet{{}}
			settings.settings.BackupFiles = false
			_, err := backup.Run(ctx, false)

			So(errors.Is(err, domain.ErrNoDatabaseBackup), ShouldBeTrue)
		})

		Convey("an expired job context is returned as the run error", func() {
			expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
			defer cancel()

			report, err := backup.Run(expired, false)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(report.Attempted, ShouldEqual, 0)
		})
	})
}
