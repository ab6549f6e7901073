package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the Logger package", t, func() {
		Convey("When creating a logger with console output only", func() {
			logger, err := New(Options{Level: "info"})

			Convey("It should create a logger successfully", func() {
				So(err, ShouldBeNil)
				So(logger, ShouldNotBeNil)
				So(func() { logger.Info("Test log") }, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger with a log file", func() {
			tempDir, err := os.MkdirTemp("", "logger_test")
			So(err, ShouldBeNil)
			defer os.RemoveAll(tempDir)

			logFile := filepath.Join(tempDir, "nested", "offsite.log")
			logger, err := New(Options{Name: "offsite", Level: "debug", File: logFile})

			Convey("It should create the directory and write the file", func() {
				So(err, ShouldBeNil)
				logger.Debugf("Uploading file: %s", "db.sql.gz")
				logger.Close()

				content, err := os.ReadFile(logFile)
				So(err, ShouldBeNil)
				So(string(content), ShouldContainSubstring, "Uploading file: db.sql.gz")
				So(string(content), ShouldContainSubstring, `"logger":"offsite"`)
			})
		})

		Convey("When creating a logger with an invalid log level", func() {
			logger, err := New(Options{Level: "invalid"})

			Convey("It should default to Info level", func() {
				So(err, ShouldBeNil)
				So(logger.Desugar().Core().Enabled(-1), ShouldBeFalse)
				So(logger.Desugar().Core().Enabled(0), ShouldBeTrue)
			})
		})

		Convey("When the log directory cannot be created", func() {
			logger, err := New(Options{Level: "info", File: "/proc/offsite/test.log"})

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create log directory")
				So(logger, ShouldBeNil)
			})
		})

		Convey("Job returns a tagged child logger", func() {
			logger := Nop().Job("abc", 2)
			So(logger, ShouldNotBeNil)
			So(func() { logger.Infof("attempt %d", 2) }, ShouldNotPanic)
			So(func() { logger.Close() }, ShouldNotPanic)
		})
	})
}
