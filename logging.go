package fleettelemetry

import (
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/theoremus-urban-solutions/fleet-telemetry/config"
)

// ConfigureLogging sets the logrus level and formatters from configuration.
// When a log file path is configured, output is additionally written to a
// rotating file through an lfshook hook.
func ConfigureLogging(cfg config.LogConfig) {
	log.SetLevel(cfg.GetLogLevel())
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: false})
	log.SetOutput(os.Stdout)

	if cfg.FilePath == "" {
		return
	}

	logDir := filepath.Dir(cfg.FilePath)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			log.Fatalf("could not create log directory: %v", err)
		}
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    100,
		MaxBackups: 30,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	log.AddHook(lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: fileLogger,
		log.FatalLevel: fileLogger,
		log.ErrorLevel: fileLogger,
		log.WarnLevel:  fileLogger,
		log.InfoLevel:  fileLogger,
		log.DebugLevel: fileLogger,
		log.TraceLevel: fileLogger,
	}, fileFmt))
}
