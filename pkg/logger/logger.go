package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New создает JSON-логгер. Каждая запись помечается идентификатором инстанса,
// чтобы логи нескольких реплик можно было различить.
func New(logLevel, instanceID string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})

	log.SetOutput(os.Stdout)

	// Уровень логирования
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Уровень по умолчанию, если передан некорректный
	}
	log.SetLevel(level)

	if instanceID != "" {
		log.AddHook(&instanceHook{instanceID: instanceID})
	}
	return log
}

type instanceHook struct {
	instanceID string
}

func (h *instanceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *instanceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["instance"]; !ok {
		entry.Data["instance"] = h.instanceID
	}
	return nil
}
