package cmd

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/soko-platform/ms-go-settlement/config"
)

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
