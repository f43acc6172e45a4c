package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{" error ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		SetLevel(tt.input)
		if Logger.GetLevel() != tt.want {
			t.Errorf("SetLevel(%q): expected %s, got %s", tt.input, tt.want, Logger.GetLevel())
		}
	}
}
