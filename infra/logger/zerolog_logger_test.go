package logger

import "testing"

func TestNewReturnsUsableLogger(t *testing.T) {
	for _, env := range []string{"dev", "production", ""} {
		t.Setenv("APP_ENV", env)
		log := New("test")
		if log == nil {
			t.Fatalf("nil logger for APP_ENV=%q", env)
		}
		log.Debugf("debug %s", env)
		log.Debugw("debug with fields", map[string]any{"env": env, "n": 1})
		log.Infof("info")
		log.Warnf("warn")
		log.Errorf("error")
	}
}

func TestNopLoggerSatisfiesInterface(t *testing.T) {
	var log Logger = NopLogger{}
	log.Debugw("ignored", nil)
	log.Infof("ignored %d", 1)
}
