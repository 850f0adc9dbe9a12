package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("moving", "axis", "lift", "target", 12.5)
	logger.Infof("entered %s", "ZERO_BEFORE_CLIMB")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "moving")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap()["axis"], test.ShouldEqual, "lift")
	test.That(t, entries[1].Message, test.ShouldEqual, "entered ZERO_BEFORE_CLIMB")
}

func TestSubloggerName(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("climber").Sublogger("lift")
	sub.Warn("stalled")

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "climber.lift")
}

func TestLevelGating(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("intake")
	sub.SetLevel(WARN)
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)

	sub.Debug("dropped")
	sub.Info("dropped")
	sub.Error("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "kept")

	// the parent keeps its own level
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}

func TestBlankLoggerSync(t *testing.T) {
	logger := NewBlankLogger("blank")
	logger.Info("nowhere")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
