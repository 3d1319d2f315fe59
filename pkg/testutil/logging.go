package testutil

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !verbose() {
		logrus.StandardLogger().Out = io.Discard
	}
}

func verbose() bool {
	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return true
		}
	}
	return false
}

// LogBuffer is a concurrency safe sink for captured log lines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogs redirects the standard logger into a buffer until the test
// ends.
func CaptureLogs(t *testing.T) *LogBuffer {
	logger := logrus.StandardLogger()
	original := logger.Out

	captured := &LogBuffer{}
	logger.SetOutput(captured)
	t.Cleanup(func() {
		logger.SetOutput(original)
	})
	return captured
}
