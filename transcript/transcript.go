package transcript

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

var tagRe = regexp.MustCompile(`<[^>]+>`)

// Logger appends flattened turn transcripts to a Redis list. Delivery
// is best-effort: with no Redis attached, or when a write fails, the
// turn result is unaffected.
type Logger struct {
	redis *redis.Client
	key   string
	log   *zap.SugaredLogger
}

// NewLogger creates a transcript sink. client may be nil, which turns
// the logger into a no-op.
func NewLogger(client *redis.Client, key string, log *zap.SugaredLogger) *Logger {
	return &Logger{redis: client, key: key, log: log}
}

// Record appends one turn. Never returns an error; failures are logged
// and dropped.
func (l *Logger) Record(ctx context.Context, identity, mode, query, answer string) {
	if l == nil || l.redis == nil {
		return
	}

	line := fmt.Sprintf("%s [%s] %s | Q: %s | A: %s",
		time.Now().Format(time.RFC3339), mode, identity, query, Flatten(answer))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := l.redis.RPush(ctx, l.key, line).Err(); err != nil && l.log != nil {
		l.log.Debugf("Transcript write failed: %v", err)
	}
}

// Flatten turns bubble HTML into one plain-text line.
func Flatten(answer string) string {
	text := strings.ReplaceAll(answer, "<br>", " / ")
	text = strings.ReplaceAll(text, "\n\n", " || ")
	text = tagRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
