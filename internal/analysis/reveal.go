// AngelaMos | 2026
// reveal.go

package analysis

import (
	"context"
	"strings"
	"time"
)

const (
	defaultChunkSize = 3
	defaultInterval  = 20 * time.Millisecond
)

// Revealer paces a finished reply out in fixed-size chunks.
type Revealer struct {
	chunkSize int
	interval  time.Duration
}

func NewRevealer(chunkSize int, interval time.Duration) *Revealer {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Revealer{chunkSize: chunkSize, interval: interval}
}

// Reveal hands text to emit one chunk per tick. It always returns the text
// emitted so far, including when ctx ends or emit fails partway.
func (r *Revealer) Reveal(
	ctx context.Context,
	text string,
	emit func(chunk string) error,
) (string, error) {
	runes := []rune(text)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var revealed strings.Builder
	for i := 0; i < len(runes); i += r.chunkSize {
		if i > 0 {
			select {
			case <-ctx.Done():
				return revealed.String(), ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return "", err
		}

		chunk := string(runes[i:min(i+r.chunkSize, len(runes))])
		if err := emit(chunk); err != nil {
			return revealed.String(), err
		}
		revealed.WriteString(chunk)
	}

	return revealed.String(), nil
}
