package stream

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestBufferedMatchesUnbuffered(t *testing.T) {
	plain := drain(t, NewFCDReader(strings.NewReader(fcdFixture), Options{}))

	buf := NewBuffered(NewFCDReader(strings.NewReader(fcdFixture), Options{}), 2)
	defer func() {
		if err := buf.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()
	buffered := drain(t, buf)

	if len(plain) != len(buffered) {
		t.Fatalf("length mismatch: %d vs %d", len(plain), len(buffered))
	}
	for i := range plain {
		if plain[i] != buffered[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, plain[i], buffered[i])
		}
	}
	if buf.Stats().Read != int64(len(plain)) {
		t.Fatalf("stats not forwarded: %+v", buf.Stats())
	}
}

func TestBufferedEOF(t *testing.T) {
	buf := NewBuffered(NewFCDReader(strings.NewReader(`<fcd-export></fcd-export>`), Options{}), 1)
	defer func() { _ = buf.Close() }()
	if _, err := buf.Next(context.Background()); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	// EOF is repeatable once the channel is drained
	if _, err := buf.Next(context.Background()); err != io.EOF {
		t.Fatalf("expected repeated EOF, got %v", err)
	}
}
