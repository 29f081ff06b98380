/*
Package stream has channel pipeline stages for feeding points to the tile indexer.
Every stage runs in its own goroutine, closes its output when its input is drained,
and stops early when the context is cancelled.
*/
package stream

import (
	"bufio"
	"context"
	"io"
	"log/slog"
)

// Slice, et al., after:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

// MaxLineSize is the longest line Lines will read.
const MaxLineSize = 64 * 1024 * 1024

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

// Lines emits each non-empty line of r. A read error ends the stream and is logged.
func Lines(ctx context.Context, r io.Reader) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)
		for scanner.Scan() {
			b := scanner.Bytes()
			if len(b) == 0 {
				continue
			}
			line := make([]byte, len(b))
			copy(line, b)
			select {
			case <-ctx.Done():
				return
			case out <- line:
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("Failed to scan lines", "error", err)
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

// Rebatch flattens the incoming slices and re-cuts them into batches of size.
// The last batch may be short.
func Rebatch[T any](ctx context.Context, size int, in <-chan []T) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		batch := make([]T, 0, size)
		send := func() bool {
			select {
			case <-ctx.Done():
				return false
			case out <- batch:
				batch = make([]T, 0, size)
				return true
			}
		}
		for elements := range in {
			for _, e := range elements {
				batch = append(batch, e)
				if len(batch) == size && !send() {
					return
				}
			}
		}
		if len(batch) > 0 {
			send()
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}
