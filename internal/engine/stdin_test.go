package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSource_LineOrder(t *testing.T) {
	src := NewStreamSource(strings.NewReader("a.txt\nb.txt\nc.txt\n"), nil, nil)
	items, errs := src.Start(context.Background())

	var got []PathItem
	for item := range items {
		got = append(got, item)
	}
	for range errs { //nolint:revive // empty-block: draining
	}

	require.Len(t, got, 3)
	assert.Equal(t, PathItem{Seq: 0, Path: "a.txt"}, got[0])
	assert.Equal(t, PathItem{Seq: 1, Path: "b.txt"}, got[1])
	assert.Equal(t, PathItem{Seq: 2, Path: "c.txt"}, got[2])
}

func TestStreamSource_SkipsEmptyLines(t *testing.T) {
	src := NewStreamSource(strings.NewReader("a.txt\n\n\nb.txt\n\n"), nil, nil)
	items, errs := src.Start(context.Background())

	var got []string
	for item := range items {
		got = append(got, item.Path)
	}
	for range errs { //nolint:revive // empty-block: draining
	}

	assert.Equal(t, []string{"a.txt", "b.txt"}, got)
	assert.Equal(t, uint64(2), src.Produced())
}

func TestStreamSource_NoTrailingNewline(t *testing.T) {
	src := NewStreamSource(strings.NewReader("a.txt\nb.txt"), nil, nil)
	items, errs := src.Start(context.Background())

	count := 0
	for range items {
		count++
	}
	for range errs { //nolint:revive // empty-block: draining
	}
	assert.Equal(t, 2, count)
}

// failReader yields its data and then a read error instead of EOF,
// simulating a pipe that breaks mid-stream.
type failReader struct {
	data io.Reader
}

func (r *failReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if err == io.EOF {
		return n, fmt.Errorf("broken pipe")
	}
	return n, err
}

func TestStreamSource_ReadFailureFatal(t *testing.T) {
	src := NewStreamSource(&failReader{data: strings.NewReader("a.txt\n")}, nil, nil)
	items, errs := src.Start(context.Background())

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for item := range items {
			got = append(got, item.Path)
		}
	}()

	var errList []error
	for err := range errs {
		errList = append(errList, err)
	}
	<-done

	// Lines read before the failure were produced; the failure itself is
	// fatal and reported.
	assert.Equal(t, []string{"a.txt"}, got)
	require.Len(t, errList, 1)
	assert.Contains(t, errList[0].Error(), "broken pipe")
}

func TestStreamSource_ProducerNeverBlocks(t *testing.T) {
	// 50k lines with nobody draining the output side: production must
	// still complete promptly because buffering is unbounded.
	var sb strings.Builder
	const n = 50000
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "file-%05d\n", i)
	}

	src := NewStreamSource(strings.NewReader(sb.String()), nil, nil)
	items, errs := src.Start(context.Background())

	// Wait for the reader goroutine to finish without consuming items.
	deadline := time.Now().Add(5 * time.Second)
	for src.Produced() < n {
		if time.Now().After(deadline) {
			t.Fatalf("producer stalled at %d of %d items", src.Produced(), n)
		}
		time.Sleep(time.Millisecond)
	}

	// Now drain and verify order survived the elastic buffer.
	i := 0
	for item := range items {
		require.Equal(t, uint64(i), item.Seq)
		require.Equal(t, fmt.Sprintf("file-%05d", i), item.Path)
		i++
	}
	for range errs { //nolint:revive // empty-block: draining
	}
	assert.Equal(t, n, i)
}

func TestElasticQueue_FIFO(t *testing.T) {
	in, out := elasticQueue()
	for i := 0; i < 100; i++ {
		in <- PathItem{Seq: uint64(i)}
	}
	close(in)

	i := 0
	for item := range out {
		assert.Equal(t, uint64(i), item.Seq)
		i++
	}
	assert.Equal(t, 100, i)
}

func TestElasticQueue_CloseEmpty(t *testing.T) {
	in, out := elasticQueue()
	close(in)
	for range out {
		t.Fatal("no items expected")
	}
}
