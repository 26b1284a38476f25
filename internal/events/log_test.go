package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureSink struct {
	got []domain.Event
	err error
}

func (s *captureSink) Deliver(_ context.Context, ev domain.Event) error {
	s.got = append(s.got, ev)
	return s.err
}

func (s *captureSink) Name() string { return "capture" }

func TestAppendFansOutToSinks(t *testing.T) {
	log := NewLog(10, testLogger())
	sink := &captureSink{}
	log.AddSink(sink)

	ev := log.Append(context.Background(), domain.EventArbitrageExecuted, map[string]string{"profit": "42"})

	require.NotEmpty(t, ev.ID)
	assert.Equal(t, domain.EventArbitrageExecuted, ev.Type)
	require.Len(t, sink.got, 1)
	assert.Equal(t, ev.ID, sink.got[0].ID)
}

func TestSinkFailureDoesNotPropagate(t *testing.T) {
	log := NewLog(10, testLogger())
	log.AddSink(&captureSink{err: errors.New("down")})
	after := &captureSink{}
	log.AddSink(after)

	log.Append(context.Background(), domain.EventOperationAborted, nil)

	// Later sinks still receive the event.
	assert.Len(t, after.got, 1)
}

func TestRecentBoundedRing(t *testing.T) {
	log := NewLog(3, testLogger())
	for i := 0; i < 5; i++ {
		log.Append(context.Background(), domain.EventFlashLoanExecuted, map[string]string{"i": string(rune('0' + i))})
	}

	recent := log.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "2", recent[0].Fields["i"])
	assert.Equal(t, "4", recent[2].Fields["i"])

	one := log.Recent(1)
	require.Len(t, one, 1)
	assert.Equal(t, "4", one[0].Fields["i"])
}

func TestRedisSinkPublishes(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(context.Background(), "flashd:events")
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	sink := NewRedisSink(rdb, "")
	ev := domain.Event{
		ID:     "ev-1",
		Type:   domain.EventArbitrageExecuted,
		At:     time.Now().UTC(),
		Fields: map[string]string{"profit": "982000000000000000"},
	}
	require.NoError(t, sink.Deliver(context.Background(), ev))

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, domain.EventArbitrageExecuted, got.Type)
	assert.Equal(t, "982000000000000000", got.Fields["profit"])
}
