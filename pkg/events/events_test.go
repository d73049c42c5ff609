package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
	fetchErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestPublisherPublish(t *testing.T) {
	writer := &fakeWriter{}
	pub := newPublisher(writer, "apdms.submission-reviews", nil)

	err := pub.Publish(context.Background(), "s1", SubmissionEvent{Type: TypeSubmissionReviewed, SubmissionID: "s1"})
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "s1", string(writer.msgs[0].Key))

	var decoded SubmissionEvent
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &decoded))
	assert.Equal(t, TypeSubmissionReviewed, decoded.Type)
}

func TestPublisherWrapsWriteError(t *testing.T) {
	pub := newPublisher(&fakeWriter{err: errors.New("leader not available")}, "topic", nil)
	err := pub.Publish(context.Background(), "k", map[string]string{})
	assert.ErrorContains(t, err, "publish to topic")
}

func TestConsumerRunHandlesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{cancel: cancel, msgs: []kafka.Message{
		{Offset: 1, Key: []byte("s1"), Value: []byte(`{"type":"submission.created"}`)},
		{Offset: 2, Value: []byte(`not json`)},
		{Offset: 3, Value: []byte(`{"type":"submission.deleted","submissionId":"s9"}`)},
	}}

	var handled []SubmissionEvent
	var outcomes []error
	consumer := newConsumer(reader, func(_ context.Context, e SubmissionEvent) error {
		handled = append(handled, e)
		return nil
	}, func(err error) { outcomes = append(outcomes, err) }, nil)

	require.NoError(t, consumer.Run(ctx))
	require.Len(t, handled, 2)
	assert.Equal(t, "s1", handled[0].SubmissionID)
	assert.Equal(t, "s9", handled[1].SubmissionID)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	require.Len(t, outcomes, 3)
	assert.Error(t, outcomes[1])
}

func TestConsumerRunReturnsFetchError(t *testing.T) {
	reader := &fakeReader{fetchErr: errors.New("group coordinator unavailable")}
	consumer := newConsumer(reader, func(context.Context, SubmissionEvent) error { return nil }, nil, nil)
	assert.ErrorContains(t, consumer.Run(context.Background()), "fetch submission event")
}
