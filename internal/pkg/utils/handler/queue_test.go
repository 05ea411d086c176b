package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
)

type testData struct {
	got      []string
	deadline bool
	err      error
}

func testHandler(ctx context.Context, m *messages.JobMessage, data *testData) error {
	data.got = append(data.got, m.ID)
	_, data.deadline = ctx.Deadline()
	return data.err
}

func TestCreate(t *testing.T) {
	data := &testData{}
	wf := Create(data, testHandler, DefaultOpts[messages.JobMessage]())
	err := wf(context.Background(), &gue.Job{Queue: "q", Type: "q", Args: jobArgs(t, "1")})
	assert.Nil(t, err)
	assert.Equal(t, []string{"1"}, data.got)
	assert.True(t, data.deadline)
}

func TestCreate_NoTimeout(t *testing.T) {
	data := &testData{}
	wf := Create(data, testHandler, DefaultOpts[messages.JobMessage]().WithTimeout(0))
	err := wf(context.Background(), &gue.Job{Queue: "q", Type: "q", Args: jobArgs(t, "1")})
	assert.Nil(t, err)
	assert.False(t, data.deadline)
}

func TestCreate_Retry(t *testing.T) {
	data := &testData{err: errors.New("olia")}
	wf := Create(data, testHandler, DefaultOpts[messages.JobMessage]().WithBackoff(NoBackoff()))
	err := wf(context.Background(), &gue.Job{Queue: "q", Type: "q", Args: jobArgs(t, "1")})
	require.NotNil(t, err)
}

func TestCreate_NoRetry(t *testing.T) {
	data := &testData{err: errors.New("olia")}
	wf := Create(data, testHandler, DefaultOpts[messages.JobMessage]().WithFailure(NoRetry[messages.JobMessage]))
	err := wf(context.Background(), &gue.Job{Queue: "q", Type: "q", Args: jobArgs(t, "1")})
	assert.Nil(t, err)
	assert.Equal(t, []string{"1"}, data.got)
}

func TestCreate_BadMessage(t *testing.T) {
	data := &testData{}
	wf := Create(data, testHandler, DefaultOpts[messages.JobMessage]().WithFailure(NoRetry[messages.JobMessage]))
	err := wf(context.Background(), &gue.Job{Queue: "q", Type: "q", Args: []byte(`{`)})
	assert.Nil(t, err)
	assert.Empty(t, data.got)
}

func TestFullJitter(t *testing.T) {
	for i := 0; i < 10; i++ {
		d := fullJitter(time.Second)
		assert.True(t, d >= 0 && d < time.Second)
	}
}

func jobArgs(t *testing.T, id string) []byte {
	t.Helper()
	res, err := json.Marshal(messages.NewJobMessage(id))
	require.Nil(t, err)
	return res
}
