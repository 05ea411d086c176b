package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		name string
		st   Status
		want string
	}{
		{st: Queued, want: "queued"},
		{st: Processing, want: "processing"},
		{st: Completed, want: "completed"},
		{st: Failed, want: "failed"},
		{st: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		args string
		want Status
	}{
		{args: "completed", want: Completed},
		{args: "olia", want: 0},
		{args: "processing", want: Processing},
		{args: "queued", want: Queued},
		{args: "failed", want: Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := From(tt.args); got != tt.want {
				t.Errorf("From() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to Status
		want     bool
	}{
		{name: "start", from: Queued, to: Processing, want: true},
		{name: "complete", from: Processing, to: Completed, want: true},
		{name: "fail", from: Processing, to: Failed, want: true},
		{name: "skip processing", from: Queued, to: Completed, want: false},
		{name: "skip processing fail", from: Queued, to: Failed, want: false},
		{name: "back", from: Processing, to: Queued, want: false},
		{name: "from completed", from: Completed, to: Failed, want: false},
		{name: "from failed", from: Failed, to: Processing, want: false},
		{name: "same", from: Processing, to: Processing, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestFinal(t *testing.T) {
	assert.False(t, Queued.Final())
	assert.False(t, Processing.Final())
	assert.True(t, Completed.Final())
	assert.True(t, Failed.Final())
}

func TestPrevious(t *testing.T) {
	assert.Equal(t, Status(0), Queued.Previous())
	assert.Equal(t, Queued, Processing.Previous())
	assert.Equal(t, Processing, Completed.Previous())
	assert.Equal(t, Processing, Failed.Previous())
	for _, st := range []Status{Processing, Completed, Failed} {
		assert.True(t, CanTransition(st.Previous(), st), st.String())
	}
}
