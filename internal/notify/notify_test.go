package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failing struct{ err error }

func (f failing) Notify(string) error { return f.err }

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.Equal(t, "", r.Last())

	_ = r.Notify("first")
	_ = r.Notify("second")
	assert.Equal(t, "second", r.Last())
	assert.Equal(t, []string{"first", "second"}, r.Messages())

	assert.Equal(t, "second", r.Take())
	assert.Equal(t, "", r.Take())
	assert.Empty(t, r.Messages())
}

func TestMulti(t *testing.T) {
	r := &Recorder{}
	boom := errors.New("boom")

	err := Multi{failing{boom}, r, Nop{}}.Notify("sync failed")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "sync failed", r.Last())
}
