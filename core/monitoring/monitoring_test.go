package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordMonitor struct {
	err     error
	tags    map[string]string
	panics  []any
	flushed bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(v any)  { r.panics = append(r.panics, v) }
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(NopMonitor{}) })

	CaptureException(nil, nil)
	assert.Nil(t, mon.err)
	CaptureException(errors.New("boom"), map[string]string{"module": "store"})
	assert.EqualError(t, mon.err, "boom")
	assert.Equal(t, "store", mon.tags["module"])
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(NopMonitor{}) })

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	assert.Equal(t, []any{"bad"}, mon.panics)
	assert.True(t, mon.flushed)
}

func TestInitIgnoresNil(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
}
