package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleConf struct {
	A       int           `json:"a"`
	Timeout time.Duration `json:"timeout"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, inst.A)
	assert.True(t, reg.Has("s"))
	assert.Equal(t, []string{"s"}, reg.Names())
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", nil))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, "unknown module type y")
}

func TestDecode_StringValues(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"a": "7", "timeout": "2s"}, &c))
	assert.Equal(t, 7, c.A)
	assert.Equal(t, 2*time.Second, c.Timeout)
}

func TestRegistry_CreateAll(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("one", func(map[string]any) (int, error) { return 1, nil }))
	require.NoError(t, reg.Register("two", func(map[string]any) (int, error) { return 2, nil }))

	got, err := reg.CreateAll([]ModuleConfig{{Type: "two"}, {Type: "one"}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got)

	_, err = reg.CreateAll([]ModuleConfig{{Type: "one"}, {Type: "three"}})
	assert.ErrorContains(t, err, "module 1 (three)")
}
