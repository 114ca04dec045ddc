// internal/store/memory_test.go
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGateway(t *testing.T) {
	gw := NewMemoryGateway()
	defer gw.Close()
	runGatewaySuite(t, gw)
}

func TestMemoryGatewayClosed(t *testing.T) {
	gw := NewMemoryGateway()
	require.NoError(t, gw.Close())
	_, err := gw.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = gw.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemorySubscribeMissingDocument(t *testing.T) {
	gw := NewMemoryGateway()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := gw.Subscribe(ctx, "later")
	require.NoError(t, err)
	require.NoError(t, gw.Set(ctx, "later", map[string]int{"v": 7}))
	assert.JSONEq(t, `{"v":7}`, string(<-ch))
}

func TestMergeFieldsNested(t *testing.T) {
	out, err := mergeFields([]byte(`{"a":{"b":1,"c":2},"d":[1]}`), map[string]any{
		"a/b":   5,
		"x/y/z": true,
		"d":     nil,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":5,"c":2},"d":null,"x":{"y":{"z":true}}}`, string(out))
}

func TestMergeFieldsRejectsNonObject(t *testing.T) {
	_, err := mergeFields([]byte(`[1,2]`), map[string]any{"a": 1})
	assert.Error(t, err)
}
