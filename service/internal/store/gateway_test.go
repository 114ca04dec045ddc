// internal/store/gateway_test.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGatewaySuite exercises the Gateway contract against any backend.
func runGatewaySuite(t *testing.T, gw Gateway) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, gw) })
	t.Run("SetUpdateGet", func(t *testing.T) { testSetUpdateGet(t, gw) })
	t.Run("SubscribeOrder", func(t *testing.T) { testSubscribeOrder(t, gw) })
	t.Run("SubscribeBurst", func(t *testing.T) { testSubscribeBurst(t, gw) })
	t.Run("TransactionExclusive", func(t *testing.T) { testTransactionExclusive(t, gw) })
	t.Run("TransactionAbort", func(t *testing.T) { testTransactionAbort(t, gw) })
	t.Run("BroadcastEvent", func(t *testing.T) { testBroadcastEvent(t, gw) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, gw) })
}

func uniquePath(t *testing.T) string {
	return fmt.Sprintf("test/%s/%d", t.Name(), time.Now().UnixNano())
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func testGetMissing(t *testing.T, gw Gateway) {
	_, err := gw.Get(context.Background(), uniquePath(t))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testSetUpdateGet(t *testing.T, gw Gateway) {
	ctx := context.Background()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{
		"round": 1,
		"hands": map[string]any{"a": []int{1, 2}, "b": []int{3}},
	}))
	require.NoError(t, gw.Update(ctx, path, map[string]any{
		"round":   2,
		"hands/b": []int{3, 4},
		"phase":   "play",
	}))

	b, err := gw.Get(ctx, path)
	require.NoError(t, err)
	doc := decode(t, b)
	assert.EqualValues(t, 2, doc["round"])
	assert.Equal(t, "play", doc["phase"])
	hands := doc["hands"].(map[string]any)
	assert.Len(t, hands["a"], 2, "untouched nested key survives")
	assert.Len(t, hands["b"], 2)
}

func testSubscribeOrder(t *testing.T, gw Gateway) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"n": 0}))

	ch, err := gw.Subscribe(ctx, path)
	require.NoError(t, err)
	first := decode(t, <-ch)
	assert.EqualValues(t, 0, first["n"], "subscription starts with the current value")

	for i := 1; i <= 20; i++ {
		require.NoError(t, gw.Update(ctx, path, map[string]any{"n": i}))
	}
	for i := 1; i <= 20; i++ {
		select {
		case b := <-ch:
			assert.EqualValues(t, i, decode(t, b)["n"])
		case <-ctx.Done():
			t.Fatalf("timed out waiting for change %d", i)
		}
	}

	cancel()
	for range ch {
	}
}

// testSubscribeBurst has concurrent writers bump a counter. The subscriber
// must see every committed value exactly once, in order.
func testSubscribeBurst(t *testing.T, gw Gateway) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"n": 0}))

	ch, err := gw.Subscribe(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, decode(t, <-ch)["n"])

	const writers, each = 4, 8
	bump := func(cur []byte) ([]byte, error) {
		var doc map[string]float64
		if err := json.Unmarshal(cur, &doc); err != nil {
			return nil, err
		}
		doc["n"]++
		return json.Marshal(doc)
	}
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				// contention errors are retried until the bump commits
				for ok := false; !ok && ctx.Err() == nil; {
					ok, _ = gw.Transaction(ctx, path, bump)
				}
			}
		}()
	}

	for i := 1; i <= writers*each; i++ {
		select {
		case b := <-ch:
			require.EqualValues(t, i, decode(t, b)["n"])
		case <-ctx.Done():
			t.Fatalf("timed out waiting for change %d", i)
		}
	}
	wg.Wait()

	cancel()
	for range ch {
	}
}

// testTransactionExclusive races claimers on one slot: exactly one wins.
func testTransactionExclusive(t *testing.T, gw Gateway) {
	ctx := context.Background()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"claimant": nil}))

	const n = 25
	var wg sync.WaitGroup
	results := make([]bool, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = gw.Transaction(ctx, path, func(cur []byte) ([]byte, error) {
				var doc map[string]any
				if err := json.Unmarshal(cur, &doc); err != nil {
					return nil, err
				}
				if doc["claimant"] != nil {
					return nil, ErrAbort
				}
				doc["claimant"] = fmt.Sprintf("p%d", i)
				return json.Marshal(doc)
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	winner := ""
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
			winner = fmt.Sprintf("p%d", i)
		}
	}
	assert.Equal(t, 1, winners, "exactly one claim commits")

	b, err := gw.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, winner, decode(t, b)["claimant"])
}

func testTransactionAbort(t *testing.T, gw Gateway) {
	ctx := context.Background()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"v": 1}))

	ok, err := gw.Transaction(ctx, path, func([]byte) ([]byte, error) { return nil, ErrAbort })
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("boom")
	ok, err = gw.Transaction(ctx, path, func([]byte) ([]byte, error) { return nil, boom })
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	b, _ := gw.Get(ctx, path)
	assert.EqualValues(t, 1, decode(t, b)["v"], "aborted transactions write nothing")
}

func testBroadcastEvent(t *testing.T, gw Gateway) {
	ctx := context.Background()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"round": 1}))

	id1, err := gw.BroadcastEvent(ctx, path, map[string]any{"type": "cabo"})
	require.NoError(t, err)
	id2, err := gw.BroadcastEvent(ctx, path, map[string]any{"type": "peek"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Less(t, id1, id2, "event ids are monotonic")

	b, _ := gw.Get(ctx, path)
	doc := decode(t, b)
	ev := doc["event"].(map[string]any)
	assert.Equal(t, id2, ev["id"])
	assert.Equal(t, "peek", ev["type"])
	assert.EqualValues(t, 1, doc["round"], "broadcast leaves the rest of the document alone")

	kept, err := gw.BroadcastEvent(ctx, path, map[string]any{"id": "fixed", "type": "spy"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", kept)
}

func testDelete(t *testing.T, gw Gateway) {
	ctx := context.Background()
	path := uniquePath(t)
	require.NoError(t, gw.Set(ctx, path, map[string]any{"v": 1}))
	require.NoError(t, gw.Delete(ctx, path))
	_, err := gw.Get(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)
}
