package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	value int
}

func (e *entry) Clone() *entry {
	return &entry{value: e.value}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("should keep registration order per key", func(t *testing.T) {
		t.Parallel()

		l := NewLookup[string, *entry]()
		l.Add("a", &entry{1})
		l.Add("b", &entry{2})
		l.Add("a", &entry{3})

		values, err := l.Get("a")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, Map(values, func(e *entry) int { return e.value }))
		assert.Equal(t, 2, l.Len())
	})

	t.Run("should fail for missing keys", func(t *testing.T) {
		t.Parallel()

		l := NewLookup[string, *entry]()
		_, err := l.Get("missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.ErrorIs(t, l.Remove("missing"), ErrKeyNotFound)
		assert.False(t, l.HasKey("missing"))
	})

	t.Run("should remove keys", func(t *testing.T) {
		t.Parallel()

		l := NewLookup[string, *entry]()
		l.Add("a", &entry{1})
		l.Add("b", &entry{2})

		require.NoError(t, l.Remove("a"))
		assert.False(t, l.HasKey("a"))
		assert.True(t, l.HasKey("b"))

		keys := []string{}
		l.Traverse(func(key string, _ []*entry) { keys = append(keys, key) })
		assert.Equal(t, []string{"b"}, keys)
	})

	t.Run("should remove by condition and drop empty keys", func(t *testing.T) {
		t.Parallel()

		l := NewLookup[string, *entry]()
		l.Add("a", &entry{1})
		l.Add("b", &entry{2})
		l.Add("a", &entry{3})
		l.Add("c", &entry{4})

		removed := l.RemoveByCondition(func(e *entry) bool { return e.value%2 == 0 })

		assert.Equal(t, []int{2, 4}, Map(removed, func(e *entry) int { return e.value }))
		assert.False(t, l.HasKey("b"))
		assert.False(t, l.HasKey("c"))
		values, err := l.Get("a")
		require.NoError(t, err)
		assert.Len(t, values, 2)
	})

	t.Run("should traverse keys in first insertion order", func(t *testing.T) {
		t.Parallel()

		l := NewLookup[int, *entry]()
		for _, key := range []int{3, 1, 2, 1, 3} {
			l.Add(key, &entry{key})
		}

		keys := []int{}
		counts := []int{}
		l.Traverse(func(key int, values []*entry) {
			keys = append(keys, key)
			counts = append(counts, len(values))
		})
		assert.Equal(t, []int{3, 1, 2}, keys)
		assert.Equal(t, []int{2, 2, 1}, counts)
	})

	t.Run("should clone independently", func(t *testing.T) {
		t.Parallel()

		original := NewLookup[string, *entry]()
		original.Add("a", &entry{1})

		clone := original.Clone()
		clone.Add("a", &entry{2})
		clone.Add("b", &entry{3})

		cloned, err := clone.Get("a")
		require.NoError(t, err)
		cloned[0].value = 10

		values, err := original.Get("a")
		require.NoError(t, err)
		assert.Len(t, values, 1)
		assert.Equal(t, 1, values[0].value)
		assert.False(t, original.HasKey("b"))

		require.NoError(t, original.Remove("a"))
		assert.True(t, clone.HasKey("a"))
	})
}

func TestUtils(t *testing.T) {
	t.Parallel()

	t.Run("should map, filter and flatten", func(t *testing.T) {
		t.Parallel()

		doubled := Map([]int{1, 2, 3}, func(v int) int { return v * 2 })
		assert.Equal(t, []int{2, 4, 6}, doubled)

		even := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
		assert.Equal(t, []int{2, 4}, even)

		assert.Equal(t, []int{1, 2, 3}, Flat([][]int{{1}, {}, {2, 3}}))
	})
}
