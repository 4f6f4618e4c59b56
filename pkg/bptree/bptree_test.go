package bptree_test

import (
	"cmp"
	"math/rand"
	"sync"
	"testing"

	"github.com/ssargent/uniclass/pkg/bptree"
	"github.com/ssargent/uniclass/pkg/uniclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntTree(order int) *bptree.BPlusTree[int, string] {
	return bptree.NewBPlusTree[int, string](order, cmp.Compare[int])
}

func TestBPlusTree_InsertAndSearch(t *testing.T) {
	tests := map[string]struct {
		tree     *bptree.BPlusTree[int, string]
		actions  []func(tree *bptree.BPlusTree[int, string])
		searches []struct {
			key      int
			expected string
			found    bool
		}
	}{
		"Insert and search integers": {
			tree: newIntTree(4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(2, "two") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(3, "three") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(4, "four") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(5, "five") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "one", true},
				{2, "two", true},
				{3, "three", true},
				{4, "four", true},
				{5, "five", true},
				{6, "", false},
			},
		},
		"Insert duplicate keys": {
			tree: newIntTree(4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "uno") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "uno", true},
			},
		},
		"Search empty tree": {
			tree:    newIntTree(4),
			actions: []func(tree *bptree.BPlusTree[int, string]){},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "", false},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, action := range tt.actions {
				action(tt.tree)
			}
			for _, search := range tt.searches {
				value, found := tt.tree.Search(search.key)
				if found != search.found || value != search.expected {
					t.Errorf("Search(%d) = %v, %v; want %v, %v", search.key, value, found, search.expected, search.found)
				}
			}
		})
	}
}

func TestBPlusTree_InsertReportsNewKeys(t *testing.T) {
	tree := newIntTree(3)
	assert.True(t, tree.Insert(7, "a"))
	assert.False(t, tree.Insert(7, "b"))
	assert.Equal(t, 1, tree.Len())
}

func TestBPlusTree_AscendIsSorted(t *testing.T) {
	tree := newIntTree(3)
	keys := rand.New(rand.NewSource(42)).Perm(500)
	for _, k := range keys {
		tree.Insert(k, "")
	}

	require.Equal(t, 500, tree.Len())
	assert.Greater(t, tree.Height(), 2)

	var got []int
	tree.Ascend(func(k int, _ string) bool {
		got = append(got, k)
		return true
	})
	require.Len(t, got, 500)
	for i, k := range got {
		assert.Equal(t, i, k)
	}
}

func TestBPlusTree_AscendFrom(t *testing.T) {
	tree := newIntTree(4)
	for i := 0; i < 100; i += 2 {
		tree.Insert(i, "")
	}

	var got []int
	tree.AscendFrom(41, func(k int, _ string) bool {
		got = append(got, k)
		return len(got) < 3
	})
	assert.Equal(t, []int{42, 44, 46}, got)

	got = nil
	tree.AscendFrom(1000, func(k int, _ string) bool {
		got = append(got, k)
		return true
	})
	assert.Empty(t, got)
}

func TestBPlusTree_CodeKeys(t *testing.T) {
	tree := bptree.NewBPlusTree[uniclass.Code, string](4, uniclass.Compare)
	inputs := []string{"Ss_25", "Ss_25_20", "Ss_25_127", "Pr_20", "Ac_1", "Ss_25_20_15"}
	for _, in := range inputs {
		tree.Insert(uniclass.MustParse(in), in)
	}

	var got []string
	tree.Ascend(func(k uniclass.Code, v string) bool {
		assert.Equal(t, k.String(), v)
		got = append(got, v)
		return true
	})
	assert.Equal(t, []string{"Ac_1", "Ss_25_20_15", "Ss_25_20", "Ss_25_127", "Ss_25", "Pr_20"}, got)

	v, ok := tree.Search(uniclass.MustParse("Ss_25_127"))
	assert.True(t, ok)
	assert.Equal(t, "Ss_25_127", v)
}

func TestBPlusTree_Concurrency(t *testing.T) {
	tree := newIntTree(4)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree.Insert(i, string(rune('a'+i-1)))
		}(i)
	}
	wg.Wait()

	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, found := tree.Search(i); !found {
				t.Errorf("Expected to find key %d", i)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, tree.Len())
}
