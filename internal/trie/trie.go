// Package trie implements the mutable, reference-counted prefix tree that
// backs the grid solver's per-cell pruning. Nodes are keyed by single
// lowercase ASCII letters; a word's presence is reversible via Disable and
// Enable rather than structural removal, so the solver can temporarily
// retire a placed word and restore it exactly on backtrack.
package trie

// node is a single trie vertex. count is the number of currently-enabled
// words whose path passes through this node, incremented once per word on
// every node the insertion visits, including the root. endCount is kept
// separately from count: it is the number of currently-enabled words that
// terminate exactly at this node. The two must be tracked separately
// because a node can simultaneously be the terminal node of one word and
// an interior node on the path of a longer word (e.g. "car" and "card"
// share the node for "car"'s final r); collapsing them into a single
// counter would make disabling "car" fail to clear is_word("car") while
// "card" remains enabled, since the shared counter would still be
// positive. count alone still drives prefix pruning (next letters), since
// a subtree is worth visiting whenever any enabled word passes through it,
// regardless of whether a word also happens to terminate there.
type node struct {
	children  map[byte]*node
	count     int
	endCount  int
	isWordEnd bool
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Trie is a mutable prefix index over lowercase alphabetic words.
type Trie struct {
	root *node
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

// Add inserts word, setting is_word_end at its terminal node and
// incrementing count along the full path (root included).
func (t *Trie) Add(word string) {
	cur := t.root
	for i := 0; i < len(word); i++ {
		c := word[i]
		child, ok := cur.children[c]
		if !ok {
			child = newNode()
			cur.children[c] = child
		}
		cur.count++
		cur = child
	}
	cur.count++
	cur.endCount++
	cur.isWordEnd = true
}

// Disable decrements count along word's path and endCount at its terminal
// node, without touching is_word_end, making the word invisible to IsWord
// and pruning it out of NextLetters until Enable is called. Disabling a
// word not present in the trie is a caller error and panics, since it
// would drive some node's count negative.
func (t *Trie) Disable(word string) {
	t.adjustCount(word, -1)
}

// Enable is the exact inverse of Disable.
func (t *Trie) Enable(word string) {
	t.adjustCount(word, 1)
}

func (t *Trie) adjustCount(word string, delta int) {
	cur := t.root
	for i := 0; i < len(word); i++ {
		child, ok := cur.children[word[i]]
		if !ok {
			panic("trie: adjustCount on word not present in trie: " + word)
		}
		cur.count += delta
		cur = child
	}
	cur.count += delta
	cur.endCount += delta
	if cur.count < 0 || cur.endCount < 0 {
		panic("trie: count went negative for word: " + word)
	}
}

// IsWord reports whether word was added and is currently enabled along its
// full path.
func (t *Trie) IsWord(word string) bool {
	cur := t.root
	for i := 0; i < len(word); i++ {
		child, ok := cur.children[word[i]]
		if !ok || child.count == 0 {
			return false
		}
		cur = child
	}
	return cur.isWordEnd && cur.endCount > 0
}

// NextLetters walks prefix and returns the set of characters that can
// legally extend it to a still-enabled word or word-prefix. If any step of
// prefix is missing or has been fully disabled, it returns the empty set.
// The empty prefix returns the set of enabled first letters.
func (t *Trie) NextLetters(prefix string) map[byte]struct{} {
	cur := t.root
	for i := 0; i < len(prefix); i++ {
		child, ok := cur.children[prefix[i]]
		if !ok || child.count == 0 {
			return map[byte]struct{}{}
		}
		cur = child
	}
	next := make(map[byte]struct{}, len(cur.children))
	for c, child := range cur.children {
		if child.count > 0 {
			next[c] = struct{}{}
		}
	}
	return next
}

// Snapshot captures every node's count and is_word_end, keyed by the path
// of bytes from the root. It exists solely to support the "no leftover
// state" self-check around a solve: a snapshot taken before and after a
// solve attempt must compare equal.
type Snapshot map[string]nodeState

type nodeState struct {
	count     int
	endCount  int
	isWordEnd bool
}

// Snapshot walks the whole trie and returns its current state.
func (t *Trie) Snapshot() Snapshot {
	snap := make(Snapshot)
	var walk func(prefix []byte, n *node)
	walk = func(prefix []byte, n *node) {
		snap[string(prefix)] = nodeState{count: n.count, endCount: n.endCount, isWordEnd: n.isWordEnd}
		for c, child := range n.children {
			walk(append(prefix, c), child)
		}
	}
	walk(nil, t.root)
	return snap
}

// Equal reports whether two snapshots describe identical trie states.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
