package trie

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gethtrie "github.com/ethereum/go-ethereum/trie"
)

// ErrEmptyValue is returned by Put for zero-length values, which a Merkle
// Patricia trie cannot distinguish from deletion.
var ErrEmptyValue = errors.New("trie: empty value")

// Commitment collects key/value pairs and derives the Merkle Patricia root
// over them. Keys are hashed with keccak256 before insertion so the root does
// not depend on insertion order or key length.
//
// Commitment is not safe for concurrent use.
type Commitment struct {
	entries map[common.Hash][]byte
}

// NewCommitment returns an empty commitment.
func NewCommitment() *Commitment {
	return &Commitment{entries: make(map[common.Hash][]byte)}
}

// Put records value under key, replacing any earlier value.
func (c *Commitment) Put(key, value []byte) error {
	if len(value) == 0 {
		return ErrEmptyValue
	}
	c.entries[crypto.Keccak256Hash(key)] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of distinct keys.
func (c *Commitment) Len() int { return len(c.entries) }

// Root returns the trie root. An empty commitment yields the canonical empty
// root hash.
func (c *Commitment) Root() (common.Hash, error) {
	keys := make([]common.Hash, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	st := gethtrie.NewStackTrie(nil)
	for _, k := range keys {
		if err := st.Update(k.Bytes(), c.entries[k]); err != nil {
			return common.Hash{}, err
		}
	}
	return st.Hash(), nil
}
