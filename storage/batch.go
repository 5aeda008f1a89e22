package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// ErrBatchUnsupported is returned by Commit when the backing store cannot apply
// a batch atomically.
var ErrBatchUnsupported = errors.New("storage: backend does not support batches")

type batchWriter interface {
	writeBatch(keys, values [][]byte) error
}

// Batch buffers writes and applies them to the backing store in one atomic
// step. It satisfies Database; reads see buffered writes first.
type Batch struct {
	base    Database
	keys    [][]byte
	values  [][]byte
	pending map[string]int
}

// NewBatch returns an empty batch over base.
func NewBatch(base Database) *Batch {
	return &Batch{base: base, pending: make(map[string]int)}
}

// Put buffers a write. A later Put of the same key replaces it.
func (b *Batch) Put(key []byte, value []byte) error {
	v := append([]byte(nil), value...)
	if i, ok := b.pending[string(key)]; ok {
		b.values[i] = v
		return nil
	}
	b.pending[string(key)] = len(b.keys)
	b.keys = append(b.keys, append([]byte(nil), key...))
	b.values = append(b.values, v)
	return nil
}

// Get returns the buffered value for key, falling back to the backing store.
func (b *Batch) Get(key []byte) ([]byte, error) {
	if i, ok := b.pending[string(key)]; ok {
		return append([]byte(nil), b.values[i]...), nil
	}
	return b.base.Get(key)
}

// Has reports whether key is buffered or present in the backing store.
func (b *Batch) Has(key []byte) (bool, error) {
	if _, ok := b.pending[string(key)]; ok {
		return true, nil
	}
	return b.base.Has(key)
}

// Len returns the number of buffered keys.
func (b *Batch) Len() int { return len(b.keys) }

// Commit applies every buffered write at once and resets the batch. Nothing
// is written if it fails.
func (b *Batch) Commit() error {
	w, ok := b.base.(batchWriter)
	if !ok {
		return ErrBatchUnsupported
	}
	if len(b.keys) == 0 {
		return nil
	}
	if err := w.writeBatch(b.keys, b.values); err != nil {
		return err
	}
	b.keys, b.values = nil, nil
	b.pending = make(map[string]int)
	return nil
}

// Close discards the buffered writes. The backing store stays open.
func (b *Batch) Close() {
	b.keys, b.values = nil, nil
	b.pending = make(map[string]int)
}

func (db *MemDB) writeBatch(keys, values [][]byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, key := range keys {
		db.data[string(key)] = append([]byte(nil), values[i]...)
	}
	return nil
}

func (ldb *LevelDB) writeBatch(keys, values [][]byte) error {
	batch := new(leveldb.Batch)
	for i, key := range keys {
		batch.Put(key, values[i])
	}
	return ldb.db.Write(batch, nil)
}
