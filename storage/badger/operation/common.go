package operation

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/onflow/multiphase/storage"
)

// makePrefix builds a storage key from a prefix code and any number of key
// parts. Unsigned integers are encoded big-endian so that keys sort
// numerically; fixed-size byte arrays are appended verbatim.
func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1, 1+8*len(keys))
	prefix[0] = code
	for _, key := range keys {
		switch k := key.(type) {
		case uint64:
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, k)
			prefix = append(prefix, buf...)
		case [32]byte:
			prefix = append(prefix, k[:]...)
		default:
			panic(fmt.Sprintf("unsupported key type %T", key))
		}
	}
	return prefix
}

// insert will encode the given entity using msgpack and will insert the
// resulting binary data in the badger DB under the provided key. It will
// error if the key already exists.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		// check if the key already exists in the db
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}

		// serialize the entity data
		val, err := msgpack.Marshal(entity)
		if err != nil {
			return fmt.Errorf("could not encode entity: %w", err)
		}

		// persist the entity data into the DB
		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}

		return nil
	}
}

// upsert will encode the given entity using msgpack and will store the
// resulting binary data under the provided key, regardless of whether the
// key already exists.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		val, err := msgpack.Marshal(entity)
		if err != nil {
			return fmt.Errorf("could not encode entity: %w", err)
		}

		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}

		return nil
	}
}

// retrieve will retrieve the binary data under the given key from the badger
// DB and decode it into the given entity. The provided entity needs to be a
// pointer to an initialized entity of the correct type.
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not decode entity: %w", err)
		}

		return nil
	}
}

// remove removes the entity with the given key, if it exists. If it doesn't
// exist, this is a no-op.
func remove(key []byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := tx.Delete(key)
		if err != nil {
			return fmt.Errorf("could not delete data: %w", err)
		}
		return nil
	}
}

// RetryOnConflict retries the given transaction whenever badger reports a
// conflict, which can happen under concurrent writers.
func RetryOnConflict(runner func(func(*badger.Txn) error) error, op func(*badger.Txn) error) error {
	for {
		err := runner(op)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}
