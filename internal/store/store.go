package store

import (
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ErrNoParticipants = errors.New("no participants stored")

var (
	participantsBucket = []byte("participants")
	ownKey             = []byte("echoTreeOwnEmail")
	otherKey           = []byte("echoTreeOtherEmail")
	updatedKey         = []byte("updated")
)

// Store keeps the participant ids between runs, the way the browser client kept them in cookies.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(participantsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveParticipants(ownId string, otherId string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(participantsBucket)
		if err := b.Put(ownKey, []byte(ownId)); err != nil {
			return err
		}
		if err := b.Put(otherKey, []byte(otherId)); err != nil {
			return err
		}
		return b.Put(updatedKey, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

func (s *Store) LoadParticipants() (ownId string, otherId string, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(participantsBucket)
		own := b.Get(ownKey)
		other := b.Get(otherKey)
		if own == nil || other == nil {
			return ErrNoParticipants
		}
		// values are only valid inside the transaction
		ownId = string(own)
		otherId = string(other)
		return nil
	})
	return
}

func (s *Store) Close() error {
	return s.db.Close()
}
