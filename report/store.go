package report

import (
	"encoding/json"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

var runsBucket = []byte("runs")

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store persists runs in a bbolt file, one JSON document per run ID.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open run store %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create runs bucket")
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "close run store")
	}
	return nil
}

// Save writes r, assigning an ID and creation time when they are unset.
// Saving a run with an existing ID replaces it.
func (s *Store) Save(r *Run) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode run")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(r.ID), data)
	})
	if err != nil {
		return errors.Wrapf(err, "save run %s", r.ID)
	}

	log.GetLoggerWithName("report.store").Info("run saved",
		log.RunIDKey, r.ID,
		log.PathKey, s.path,
	)
	return nil
}

// Get loads the run with the given ID.
func (s *Store) Get(id string) (*Run, error) {
	var r *Run
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(id))
		if data == nil {
			return errors.Wrapf(ErrRunNotFound, "run %s", id)
		}
		r = new(Run)
		return json.Unmarshal(data, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			r := new(Run)
			if err := json.Unmarshal(v, r); err != nil {
				return errors.Wrapf(err, "decode run %s", k)
			}
			runs = append(runs, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// IDs are time ordered, but runs saved with explicit IDs need not be.
	sortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func sortNewestFirst(runs []*Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
}
