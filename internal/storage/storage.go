// /internal/storage/storage.go
package storage

import (
	"context"

	"github.com/keshon/datastore"

	"psyche/internal/actors"
	"psyche/internal/world"
)

const (
	keyNeeds  = "needs"
	keyActors = "actors"
	keyWorld  = "world"
)

type Store struct {
	ds *datastore.DataStore
}

func New(ctx context.Context, filePath string) (*Store, error) {
	ds, err := datastore.New(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return &Store{ds: ds}, nil
}

func (s *Store) Close() error {
	return s.ds.Close()
}

func (s *Store) SaveNeeds(values map[string]float64) error {
	return s.ds.Set(keyNeeds, values)
}

// LoadNeeds returns nil without error when no snapshot exists yet.
func (s *Store) LoadNeeds() (map[string]float64, error) {
	var values map[string]float64
	found, err := s.ds.Get(keyNeeds, &values)
	if err != nil || !found {
		return nil, err
	}
	return values, nil
}

func (s *Store) SaveActors(book map[string]actors.Actor) error {
	return s.ds.Set(keyActors, book)
}

func (s *Store) LoadActors() (map[string]actors.Actor, error) {
	var book map[string]actors.Actor
	found, err := s.ds.Get(keyActors, &book)
	if err != nil || !found {
		return nil, err
	}
	return book, nil
}

func (s *Store) SaveWorld(snap world.Snapshot) error {
	return s.ds.Set(keyWorld, snap)
}

func (s *Store) LoadWorld() (*world.Snapshot, error) {
	var snap world.Snapshot
	found, err := s.ds.Get(keyWorld, &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}
