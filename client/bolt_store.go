package client

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	authBucket      = "auth"
	refreshTokenKey = "refresh_token"

	storeFilePerm    = 0o600
	storeOpenTimeout = time.Second
)

// BoltStore — долговременный слот refresh-токена на bbolt:
// один бакет, один ключ. Файл создаётся при первом открытии.
type BoltStore struct {
	db *bolt.DB
}

// компайл-тайм проверка контракта.
var _ TokenStore = (*BoltStore)(nil)

// OpenBoltStore открывает (или создает) файл хранилища по указанному пути.
func OpenBoltStore(path string) (*BoltStore, error) {
	const op = "client.bolt_store.OpenBoltStore"

	db, err := bolt.Open(filepath.Clean(path), storeFilePerm, &bolt.Options{Timeout: storeOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(authBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &BoltStore{db: db}, nil
}

// Close закрывает файл хранилища.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveRefreshToken записывает refresh-токен в слот, перезаписывая прежний.
func (s *BoltStore) SaveRefreshToken(token string) error {
	const op = "client.bolt_store.SaveRefreshToken"

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(authBucket)).Put([]byte(refreshTokenKey), []byte(token))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LoadRefreshToken читает refresh-токен; пустая строка — слот пуст.
func (s *BoltStore) LoadRefreshToken() (string, error) {
	const op = "client.bolt_store.LoadRefreshToken"

	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(authBucket)).Get([]byte(refreshTokenKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// ClearRefreshToken удаляет запись из слота. Отсутствие записи — не ошибка.
func (s *BoltStore) ClearRefreshToken() error {
	const op = "client.bolt_store.ClearRefreshToken"

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(authBucket)).Delete([]byte(refreshTokenKey))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
