package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/blues/helprojects/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	var got doc
	found, err := s.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, KeyProjects, doc{Name: "a", Count: 1}))
	found, err = s.Get(ctx, KeyProjects, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{Name: "a", Count: 1}, got)

	require.NoError(t, s.Put(ctx, KeyProjects, doc{Name: "b", Count: 2}))
	found, err = s.Get(ctx, KeyProjects, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got.Name)

	require.NoError(t, s.Delete(ctx, KeyProjects))
	found, err = s.Get(ctx, KeyProjects, &got)
	require.NoError(t, err)
	assert.False(t, found)

	// 删除不存在的 key 不报错
	require.NoError(t, s.Delete(ctx, KeyProjects))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerStoreOnDiskSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(BadgerOptions{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KeySession, doc{Name: "session"}))
	require.NoError(t, s.Close())

	s, err = OpenBadger(BadgerOptions{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	var got doc
	found, err := s.Get(ctx, KeySession, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "session", got.Name)
}

func TestMemoryStoreFailWrites(t *testing.T) {
	s := NewMemoryStore()
	quota := errors.New("quota exceeded")
	s.SetFailWrites(quota)

	err := s.Put(context.Background(), KeyProjects, doc{})
	assert.ErrorIs(t, err, quota)
}

func TestOpenByDriver(t *testing.T) {
	s, err := Open(config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(config.StorageConfig{Driver: "floppy"})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)

	s, err := OpenRedis(config.RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)

	// 值以 JSON 保存
	require.NoError(t, s.Put(context.Background(), KeyUsers, doc{Name: "u", Count: 3}))
	raw, err := srv.Get(KeyUsers)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"u","count":3}`, raw)
}

func TestRedisStoreUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := OpenRedis(config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
