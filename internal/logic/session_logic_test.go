package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/remote/remotetest"
	"github.com/blues/helprojects/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sl := NewSessionLogic(store, NewLocalAuthenticator(store))

	s, err := sl.Login(ctx, LoginInput{Name: "анна", Email: "Anna@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "анна", s.User.Name)
	assert.Equal(t, "anna@example.com", s.User.Email)
	assert.Equal(t, "А", s.User.Avatar)
	assert.False(t, s.Remote)

	var users []model.User
	found, err := store.Get(ctx, storage.KeyUsers, &users)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, users, 1)

	restored := NewSessionLogic(store, NewLocalAuthenticator(store))
	got, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.User.ID, got.User.ID)
	assert.Equal(t, s.User.ID, restored.Current().User.ID)
}

func TestLocalLoginDefaultsNameAndReusesUser(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sl := NewSessionLogic(store, NewLocalAuthenticator(store))

	first, err := sl.Login(ctx, LoginInput{Name: "Борис", Email: "boris@example.com"})
	require.NoError(t, err)

	again, err := sl.Login(ctx, LoginInput{Email: "boris@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, "Борис", again.User.Name)

	other, err := sl.Login(ctx, LoginInput{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserName, other.User.Name)
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	store := storage.NewMemoryStore()
	sl := NewSessionLogic(store, NewLocalAuthenticator(store))

	_, err := sl.Login(context.Background(), LoginInput{Name: "Анна", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, sl.Current())
}

func TestLogoutRemovesPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sl := NewSessionLogic(store, NewLocalAuthenticator(store))
	_, err := sl.Login(ctx, LoginInput{Name: "Анна", Email: "anna@example.com"})
	require.NoError(t, err)

	require.NoError(t, sl.Logout(ctx))
	assert.Nil(t, sl.Current())

	var s model.Session
	found, err := store.Get(ctx, storage.KeySession, &s)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRemoteLoginVerifiesCredentials(t *testing.T) {
	ctx := context.Background()
	fake := remotetest.New()
	fake.AddUser("Анна", "anna@example.com", "secret1")
	store := storage.NewMemoryStore()
	sl := NewSessionLogic(store, NewRemoteAuthenticator(fake))

	_, err := sl.Login(ctx, LoginInput{Email: "anna@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Nil(t, sl.Current())

	_, err = sl.Login(ctx, LoginInput{Email: "anna@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	s, err := sl.Login(ctx, LoginInput{Email: "anna@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, s.Remote)
	assert.NotEmpty(t, s.AccessToken)

	restored := NewSessionLogic(store, NewRemoteAuthenticator(fake))
	got, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "anna@example.com", got.User.Email)

	require.NoError(t, restored.Logout(ctx))
	assert.Contains(t, fake.CallLog(), "sign_out")
}

func TestRemoteRegister(t *testing.T) {
	ctx := context.Background()
	fake := remotetest.New()
	sl := NewSessionLogic(storage.NewMemoryStore(), NewRemoteAuthenticator(fake))

	_, err := sl.Register(ctx, RegisterInput{Name: "Вера", Email: "vera@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)

	s, err := sl.Register(ctx, RegisterInput{Name: "Вера", Email: "vera@example.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "Вера", s.User.Name)

	_, err = sl.Register(ctx, RegisterInput{Name: "Вера", Email: "vera@example.com", Password: "123456"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRemoteUnavailableIsReported(t *testing.T) {
	fake := remotetest.New()
	fake.Fail(errors.New("connection refused"))
	sl := NewSessionLogic(storage.NewMemoryStore(), NewRemoteAuthenticator(fake))

	_, err := sl.Login(context.Background(), LoginInput{Email: "anna@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}
