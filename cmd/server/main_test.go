package main

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/config"
	"github.com/blues/helprojects/internal/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func memoryConfig(remoteEnabled bool) *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Driver = "memory"
	cfg.Remote.Enabled = remoteEnabled
	cfg.Remote.JWTSecret = "test-secret"
	return cfg
}

func TestRuntimeFallsBackWhenRemoteUnreachable(t *testing.T) {
	dialed := false
	dial := func(config.DatabaseConfig) (*gorm.DB, error) {
		dialed = true
		return nil, errors.New("dial tcp 127.0.0.1:5432: connection refused")
	}

	rt, err := newRuntime(memoryConfig(true), dial)
	require.NoError(t, err)
	defer rt.close()

	assert.True(t, dialed)
	assert.NotNil(t, rt.store)
	assert.Nil(t, rt.mirror)
	assert.Nil(t, rt.auth)

	// 仍可使用本地存储
	ctl := app.New(app.Options{Store: rt.store, Mirror: rt.mirror, Auth: rt.auth})
	defer ctl.Close()
	require.NoError(t, ctl.Restore(context.Background()))
	_, err = ctl.Login(context.Background(), logic.LoginInput{Name: "Анна", Email: "anna@school.ru"})
	require.NoError(t, err)
	assert.NotNil(t, ctl.Session())
}

func TestRuntimeSkipsRemoteWhenDisabled(t *testing.T) {
	dial := func(config.DatabaseConfig) (*gorm.DB, error) {
		t.Fatal("remote should not be dialed")
		return nil, nil
	}

	rt, err := newRuntime(memoryConfig(false), dial)
	require.NoError(t, err)
	defer rt.close()
	assert.Nil(t, rt.client)
}
