package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewKVStore_RequiresAddr(t *testing.T) {
	_, err := NewKVStore(Config{})
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("value")))

	data, err := newKVStoreWithClient(c, 0).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), data)
}

func TestGet_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisNil()))

	_, err := newKVStoreWithClient(c, 0).Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := newKVStoreWithClient(c, 0).Get(context.Background(), "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSet_WithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "3600")).
		Return(mock.Result(mock.RedisString("OK")))

	require.NoError(t, newKVStoreWithClient(c, time.Hour).Set(context.Background(), "k", []byte("v")))
}

func TestSet_NoTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	require.NoError(t, newKVStoreWithClient(c, 0).Set(context.Background(), "k", []byte("v")))
}

func TestPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	assert.NoError(t, newKVStoreWithClient(c, 0).Ping(context.Background()))
}
