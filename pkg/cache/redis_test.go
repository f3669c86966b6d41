package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisCacheGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := newRedisCache(db, "")
	ctx := context.Background()

	t.Run("hit returns value", func(t *testing.T) {
		mock.ExpectGet("negflo:key").SetVal("Date,a")

		data, hit, err := c.Get(ctx, "key")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !hit {
			t.Error("Expected cache hit")
		}
		if string(data) != "Date,a" {
			t.Errorf("Get returned %q", data)
		}
	})

	t.Run("miss is not an error", func(t *testing.T) {
		mock.ExpectGet("negflo:missing").RedisNil()

		data, hit, err := c.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get should not fail on a miss: %v", err)
		}
		if hit || data != nil {
			t.Errorf("Expected miss, got hit=%v data=%q", hit, data)
		}
	})

	t.Run("redis error is returned", func(t *testing.T) {
		mock.ExpectGet("negflo:broken").SetErr(errors.New("LOADING"))

		if _, _, err := c.Get(ctx, "broken"); err == nil {
			t.Error("Expected error when Redis fails")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCacheSetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := newRedisCache(db, "test:")
	ctx := context.Background()

	mock.ExpectSet("test:key", []byte("v"), time.Hour).SetVal("OK")
	mock.ExpectDel("test:key").SetVal(1)

	if err := c.Set(ctx, "key", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCachePingRetries(t *testing.T) {
	defer shortRetry()()
	db, mock := redismock.NewClientMock()
	c := newRedisCache(db, "")

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	mock.ExpectPing().SetVal("PONG")

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping should succeed after a retry: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Redis expectations not met: %v", err)
	}
}

func TestRedisCachePingGivesUp(t *testing.T) {
	defer shortRetry()()
	db, mock := redismock.NewClientMock()
	c := newRedisCache(db, "")

	for i := 0; i < 3; i++ {
		mock.ExpectPing().SetErr(errors.New("connection refused"))
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping should fail after three attempts")
	}
}
