package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
)

// TestRedisStore verifies keys are prefixed and redis.Nil maps to ErrNotFound.
func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	s := NewRedis(db, "cirqulofit:")
	defer s.Close()

	mock.ExpectGet("cirqulofit:" + UserKey).SetErr(redis.Nil)
	if _, err := s.Get(ctx, UserKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	mock.ExpectSet("cirqulofit:"+TokenKey, "tok", 0).SetVal("OK")
	if err := s.Put(ctx, TokenKey, []byte("tok")); err != nil {
		t.Errorf("Put: %v", err)
	}

	mock.ExpectGet("cirqulofit:" + TokenKey).SetVal("tok")
	got, err := s.Get(ctx, TokenKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "tok" {
		t.Errorf("Get = %q, want tok", got)
	}

	mock.ExpectDel("cirqulofit:" + TokenKey).SetVal(1)
	if err := s.Delete(ctx, TokenKey); err != nil {
		t.Errorf("Delete: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// TestRedisStoreError verifies backend errors are wrapped, not swallowed.
func TestRedisStoreError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedis(db, "")

	mock.ExpectSet("k", "v", 0).SetErr(errors.New("connection refused"))
	if err := s.Put(context.Background(), "k", []byte("v")); err == nil {
		t.Fatal("expected error")
	}
}
