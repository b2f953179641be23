package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientWithRDB(db, logging.NewNopLogger())
	// Jitter disabled so Set expectations are deterministic.
	s.cache = NewRedisCache(s.client, logging.NewNopLogger(), WithPrefix("test:"), WithTTLJitter(0))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	want := cachedValue{Name: "伊朗", Count: 2}
	data, _ := json.Marshal(want)
	s.mock.ExpectGet("test:k1").SetVal(string(data))

	var got cachedValue
	s.Require().NoError(s.cache.Get(context.Background(), "k1", &got))
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var got cachedValue
	err := s.cache.Get(context.Background(), "k1", &got)
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_NullSentinelIsMiss() {
	s.mock.ExpectGet("test:k1").SetVal(nullSentinel)

	var got cachedValue
	err := s.cache.Get(context.Background(), "k1", &got)
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestSet_UsesDefaultTTL() {
	want := cachedValue{Name: "n"}
	data, _ := json.Marshal(want)
	s.mock.ExpectSet("test:k1", data, 15*time.Minute).SetVal("OK")

	s.Require().NoError(s.cache.Set(context.Background(), "k1", want, 0))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)

	s.Require().NoError(s.cache.Delete(context.Background(), "k1", "k2"))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:k1").SetVal(1)

	ok, err := s.cache.Exists(context.Background(), "k1")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *CacheTestSuite) TestMGet_SkipsMissesAndNulls() {
	s.mock.ExpectMGet("test:k1", "test:k2", "test:k3").SetVal([]interface{}{"v1", nil, nullSentinel})

	got, err := s.cache.MGet(context.Background(), []string{"k1", "k2", "k3"})
	s.Require().NoError(err)
	s.Equal(map[string][]byte{"k1": []byte("v1")}, got)
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	want := cachedValue{Name: "hit"}
	data, _ := json.Marshal(want)
	s.mock.ExpectGet("test:k1").SetVal(string(data))

	var got cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &got, time.Minute, func(ctx context.Context) (interface{}, error) {
		s.Fail("loader should not run on a cache hit")
		return nil, nil
	})
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndPopulates() {
	loaded := cachedValue{Name: "loaded", Count: 1}
	data, _ := json.Marshal(loaded)

	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", data, time.Minute).SetVal("OK")

	var got cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &got, time.Minute, func(ctx context.Context) (interface{}, error) {
		return loaded, nil
	})
	s.Require().NoError(err)
	s.Equal(loaded, got)
}

func (s *CacheTestSuite) TestGetOrSet_NilResultCachesNullMarker() {
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", nullSentinel, 30*time.Second).SetVal("OK")

	var got cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &got, time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderErrorPropagates() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var got cachedValue
	err := s.cache.GetOrSet(context.Background(), "k1", &got, time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, assert.AnError
	})
	s.Equal(assert.AnError, err)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
