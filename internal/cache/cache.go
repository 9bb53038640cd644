// Package cache decorates a store.Gateway with a Redis read-through cache of
// employee records. Writes go straight to the backing store, then bump the
// record's version key and evict the cached record. A read only fills the
// cache if the version is unchanged since before it read the store, so a
// read racing a write never caches the pre-write record.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ptran999/nodebucket/internal/models"
	"github.com/ptran999/nodebucket/internal/store"
)

// versionTTL keeps idle version keys from piling up. It only needs to
// outlive a single read.
const versionTTL = 24 * time.Hour

var errStaleFill = errors.New("record changed during read")

// Gateway wraps a store.Gateway with Redis-backed caching for FindEmployee.
type Gateway struct {
	base   store.Gateway
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New creates a caching gateway. A nil client or a zero TTL disables caching
// but keeps the decorator in place.
func New(base store.Gateway, client *redis.Client, ttl time.Duration, logger *log.Logger) *Gateway {
	if base == nil {
		panic("cache.New: base gateway is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Gateway{base: base, redis: client, ttl: ttl, logger: logger}
}

// Open opens a session on the backing store and wraps it.
func (g *Gateway) Open(ctx context.Context) (store.Session, error) {
	sess, err := g.base.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &session{Session: sess, gw: g}, nil
}

// Ping checks the backing store. Redis health does not affect the result.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.base.Ping(ctx)
}

// Close closes the backing store. The Redis client belongs to the caller.
func (g *Gateway) Close() error {
	return g.base.Close()
}

// UpsertEmployee provisions through the backing store when it supports it
// and evicts the cached record.
func (g *Gateway) UpsertEmployee(ctx context.Context, e models.Employee) error {
	p, ok := g.base.(store.Provisioner)
	if !ok {
		return fmt.Errorf("cache: backing store %T cannot provision employees", g.base)
	}
	if err := p.UpsertEmployee(ctx, e); err != nil {
		return err
	}
	g.evict(ctx, e.EmployeeID)
	return nil
}

type session struct {
	store.Session
	gw *Gateway
}

func (s *session) FindEmployee(ctx context.Context, empID int) (*models.Employee, error) {
	if e, ok := s.gw.load(ctx, empID); ok {
		return e, nil
	}

	ver, fill := s.gw.version(ctx, empID)
	e, err := s.Session.FindEmployee(ctx, empID)
	if err != nil || e == nil {
		return e, err
	}

	if fill {
		s.gw.store(ctx, e, ver)
	}
	return e, nil
}

func (s *session) ReplaceTaskLists(ctx context.Context, empID int, todo, done []models.Task) (bool, error) {
	ok, err := s.Session.ReplaceTaskLists(ctx, empID, todo, done)
	if err != nil {
		return ok, err
	}
	s.gw.evict(ctx, empID)
	return ok, nil
}

func (s *session) AppendTodo(ctx context.Context, empID int, task models.Task) (int64, error) {
	n, err := s.Session.AppendTodo(ctx, empID, task)
	if err != nil {
		return n, err
	}
	s.gw.evict(ctx, empID)
	return n, nil
}

func (g *Gateway) load(ctx context.Context, empID int) (*models.Employee, bool) {
	if g.redis == nil || g.ttl == 0 {
		return nil, false
	}
	key := employeeCacheKey(empID)
	data, err := g.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			g.logger.WithError(err).WithField("key", key).Debug("cache read failed")
			_ = g.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var e models.Employee
	if err := sonic.Unmarshal(data, &e); err != nil {
		_ = g.redis.Del(ctx, key).Err()
		return nil, false
	}
	return &e, true
}

// version reads the record's version before a store read. It reports false
// when the cache is off or unreachable, in which case nothing is filled.
func (g *Gateway) version(ctx context.Context, empID int) (string, bool) {
	if g.redis == nil || g.ttl == 0 {
		return "", false
	}
	ver, err := g.redis.Get(ctx, employeeVersionKey(empID)).Result()
	if err != nil && err != redis.Nil {
		g.logger.WithError(err).Debug("cache version read failed")
		return "", false
	}
	return ver, true
}

// store caches e unless its version moved past ver.
func (g *Gateway) store(ctx context.Context, e *models.Employee, ver string) {
	data, err := sonic.Marshal(e)
	if err != nil {
		return
	}
	key, verKey := employeeCacheKey(e.EmployeeID), employeeVersionKey(e.EmployeeID)

	err = g.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != ver {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, g.ttl)
			return nil
		})
		return err
	}, verKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		g.logger.WithField("empId", e.EmployeeID).Debug("skipped stale cache fill")
	default:
		g.logger.WithError(err).Debug("cache write failed")
	}
}

func (g *Gateway) evict(ctx context.Context, empID int) {
	if g.redis == nil {
		return
	}
	verKey := employeeVersionKey(empID)
	_, err := g.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, versionTTL)
		pipe.Del(ctx, employeeCacheKey(empID))
		return nil
	})
	if err != nil {
		g.logger.WithError(err).WithField("empId", empID).Warn("cache evict failed")
	}
}

func employeeCacheKey(empID int) string {
	return "employee:" + strconv.Itoa(empID)
}

func employeeVersionKey(empID int) string {
	return employeeCacheKey(empID) + ":version"
}

var (
	_ store.Gateway     = (*Gateway)(nil)
	_ store.Provisioner = (*Gateway)(nil)
)
