package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

// sessionRepository keeps each session as JSON under "<prefix>session:<id>" and an
// index of a user's session ids under "<prefix>user-sessions:<userID>".
type sessionRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

func NewSessionRepository(client *redislib.Client, prefix string, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redislib.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	ttl := session.TTL(time.Now())
	if ttl <= 0 {
		return domain.Invalidf("session already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	index := r.userKey(session.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), payload, ttl)
		pipe.SAdd(ctx, index, session.ID)
		pipe.Expire(ctx, index, r.ttl)
		return nil
	})
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(id))
		pipe.SRem(ctx, r.userKey(session.UserID), id)
		return nil
	})
	return err
}

func (r *sessionRepository) DeleteForUser(ctx context.Context, userID, keepID string) error {
	index := r.userKey(userID)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		for _, id := range ids {
			if id == keepID {
				continue
			}
			pipe.Del(ctx, r.sessionKey(id))
			pipe.SRem(ctx, index, id)
		}
		return nil
	})
	return err
}

func (r *sessionRepository) sessionKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *sessionRepository) userKey(userID string) string {
	return r.prefix + "user-sessions:" + userID
}
