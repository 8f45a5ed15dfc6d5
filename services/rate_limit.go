package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/provisa-fr/provisa_api/dto"
	"github.com/provisa-fr/provisa_api/model"
)

// RateLimitService gates submission attempts per client IP against a
// persisted counter record. Three states per IP: no record yet, counting
// within a rolling window, and blocked. The block (default 2h) outlives the
// counting window (default 1h) so a blocked client cannot resume by merely
// waiting the window out.
//
// Record updates are optimistic: every write is conditioned on the version
// the decision was computed from, and a lost race re-reads and re-decides.
// Concurrent attempts from one IP therefore behave as if serialized, even
// across processes sharing the database.
type RateLimitService struct {
	appContext.DefaultService

	db    *gorm.DB
	cache *RedisService

	maxSubmissions int
	window         time.Duration
	blockDuration  time.Duration
}

const RATE_LIMIT_SVC = "rate_limit_svc"

// casMaxAttempts bounds the re-read loop; contention on one IP beyond this
// means something is broken upstream.
const casMaxAttempts = 32

const blockedCacheKeyPrefix = "ratelimit:blocked:"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.maxSubmissions = 3
	if v := os.Getenv("RATE_LIMIT_MAX_SUBMISSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid RATE_LIMIT_MAX_SUBMISSIONS: %q", v)
		}
		svc.maxSubmissions = n
	}

	svc.window = time.Hour
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW: %q", v)
		}
		svc.window = d
	}

	svc.blockDuration = 2 * time.Hour
	if v := os.Getenv("RATE_LIMIT_BLOCK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_BLOCK: %q", v)
		}
		svc.blockDuration = d
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.db = svc.Service(POSTGRES_SVC).(*PostgresService).Db()

	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.Enabled() {
		svc.cache = redisSvc
	}

	return nil
}

// Admit decides one submission attempt for clientIP at the current time and
// records its cost. A disallowed decision carries the instant the block ends.
func (svc *RateLimitService) Admit(ctx context.Context, clientIP string) (*dto.AdmissionDecision, error) {
	now := time.Now()

	// Fast path: a block we already know about needs no database read.
	if until, ok := svc.cachedBlock(ctx, clientIP); ok && now.Before(until) {
		return blockedDecision(until), nil
	}

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		rec, err := svc.getRecord(ctx, clientIP)
		if err != nil {
			return nil, err
		}

		if rec == nil {
			created, err := svc.createRecord(ctx, clientIP, now)
			if err != nil {
				return nil, err
			}
			if !created {
				// Another request from this IP inserted first; re-read.
				continue
			}
			return &dto.AdmissionDecision{Allowed: true, Remaining: svc.maxSubmissions - 1}, nil
		}

		if rec.BlockedUntil != nil && now.Before(*rec.BlockedUntil) {
			svc.rememberBlock(ctx, clientIP, *rec.BlockedUntil)
			return blockedDecision(*rec.BlockedUntil), nil
		}

		decision, updates := svc.transition(rec, now)

		applied, err := svc.applyUpdate(ctx, rec, updates, now)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue
		}

		if !decision.Allowed && decision.RetryAfter != nil {
			svc.rememberBlock(ctx, clientIP, *decision.RetryAfter)
		}
		return decision, nil
	}

	return nil, fmt.Errorf("rate limit record contention for %s", clientIP)
}

// transition computes the next record state and the matching decision. rec is
// known to exist and not be under an active block.
func (svc *RateLimitService) transition(rec *model.ApplicationRateLimit, now time.Time) (*dto.AdmissionDecision, map[string]interface{}) {
	expiredBlock := rec.BlockedUntil != nil && !now.Before(*rec.BlockedUntil)

	if expiredBlock || now.Sub(rec.LastSubmissionAt) >= svc.window {
		// Window reset: the counter restarts at this attempt.
		return &dto.AdmissionDecision{Allowed: true, Remaining: svc.maxSubmissions - 1},
			map[string]interface{}{
				"submission_count":   1,
				"window_started_at":  now,
				"last_submission_at": now,
				"blocked_until":      nil,
			}
	}

	newCount := rec.SubmissionCount + 1
	if newCount > svc.maxSubmissions {
		blockedUntil := now.Add(svc.blockDuration)
		return blockedDecision(blockedUntil),
			map[string]interface{}{
				"submission_count":   newCount,
				"last_submission_at": now,
				"blocked_until":      blockedUntil,
			}
	}

	return &dto.AdmissionDecision{Allowed: true, Remaining: svc.maxSubmissions - newCount},
		map[string]interface{}{
			"submission_count":   newCount,
			"last_submission_at": now,
		}
}

func (svc *RateLimitService) getRecord(ctx context.Context, clientIP string) (*model.ApplicationRateLimit, error) {
	var rec model.ApplicationRateLimit
	err := svc.db.WithContext(ctx).Where("ip_address = ?", clientIP).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (svc *RateLimitService) createRecord(ctx context.Context, clientIP string, now time.Time) (bool, error) {
	rec := &model.ApplicationRateLimit{
		ID:               uuid.NewString(),
		IPAddress:        clientIP,
		SubmissionCount:  1,
		WindowStartedAt:  now,
		LastSubmissionAt: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := svc.db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return true, nil
	}
	if isDuplicateKey(err) {
		return false, nil
	}
	return false, err
}

// applyUpdate writes the transition conditioned on the version the record
// was read at. A false return means a concurrent attempt won the race.
func (svc *RateLimitService) applyUpdate(ctx context.Context, rec *model.ApplicationRateLimit, updates map[string]interface{}, now time.Time) (bool, error) {
	updates["version"] = rec.Version + 1
	updates["updated_at"] = now

	res := svc.db.WithContext(ctx).
		Model(&model.ApplicationRateLimit{}).
		Where("ip_address = ? AND version = ?", rec.IPAddress, rec.Version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (svc *RateLimitService) cachedBlock(ctx context.Context, clientIP string) (time.Time, bool) {
	if svc.cache == nil {
		return time.Time{}, false
	}

	val, err := svc.cache.Get(ctx, blockedCacheKeyPrefix+clientIP)
	if err != nil {
		log.WithError(err).Debug("Blocked-IP cache read failed")
		return time.Time{}, false
	}
	if val == "" {
		return time.Time{}, false
	}

	until, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false
	}
	return until, true
}

// rememberBlock is best-effort: the database stays the source of truth.
func (svc *RateLimitService) rememberBlock(ctx context.Context, clientIP string, until time.Time) {
	if svc.cache == nil {
		return
	}

	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	if err := svc.cache.Set(ctx, blockedCacheKeyPrefix+clientIP, until.Format(time.RFC3339Nano), ttl); err != nil {
		log.WithError(err).Debug("Blocked-IP cache write failed")
	}
}

func blockedDecision(until time.Time) *dto.AdmissionDecision {
	u := until
	return &dto.AdmissionDecision{Allowed: false, Remaining: 0, RetryAfter: &u}
}
