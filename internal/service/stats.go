package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"duestrack/internal/clients"
	"duestrack/internal/domain"
	"duestrack/internal/repository"
)

// ScopeAll aggregates over every department.
const ScopeAll = "all"

type Breakdown struct {
	PayableCount     int     `json:"payable_count"`
	PayableAmount    float64 `json:"payable_amount"`
	NonPayableCount  int     `json:"non_payable_count"`
	NonPayableAmount float64 `json:"non_payable_amount"`
	TotalCount       int     `json:"total_count"`
	TotalAmount      float64 `json:"total_amount"`
}

type Stats struct {
	Scope         string    `json:"scope"`
	TotalCount    int       `json:"total_count"`
	PendingAmount float64   `json:"pending_amount"`
	Breakdown     Breakdown `json:"breakdown"`
}

// Aggregate reduces a record set to per-scope dues figures. Pure: an empty
// input yields all zeroes, and a record lands in exactly one category
// bucket.
func Aggregate(records []domain.Due, scope string) Stats {
	st := Stats{Scope: scope}

	for _, d := range records {
		if scope != ScopeAll && d.Department != scope {
			continue
		}

		st.TotalCount++
		st.Breakdown.TotalCount++
		st.Breakdown.TotalAmount += d.Amount

		if d.Status == domain.StatusPending {
			st.PendingAmount += d.Amount
		}

		if d.Category == domain.CategoryPayable {
			st.Breakdown.PayableCount++
			st.Breakdown.PayableAmount += d.Amount
		} else {
			st.Breakdown.NonPayableCount++
			st.Breakdown.NonPayableAmount += d.Amount
		}
	}

	return st
}

type StatsService struct {
	store DueStore
	redis *clients.RedisClient
	ttl   time.Duration
}

func NewStatsService(store DueStore, redis *clients.RedisClient, ttl time.Duration) *StatsService {
	return &StatsService{
		store: store,
		redis: redis,
		ttl:   ttl,
	}
}

func statsCacheKey(scope string) string {
	return "stats:" + scope
}

// Stats computes the dues figures the caller is allowed to see. Without an
// explicit department, cross-department readers get the institution-wide
// view and everyone else their own department. Snapshots are cached
// briefly; dashboards tolerate that much skew.
func (s *StatsService) Stats(ctx context.Context, p domain.Principal, department string) (*Stats, error) {
	scope := department
	if scope == "" {
		if d := CanPerform(p, ActionReadAllDues, nil); d.Allowed {
			scope = ScopeAll
		} else {
			scope = p.Department
		}
	} else if !CanReadDepartment(p, scope) {
		return nil, &domain.AuthorizationError{Reason: ReasonCrossDepartment}
	}

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, statsCacheKey(scope)); err == nil {
			var cached Stats
			if jerr := json.Unmarshal([]byte(data), &cached); jerr == nil {
				return &cached, nil
			}
		}
	}

	var filter repository.DuesFilter
	if scope != ScopeAll {
		dept := scope
		filter.Department = &dept
	}

	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	st := Aggregate(records, scope)

	if s.redis != nil {
		if data, jerr := json.Marshal(st); jerr == nil {
			if err := s.redis.Set(ctx, statsCacheKey(scope), string(data), s.ttl); err != nil {
				log.Printf("[STATS] cache set error: %v", err)
			}
		}
	}

	return &st, nil
}

// InvalidateStats drops the cached snapshots a mutation in the given
// department makes stale: the department's own and the institution-wide one.
func (s *StatsService) InvalidateStats(ctx context.Context, department string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey(department), statsCacheKey(ScopeAll)); err != nil {
		log.Printf("[STATS] cache invalidate error: %v", err)
	}
}
