package query

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/cache"
	"github.com/ctfhub/ctf-community-hub/pkg/logger"
)

// queryStore - хранилище в памяти для тестов обработчиков запросов.
type queryStore struct {
	solves   []scoring.SolveRecord
	stats    map[shared.CompetitionID]scoring.CompetitionStats
	infos    map[shared.CompetitionID]scoring.CompetitionInfo
	bounds   scoring.SolveTimeBounds
	activity []scoring.CompetitionActivity
}

func (s *queryStore) FindSolves(_ context.Context, filter scoring.SolveFilter) ([]scoring.SolveRecord, error) {
	out := make([]scoring.SolveRecord, 0, len(s.solves))
	for i := range s.solves {
		if filter.Matches(&s.solves[i]) {
			out = append(out, s.solves[i])
		}
	}
	return out, nil
}

func (s *queryStore) CompetitionStats(_ context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionStats, error) {
	out := make(map[shared.CompetitionID]scoring.CompetitionStats)
	for _, id := range ids {
		if st, ok := s.stats[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (s *queryStore) CompetitionsByID(_ context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionInfo, error) {
	out := make(map[shared.CompetitionID]scoring.CompetitionInfo)
	for _, id := range ids {
		if info, ok := s.infos[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (s *queryStore) UserSolveHistory(_ context.Context, userID shared.UserID, competitionID shared.CompetitionID) ([]scoring.SolveRecord, error) {
	out := make([]scoring.SolveRecord, 0)
	for i := range s.solves {
		rec := &s.solves[i]
		if competitionID != "" && rec.CompetitionID != competitionID {
			continue
		}
		for _, id := range rec.UserIDs {
			if id == userID {
				out = append(out, *rec)
				break
			}
		}
	}
	return out, nil
}

func (s *queryStore) UserJoinedAt(context.Context, shared.UserID) (time.Time, error) {
	return time.Time{}, shared.ErrNotFound
}

func (s *queryStore) SolveTimeBounds(context.Context) (scoring.SolveTimeBounds, error) {
	return s.bounds, nil
}

func (s *queryStore) CompetitionActivity(context.Context) ([]scoring.CompetitionActivity, error) {
	return s.activity, nil
}

// queryRetries - пустое хранилище записей повторных попыток.
type queryRetries struct{}

func (queryRetries) FindRetry(context.Context, shared.CompetitionID) (*scoring.WeightRetryRecord, error) {
	return nil, shared.ErrNotFound
}

func record(comp shared.CompetitionID, name string, points shared.Points, at time.Time, users ...shared.UserID) scoring.SolveRecord {
	return scoring.SolveRecord{
		CompetitionID: comp,
		Challenge: &scoring.ChallengeInfo{
			Name:       name,
			Category:   "web",
			Points:     points,
			SolveCount: 5,
		},
		ChallengeRef: name,
		UserIDs:      users,
		SolvedAt:     at,
	}
}

// newQueryService собирает сервис очков поверх тестового хранилища.
// Кеш закрывается вместе с тестом.
func newQueryService(t *testing.T, store *queryStore) *scores.Service {
	t.Helper()
	scoreCache := cache.New(cache.Config{SweepInterval: 0})
	t.Cleanup(scoreCache.Close)
	log := logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
	return scores.New(store, queryRetries{}, scoreCache, log)
}

func fourUserStore() *queryStore {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &queryStore{
		solves: []scoring.SolveRecord{
			record("ctf-a", "c1", 400, at, "alice"),
			record("ctf-a", "c2", 300, at.Add(time.Hour), "bob"),
			record("ctf-a", "c3", 200, at.Add(2*time.Hour), "carol"),
			record("ctf-a", "c4", 100, at.Add(3*time.Hour), "dave"),
		},
		stats: map[shared.CompetitionID]scoring.CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]scoring.CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
		bounds: scoring.SolveTimeBounds{First: at, Last: at.Add(3 * time.Hour)},
	}
}

func activityFor(id shared.CompetitionID) scoring.CompetitionActivity {
	return scoring.CompetitionActivity{
		CompetitionID: id,
		Title:         string(id),
		TotalSolves:   4,
		UniqueUsers:   4,
	}
}

func TestScope_ValidateRejectsTwoDimensions(t *testing.T) {
	s := Scope{CompetitionID: "ctf-a", Month: "2026-03"}
	assert.Error(t, s.Validate())

	s = Scope{Month: "2026-03", Year: 2026}
	assert.Error(t, s.Validate())
}

func TestScope_ValidateMonthKey(t *testing.T) {
	assert.NoError(t, (&Scope{Month: "2026-03"}).Validate())
	assert.Error(t, (&Scope{Month: "2026-13"}).Validate())
	assert.Error(t, (&Scope{Month: "march"}).Validate())
}

func TestScope_ValidateYearRange(t *testing.T) {
	assert.NoError(t, (&Scope{Year: 2026}).Validate())
	assert.Error(t, (&Scope{Year: 1999}).Validate())
	assert.Error(t, (&Scope{Year: 2101}).Validate())
}

func TestScope_Filter(t *testing.T) {
	assert.True(t, (&Scope{}).Filter().IsGlobal())

	f := (&Scope{CompetitionID: "ctf-a"}).Filter()
	assert.Equal(t, shared.CompetitionID("ctf-a"), f.CompetitionID)

	f = (&Scope{Month: "2026-03"}).Filter()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), f.To)

	f = (&Scope{Year: 2026}).Filter()
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), f.To)
}

func TestScope_Label(t *testing.T) {
	assert.Equal(t, "all time", (&Scope{}).Label())
	assert.Equal(t, "ctf-a", (&Scope{CompetitionID: "ctf-a"}).Label())
	assert.Equal(t, "2026-03", (&Scope{Month: "2026-03"}).Label())
	assert.Equal(t, "2026", (&Scope{Year: 2026}).Label())
}
