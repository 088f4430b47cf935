// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique chat-platform user identifier.
// Solve records reference users by this ID; the core never resolves it to a
// display name (presentation is the callers' concern).
type UserID string

// IsValid checks if the user ID is non-empty.
func (u UserID) IsValid() bool {
	return strings.TrimSpace(string(u)) != ""
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "Validate", ErrInvalidID, "user id cannot be empty")
	}
	return uid, nil
}

// CompetitionID represents a unique CTF event identifier.
type CompetitionID string

// IsValid checks if the competition ID is non-empty.
func (c CompetitionID) IsValid() bool {
	return strings.TrimSpace(string(c)) != ""
}

// String returns the string representation.
func (c CompetitionID) String() string {
	return string(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Scoring Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Category represents a challenge category ("web", "pwn", "crypto", ...).
// Categories are compared case-insensitively after normalization.
type Category string

// Normalize returns the canonical lowercase form of the category.
func (c Category) Normalize() Category {
	return Category(strings.ToLower(strings.TrimSpace(string(c))))
}

// IsValid checks if the category is non-empty after normalization.
func (c Category) IsValid() bool {
	return c.Normalize() != ""
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// CategorySet is an explicit hash set of challenge categories.
// Iteration order is unspecified; callers needing stable output must sort.
type CategorySet map[Category]struct{}

// NewCategorySet creates an empty CategorySet.
func NewCategorySet() CategorySet {
	return make(CategorySet)
}

// Add inserts a normalized category into the set.
func (s CategorySet) Add(c Category) {
	if n := c.Normalize(); n != "" {
		s[n] = struct{}{}
	}
}

// Contains reports whether the set holds the category.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s[c.Normalize()]
	return ok
}

// Len returns the number of distinct categories.
func (s CategorySet) Len() int {
	return len(s)
}

// Sorted returns the categories in ascending lexical order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s CategorySet) Clone() CategorySet {
	out := make(CategorySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Weight represents a competition rating weight. Zero means "unassigned";
// the effective weight used for scoring is produced by the weight resolver.
type Weight float64

// IsAssigned reports whether the weight has been rated by the curator.
func (w Weight) IsAssigned() bool {
	return w > 0
}

// Float64 returns the underlying float value.
func (w Weight) Float64() float64 {
	return float64(w)
}

// Points represents a challenge's raw point value inside its competition.
type Points int

// IsValid checks that the point value is non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// ═══════════════════════════════════════════════════════════════════════════
// Month Key Value Object
// ═══════════════════════════════════════════════════════════════════════════

// MonthKey identifies a monthly ranking universe in "YYYY-MM" form.
// Validation happens at the caller boundary; the core assumes valid keys.
type MonthKey string

var monthKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsValid checks the "YYYY-MM" format.
func (m MonthKey) IsValid() bool {
	return monthKeyRegex.MatchString(string(m))
}

// String returns the string representation.
func (m MonthKey) String() string {
	return string(m)
}

// NewMonthKey creates a MonthKey with validation.
func NewMonthKey(key string) (MonthKey, error) {
	m := MonthKey(strings.TrimSpace(key))
	if !m.IsValid() {
		return "", ErrInvalidMonthKey
	}
	return m, nil
}

// MonthKeyFor returns the MonthKey of the month containing t (UTC).
func MonthKeyFor(t time.Time) MonthKey {
	return MonthKey(t.UTC().Format("2006-01"))
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a 1-based leaderboard position.
type Rank int

// IsValid checks that the rank is positive.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 returns true if the rank is within the top 10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String returns the string representation of the rank.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}
