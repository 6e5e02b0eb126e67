package logging

import (
	"math"
	"strings"
	"sync"
)

// Filter decides whether a record survives and may mutate it in place.
// Filters are composed explicitly as ordered lists, both on the
// pipeline and per sink.
type Filter interface {
	Apply(record *Record) bool
}

// SamplingFilter deterministically thins low-severity volume using
// counter-modulo logic: event N for a severity passes iff
// N mod max(1, round(1/rate)) == 0. ERROR and above always pass.
// Reproducible given a fixed sequence; no randomness involved.
type SamplingFilter struct {
	defaultRate float64
	levelRates  map[Level]float64

	mu       sync.Mutex
	counters map[Level]int
}

// NewSamplingFilter creates a sampling filter. defaultRate applies to
// any severity without an explicit entry in levelRates; 1.0 keeps
// everything.
func NewSamplingFilter(defaultRate float64, levelRates map[Level]float64) *SamplingFilter {
	return &SamplingFilter{
		defaultRate: defaultRate,
		levelRates:  levelRates,
		counters:    make(map[Level]int),
	}
}

// Apply implements Filter.
func (f *SamplingFilter) Apply(record *Record) bool {
	if record.Level >= LevelError {
		return true
	}

	rate := f.defaultRate
	if r, ok := f.levelRates[record.Level]; ok {
		rate = r
	}

	f.mu.Lock()
	f.counters[record.Level]++
	n := f.counters[record.Level]
	f.mu.Unlock()

	modulus := 1
	if rate > 0 {
		modulus = int(math.Round(1 / rate))
	}
	if modulus < 1 {
		modulus = 1
	}
	return n%modulus == 0
}

// securityKeywords flag a message as security-relevant.
var securityKeywords = []string{
	"authentication", "authorization", "login", "logout", "failed",
	"unauthorized", "forbidden", "blocked", "suspicious", "attack",
	"injection", "xss", "csrf", "rate limit", "brute force",
}

// SecurityFilter identifies security-relevant records and enriches
// them: adds the security tag, marks the record as a security event,
// and elevates anything below WARNING. It never drops a record.
type SecurityFilter struct{}

// NewSecurityFilter creates a security filter.
func NewSecurityFilter() *SecurityFilter {
	return &SecurityFilter{}
}

// Apply implements Filter.
func (f *SecurityFilter) Apply(record *Record) bool {
	message := strings.ToLower(record.Message)
	for _, keyword := range securityKeywords {
		if strings.Contains(message, keyword) {
			record.AddTag("security")
			record.SecurityEvent = true
			if record.Level < LevelWarning {
				record.Level = LevelWarning
			}
			break
		}
	}
	return true
}
