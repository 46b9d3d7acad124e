package services

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig bounds failed logins
type RateLimitConfig struct {
	MaxUsernameFailures int           // Max failed logins per username
	UsernameWindow      time.Duration // Time window for the username limit
	MaxIPFailures       int           // Max failed logins per client IP
	IPWindow            time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUsernameFailures: 5,
		UsernameWindow:      15 * time.Minute,
		MaxIPFailures:       20,
		IPWindow:            1 * time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimitService throttles login attempts after repeated failures. Failures
// are kept in memory, a restart forgets them.
type RateLimitService struct {
	config RateLimitConfig
	clock  Clock

	mu       sync.Mutex
	failures map[string][]time.Time
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(config RateLimitConfig, clock Clock) *RateLimitService {
	return &RateLimitService{
		config:   config,
		clock:    clock,
		failures: make(map[string][]time.Time),
	}
}

func usernameKey(username string) string {
	return "username:" + strings.ToLower(strings.TrimSpace(username))
}

func ipKey(ip string) string {
	return "ip:" + ip
}

// CheckLogin returns a *RateLimitError when the username or the IP has failed too often
func (s *RateLimitService) CheckLogin(username, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if username != "" {
		if count, oldest := s.count(usernameKey(username), s.config.UsernameWindow, now); count >= s.config.MaxUsernameFailures {
			retryAfter := oldest.Add(s.config.UsernameWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "username",
			}
		}
	}

	if ip != "" {
		if count, oldest := s.count(ipKey(ip), s.config.IPWindow, now); count >= s.config.MaxIPFailures {
			retryAfter := oldest.Add(s.config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts from this address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// count prunes key to window and returns what is left with its oldest entry
func (s *RateLimitService) count(key string, window time.Duration, now time.Time) (int, time.Time) {
	kept := s.failures[key][:0]
	for _, at := range s.failures[key] {
		if now.Sub(at) < window {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(s.failures, key)
		return 0, time.Time{}
	}
	s.failures[key] = kept
	return len(kept), kept[0]
}

// RecordFailure counts a failed login against both the username and the IP
func (s *RateLimitService) RecordFailure(username, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if username != "" {
		key := usernameKey(username)
		s.failures[key] = append(s.failures[key], now)
	}
	if ip != "" {
		s.failures[ipKey(ip)] = append(s.failures[ipKey(ip)], now)
	}
}

// Reset forgets the username's failures after a successful login. The IP's stay.
func (s *RateLimitService) Reset(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, usernameKey(username))
}

// CleanupExpired drops entries older than the longest window and returns how many keys went away
func (s *RateLimitService) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := max(s.config.UsernameWindow, s.config.IPWindow)
	now := s.clock.Now()
	removed := 0
	for key := range s.failures {
		if n, _ := s.count(key, window, now); n == 0 {
			removed++
		}
	}
	return removed
}
