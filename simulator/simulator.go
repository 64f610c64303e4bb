package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimConfig controls the shape of the generated load.
type SimConfig struct {
	NumUsers       int
	SimulationTime time.Duration
	// Frequencies are events per user per hour.
	MessageFrequency float64
	ReplyFrequency   float64
	EditFrequency    float64
	ReadFrequency    float64
	BaseURL          string
}

// SimulationStats aggregates outcomes across all workers.
type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalMessages   int
	TotalReplies    int
	TotalEdits      int
	TotalReads      int
	Latencies       []time.Duration
}

// SimulatedUser is one registered account driving traffic.
type SimulatedUser struct {
	ID       uuid.UUID
	Username string
	Email    string
	Token    string
	// Messages this user sent, candidates for edits.
	Sent []uuid.UUID
	// Messages this user received, candidates for replies and reads.
	Received []uuid.UUID
}

// Simulator drives the HTTP API with a population of simulated users.
type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser
	client *http.Client
	mu     sync.RWMutex
}

func New(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime: time.Now(),
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run registers the user base and then generates traffic until the context
// expires.
func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Creating %d users...", s.config.NumUsers)
	if err := s.createUsers(ctx); err != nil {
		return fmt.Errorf("failed to create users: %v", err)
	}

	var wg sync.WaitGroup
	for _, user := range s.users {
		wg.Add(1)
		go func(u *SimulatedUser) {
			defer wg.Done()
			s.simulateUser(ctx, u)
		}(user)
	}
	wg.Wait()
	return nil
}

func (s *Simulator) createUsers(ctx context.Context) error {
	for i := 0; i < s.config.NumUsers; i++ {
		username := fmt.Sprintf("simuser%d", i)
		email := fmt.Sprintf("simuser%d@example.com", i)
		password := fmt.Sprintf("simpassword%d", i)

		var registered struct {
			ID uuid.UUID `json:"id"`
		}
		err := s.post(ctx, "", "/user/register", map[string]string{
			"username": username,
			"email":    email,
			"password": password,
		}, &registered)
		if err != nil {
			return err
		}

		var login struct {
			Success bool   `json:"success"`
			Token   string `json:"token"`
		}
		err = s.post(ctx, "", "/user/login", map[string]string{
			"email":    email,
			"password": password,
		}, &login)
		if err != nil {
			return err
		}
		if !login.Success {
			return fmt.Errorf("login failed for %s", username)
		}

		s.users = append(s.users, &SimulatedUser{
			ID:       registered.ID,
			Username: username,
			Email:    email,
			Token:    login.Token,
		})

		// Stay under the engine's comfortable request rate during setup.
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// simulateUser loops on a per-user event clock, picking an action weighted by
// the configured frequencies.
func (s *Simulator) simulateUser(ctx context.Context, user *SimulatedUser) {
	total := s.config.MessageFrequency + s.config.ReplyFrequency +
		s.config.EditFrequency + s.config.ReadFrequency
	if total <= 0 {
		return
	}
	interval := time.Duration(float64(time.Hour) / total)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			roll := rand.Float64() * total
			switch {
			case roll < s.config.MessageFrequency:
				s.sendMessage(ctx, user, nil)
			case roll < s.config.MessageFrequency+s.config.ReplyFrequency:
				s.sendReply(ctx, user)
			case roll < s.config.MessageFrequency+s.config.ReplyFrequency+s.config.EditFrequency:
				s.editMessage(ctx, user)
			default:
				s.markRead(ctx, user)
			}
		}
	}
}

func (s *Simulator) pickOther(user *SimulatedUser) *SimulatedUser {
	if len(s.users) < 2 {
		return nil
	}
	for {
		other := s.users[rand.Intn(len(s.users))]
		if other.ID != user.ID {
			return other
		}
	}
}

func (s *Simulator) sendMessage(ctx context.Context, user *SimulatedUser, parentID *uuid.UUID) {
	other := s.pickOther(user)
	if other == nil {
		return
	}

	body := map[string]interface{}{
		"receiverId": other.ID.String(),
		"content":    fmt.Sprintf("hello from %s at %d", user.Username, time.Now().UnixNano()),
	}
	if parentID != nil {
		body["parentId"] = parentID.String()
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := s.post(ctx, user.Token, "/messages", body, &created); err != nil {
		return
	}

	s.mu.Lock()
	user.Sent = append(user.Sent, created.ID)
	other.Received = append(other.Received, created.ID)
	s.mu.Unlock()

	s.stats.mu.Lock()
	if parentID != nil {
		s.stats.TotalReplies++
	} else {
		s.stats.TotalMessages++
	}
	s.stats.mu.Unlock()
}

func (s *Simulator) sendReply(ctx context.Context, user *SimulatedUser) {
	s.mu.RLock()
	if len(user.Received) == 0 {
		s.mu.RUnlock()
		return
	}
	parent := user.Received[rand.Intn(len(user.Received))]
	s.mu.RUnlock()

	s.sendMessage(ctx, user, &parent)
}

func (s *Simulator) editMessage(ctx context.Context, user *SimulatedUser) {
	s.mu.RLock()
	if len(user.Sent) == 0 {
		s.mu.RUnlock()
		return
	}
	target := user.Sent[rand.Intn(len(user.Sent))]
	s.mu.RUnlock()

	err := s.put(ctx, user.Token, "/message", map[string]string{
		"messageId": target.String(),
		"content":   fmt.Sprintf("edited by %s at %d", user.Username, time.Now().UnixNano()),
	})
	if err != nil {
		return
	}

	s.stats.mu.Lock()
	s.stats.TotalEdits++
	s.stats.mu.Unlock()
}

func (s *Simulator) markRead(ctx context.Context, user *SimulatedUser) {
	s.mu.RLock()
	if len(user.Received) == 0 {
		s.mu.RUnlock()
		return
	}
	target := user.Received[rand.Intn(len(user.Received))]
	s.mu.RUnlock()

	err := s.post(ctx, user.Token, "/message/read", map[string]string{
		"messageId": target.String(),
	}, nil)
	if err != nil {
		return
	}

	s.stats.mu.Lock()
	s.stats.TotalReads++
	s.stats.mu.Unlock()
}

func (s *Simulator) post(ctx context.Context, token, path string, body interface{}, out interface{}) error {
	return s.do(ctx, http.MethodPost, token, path, body, out)
}

func (s *Simulator) put(ctx context.Context, token, path string, body interface{}) error {
	return s.do(ctx, http.MethodPut, token, path, body, nil)
}

func (s *Simulator) do(ctx context.Context, method, token, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	s.stats.mu.Lock()
	s.stats.TotalRequests++
	s.stats.Latencies = append(s.stats.Latencies, latency)
	if err != nil || resp.StatusCode >= 400 {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}
	s.stats.mu.Unlock()

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// StatsSnapshot is a point-in-time copy of the collected statistics.
type StatsSnapshot struct {
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalMessages   int
	TotalReplies    int
	TotalEdits      int
	TotalReads      int
}

// GetStats returns a snapshot of the collected statistics.
func (s *Simulator) GetStats() StatsSnapshot {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	return StatsSnapshot{
		StartTime:       s.stats.StartTime,
		TotalRequests:   s.stats.TotalRequests,
		SuccessRequests: s.stats.SuccessRequests,
		FailedRequests:  s.stats.FailedRequests,
		TotalMessages:   s.stats.TotalMessages,
		TotalReplies:    s.stats.TotalReplies,
		TotalEdits:      s.stats.TotalEdits,
		TotalReads:      s.stats.TotalReads,
	}
}
