package store

import (
	"context"
	"sort"
	"sync"

	"github.com/agrovision/cattle-api/internal/models"
)

// MemoryUsers keeps users in memory. It backs the API when no MongoDB URI
// is configured and serves as the store double in handler tests. The login
// key check happens under the same lock as the insert, so concurrent
// creates with one key cannot both succeed.
type MemoryUsers struct {
	mu    sync.Mutex
	users []models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{}
}

func (s *MemoryUsers) FindByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].GoogleID != "" && s.users[i].GoogleID == googleID {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) FindByLoginKey(_ context.Context, key string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].EmailOrPhone == key {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) FindByUserID(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].UserID == userID {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].EmailOrPhone == user.EmailOrPhone {
			return ErrDuplicate
		}
		if s.users[i].UserID == user.UserID {
			return ErrDuplicate
		}
		if user.GoogleID != "" && s.users[i].GoogleID == user.GoogleID {
			return ErrDuplicate
		}
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *MemoryUsers) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryUsers) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

// Delete removes a user by id. Only tests need it, to simulate a user
// vanishing between token issuance and lookup.
func (s *MemoryUsers) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].UserID == userID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MemoryReports keeps reports in memory.
type MemoryReports struct {
	mu      sync.Mutex
	reports []models.Report
}

func NewMemoryReports() *MemoryReports {
	return &MemoryReports{}
}

func (s *MemoryReports) Insert(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ReportID == report.ReportID {
			return ErrDuplicate
		}
	}
	s.reports = append(s.reports, *report)
	return nil
}

func (s *MemoryReports) sorted() []models.Report {
	out := make([]models.Report, len(s.reports))
	copy(out, s.reports)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (s *MemoryReports) ListByUser(_ context.Context, userID string) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.sorted() {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryReports) ListAll(_ context.Context) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *MemoryReports) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.reports)), nil
}

func (s *MemoryReports) CountByStatus(_ context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.reports {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryReports) DiseaseDistribution(_ context.Context) ([]models.DiseaseCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, r := range s.reports {
		if r.Status == models.StatusDiseased {
			counts[r.DiseaseName]++
		}
	}
	dist := make([]models.DiseaseCount, 0, len(counts))
	for disease, count := range counts {
		dist = append(dist, models.DiseaseCount{Disease: disease, Count: count})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Disease < dist[j].Disease
	})
	return dist, nil
}

func (s *MemoryReports) Recent(_ context.Context, limit int64) ([]models.ReportSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recent []models.ReportSummary
	for _, r := range s.sorted() {
		if int64(len(recent)) >= limit {
			break
		}
		recent = append(recent, models.ReportSummary{
			ReportID:    r.ReportID,
			UserName:    r.UserName,
			Status:      r.Status,
			DiseaseName: r.DiseaseName,
			Timestamp:   r.Timestamp,
		})
	}
	return recent, nil
}
