package services

import (
	"context"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	users        *UserService
	projects     *ProjectService
	applications *ApplicationService
	reviews      *ReviewService
	visitors     *VisitorService
}

func NewDashboardService(users *UserService, projects *ProjectService, applications *ApplicationService, reviews *ReviewService, visitors *VisitorService) *DashboardService {
	return &DashboardService{
		users:        users,
		projects:     projects,
		applications: applications,
		reviews:      reviews,
		visitors:     visitors,
	}
}

type Overview struct {
	UsersByRole      map[models.Role]int64          `json:"usersByRole"`
	TotalUsers       int64                          `json:"totalUsers"`
	ProjectsByStatus map[models.ProjectStatus]int64 `json:"projectsByStatus"`
	TotalProjects    int64                          `json:"totalProjects"`
	Applications     int64                          `json:"applications"`
	Reviews          int64                          `json:"reviews"`
	VisitsToday      int64                          `json:"visitsToday"`
}

func sum[K comparable](m map[K]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

// Overview runs the independent counts concurrently.
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.users.CountByRole(ctx)
		out.UsersByRole, out.TotalUsers = m, sum(m)
		return err
	})
	g.Go(func() error {
		m, err := s.projects.CountByStatus(ctx)
		out.ProjectsByStatus, out.TotalProjects = m, sum(m)
		return err
	})
	g.Go(func() (err error) {
		out.Applications, err = s.applications.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.Reviews, err = s.reviews.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.VisitsToday, err = s.visitors.VisitsToday(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
