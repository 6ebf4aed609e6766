package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
)

type CourseCatalog struct {
	Courses []CourseInput `yaml:"courses"`
}

func ParseCourseCatalog(r io.Reader) (*CourseCatalog, error) {
	var cat CourseCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		if err == io.EOF {
			return &cat, nil
		}
		return nil, fmt.Errorf("decode course catalog: %w", err)
	}
	return &cat, nil
}

func LoadCourseCatalog(path string) (*CourseCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCourseCatalog(f)
}

// Seed inserts every catalog course in one statement. When the table already
// has rows nothing is written unless force is set.
func (s *courseService) Seed(ctx context.Context, cat *CourseCatalog, force bool) (int, error) {
	if cat == nil {
		return 0, nil
	}
	dbc := withCtx(ctx)
	existing, err := s.courseRepo.Count(dbc)
	if err != nil {
		return 0, err
	}
	if existing > 0 && !force {
		s.log.Info("Courses already present, skipping seed", "existing", existing)
		return 0, nil
	}

	rows := make([]*types.Course, 0, len(cat.Courses))
	for i, in := range cat.Courses {
		c, err := BuildCourseFields(in)
		if err != nil {
			return 0, fmt.Errorf("course %d (%q): %w", i+1, in.Title, err)
		}
		rows = append(rows, c)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.courseRepo.Create(dbc, rows); err != nil {
		return 0, err
	}
	s.log.Info("Courses seeded", "count", len(rows), "forced", force)
	return len(rows), nil
}
