// Package seed loads YAML fixtures of profiles and lessons into a store.
package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/domain"
)

type Profile struct {
	UserID      string      `yaml:"userId"`
	Email       string      `yaml:"email"`
	DisplayName string      `yaml:"displayName"`
	Role        domain.Role `yaml:"role"`
}

type Lesson struct {
	Title         string             `yaml:"title"`
	Level         domain.LessonLevel `yaml:"level"`
	Content       string             `yaml:"content"`
	Resource      string             `yaml:"resource"`
	CoordinatorID string             `yaml:"coordinatorId"`
}

type Fixtures struct {
	Profiles []Profile `yaml:"profiles"`
	Lessons  []Lesson  `yaml:"lessons"`
}

// Parse decodes fixtures, rejecting unknown keys.
func Parse(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, p := range f.Profiles {
		if p.UserID == "" {
			return Fixtures{}, fmt.Errorf("profile %d: userId is required", i)
		}
		if p.Role != "" && !p.Role.Valid() {
			return Fixtures{}, fmt.Errorf("profile %s: unknown role %q", p.UserID, p.Role)
		}
	}
	return f, nil
}

// Result counts what Apply wrote.
type Result struct {
	Profiles int
	Lessons  int
	Skipped  int
}

// Apply writes fixtures through the services so the usual defaults and
// validation hold. Existing profiles keep their data except for the role; a
// lesson whose title already exists is skipped.
func Apply(ctx context.Context, f Fixtures, profiles *app.ProfileService, lessons *app.LessonService) (Result, error) {
	var res Result
	for _, p := range f.Profiles {
		_, err := profiles.Resolve(ctx, &domain.Identity{UserID: p.UserID, Email: p.Email, DisplayName: p.DisplayName})
		if err != nil {
			return res, fmt.Errorf("seed profile %s: %w", p.UserID, err)
		}
		if p.Role != "" {
			if err := profiles.SetRole(ctx, p.UserID, p.Role); err != nil {
				return res, fmt.Errorf("seed profile %s: %w", p.UserID, err)
			}
		}
		res.Profiles++
	}

	existing, err := lessons.List(ctx)
	if err != nil {
		return res, err
	}
	titles := make(map[string]bool, len(existing))
	for _, l := range existing {
		titles[l.Title] = true
	}
	for _, l := range f.Lessons {
		if titles[l.Title] {
			res.Skipped++
			continue
		}
		_, err := lessons.Create(ctx, l.CoordinatorID, app.NewLesson{
			Title:    l.Title,
			Level:    l.Level,
			Content:  l.Content,
			Resource: l.Resource,
		})
		if err != nil {
			return res, fmt.Errorf("seed lesson %q: %w", l.Title, err)
		}
		titles[l.Title] = true
		res.Lessons++
	}
	return res, nil
}
