package app_test

import (
	"context"
	"errors"
	"testing"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/infra/memory"
)

func TestResolveCreatesParticipantOnFirstSight(t *testing.T) {
	ctx := context.Background()
	profiles := app.NewProfileService(memory.NewStore(), nil)

	id := &domain.Identity{UserID: "u1", Email: "u1@example.test", DisplayName: "Ada"}
	first, err := profiles.Resolve(ctx, id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.Role != domain.RoleParticipant || first.Email != "u1@example.test" {
		t.Fatalf("unexpected profile %+v", first)
	}

	if err := profiles.SetRole(ctx, "u1", domain.RoleCoordinator); err != nil {
		t.Fatalf("set role: %v", err)
	}
	again, err := profiles.Resolve(ctx, id)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.Role != domain.RoleCoordinator {
		t.Fatalf("existing profile must be returned unchanged, got role %q", again.Role)
	}
}

func TestResolveSignedOutAndLookupFailure(t *testing.T) {
	ctx := context.Background()

	p, err := app.NewProfileService(memory.NewStore(), nil).Resolve(ctx, nil)
	if p != nil || err != nil {
		t.Fatalf("nil identity should resolve to nil, got %v %v", p, err)
	}

	_, err = app.NewProfileService(brokenStore{}, nil).Resolve(ctx, &domain.Identity{UserID: "u1"})
	if !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestConcurrentFirstSignInWritesSameProfile(t *testing.T) {
	ctx := context.Background()
	store := newFirstSightStore(2)
	profiles := app.NewProfileService(store, nil)
	id := &domain.Identity{UserID: "u1", Email: "u1@example.test"}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := profiles.Resolve(ctx, id)
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	if n := store.puts.Load(); n != 2 {
		t.Fatalf("both first sign-ins should write the default profile, got %d writes", n)
	}
	got, err := profiles.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Role != domain.RoleParticipant || got.Email != "u1@example.test" {
		t.Fatalf("expected the default participant profile, got %+v", got)
	}
}

func TestProfileUpdatesAndCoordinators(t *testing.T) {
	ctx := context.Background()
	profiles := app.NewProfileService(memory.NewStore(), nil)
	for _, uid := range []string{"u1", "c1", "c2"} {
		if _, err := profiles.Resolve(ctx, &domain.Identity{UserID: uid}); err != nil {
			t.Fatalf("resolve %s: %v", uid, err)
		}
	}
	_ = profiles.SetRole(ctx, "c1", domain.RoleCoordinator)
	_ = profiles.SetRole(ctx, "c2", domain.RoleCoordinator)

	coords, err := profiles.Coordinators(ctx)
	if err != nil {
		t.Fatalf("coordinators: %v", err)
	}
	if len(coords) != 2 || coords[0].UserID != "c1" || coords[1].UserID != "c2" {
		t.Fatalf("unexpected coordinators %+v", coords)
	}

	if _, err := profiles.UpdateDisplayName(ctx, "u1", app.DisplayNameInput{DisplayName: "   "}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	updated, err := profiles.UpdateDisplayName(ctx, "u1", app.DisplayNameInput{DisplayName: " Grace "})
	if err != nil || updated.DisplayName != "Grace" {
		t.Fatalf("update display name: %+v %v", updated, err)
	}

	if err := profiles.SetRole(ctx, "u1", "admin"); !domain.IsValidation(err) {
		t.Fatalf("expected invalid role rejected, got %v", err)
	}
	if err := profiles.SetRole(ctx, "ghost", domain.RoleCoordinator); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
