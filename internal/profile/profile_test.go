package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bharatvest/sim-engine/internal/store"
)

func TestSaveMergesAndGet(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	st.Upsert(ctx, "profiles/u1", map[string]any{"avatar": "a.png"}, false)
	svc := NewService(st)

	if err := svc.Save(ctx, "u1", Profile{DisplayName: "  Asha ", Bio: "Long-term investor"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.DisplayName != "Asha" || p.Bio != "Long-term investor" {
		t.Errorf("profile = %+v", p)
	}

	d, _ := st.Get(ctx, "profiles/u1")
	if d.Data["avatar"] != "a.png" {
		t.Error("save should merge, not replace")
	}
}

func TestSaveValidates(t *testing.T) {
	svc := NewService(store.NewMemoryStore())
	ctx := context.Background()
	if err := svc.Save(ctx, "u1", Profile{DisplayName: " "}); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for blank name, got %v", err)
	}
	long := Profile{DisplayName: "A", Bio: strings.Repeat("x", MaxBioLength+1)}
	if err := svc.Save(ctx, "u1", long); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for long bio, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	_, err := NewService(store.NewMemoryStore()).Get(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestRecordSignIn(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st)

	id := Identity{ID: "u1", GoogleID: "g-123", Email: "asha@example.com", DisplayName: "Asha"}
	if err := svc.RecordSignIn(ctx, id); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	d, err := st.Get(ctx, "users/u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Data["email"] != "asha@example.com" || d.Data["googleId"] != "g-123" {
		t.Errorf("user doc = %v", d.Data)
	}

	if err := svc.RecordSignIn(ctx, Identity{}); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile for empty id, got %v", err)
	}
}
