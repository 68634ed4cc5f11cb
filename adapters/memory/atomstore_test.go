package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/convention"
	"github.com/artpar/typeforge/core/storage"
)

func newType(elementID string, lookup atom.Lookup) *atom.Type {
	return atom.NewType(convention.Shape{
		TypeName: "User",
		Owner:    elementID,
		Fields:   []convention.Field{{Name: "email"}, {Name: "age"}},
		Scope:    convention.Scope{Field: convention.ScopeField, Value: elementID},
	}, "en", lookup)
}

func TestAtomStore(t *testing.T) {
	store := NewAtomStore()
	ctx := context.Background()

	users := newType("e-1", store)
	others := newType("e-2", store)

	a, _ := users.New(map[string]any{"email": "a@b.c", "age": 30})
	b, _ := others.New(map[string]any{"email": "a@b.c"})
	store.Save(ctx, a)
	store.Save(ctx, b)

	got, err := store.Find(ctx, a.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if v, _ := got.Get("email"); v != "a@b.c" {
		t.Errorf("email = %v, want a@b.c", v)
	}

	list, _ := store.List(ctx, users.DefaultScope())
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("List(e-1) = %v, want [%s]", list, a.ID)
	}
	if n, _ := store.Count(ctx, atom.Scope{}); n != 2 {
		t.Errorf("Count(all) = %d, want 2", n)
	}

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Find(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Find after delete error = %v, want storage.ErrNotFound", err)
	}
}

func TestAtomStore_Exists(t *testing.T) {
	store := NewAtomStore()
	ctx := context.Background()

	users := newType("e-1", store)
	a, _ := users.New(map[string]any{"email": "a@b.c", "age": 30})
	store.Save(ctx, a)

	tests := []struct {
		name     string
		scope    atom.Scope
		field    string
		value    any
		exceptID string
		want     bool
	}{
		{"same value", users.DefaultScope(), "email", "a@b.c", "", true},
		{"other value", users.DefaultScope(), "email", "x@b.c", "", false},
		{"self excluded", users.DefaultScope(), "email", "a@b.c", a.ID, false},
		{"other scope", atom.Scope{Field: "element_id", Value: "e-2"}, "email", "a@b.c", "", false},
		{"number", users.DefaultScope(), "age", 30, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := store.Exists(ctx, tt.scope, tt.field, tt.value, tt.exceptID)
			if got != tt.want {
				t.Errorf("Exists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAtomStore_Uniqueness(t *testing.T) {
	store := NewAtomStore()
	ctx := context.Background()

	users := newType("e-1", store)
	a, _ := users.New(map[string]any{"email": "a@b.c"})
	store.Save(ctx, a)

	b, _ := users.New(nil)
	unique, err := b.IsUnique(ctx, "email", "a@b.c")
	if err != nil {
		t.Fatalf("IsUnique failed: %v", err)
	}
	if unique {
		t.Error("IsUnique = true for a taken value")
	}
}
