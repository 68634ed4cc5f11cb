package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/convention"
	"github.com/artpar/typeforge/core/schema"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func userDescriptor(id string) *schema.Descriptor {
	d := schema.NewDescriptor("User", schema.Attributes{
		{Key: "email", Value: schema.TypeString},
		{Key: "name", Value: schema.TypeString},
	})
	d.ID = id
	d.Group = "users"
	d.PrimaryKey = "email"
	d.Validations = schema.Rules{{Key: "validates_presence_of", Value: ":email"}}
	return d
}

func TestSQLiteStore_Elements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := userDescriptor("e-1")
	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		t.Error("Save did not set timestamps")
	}

	got, err := store.Get(ctx, "e-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "User" || got.PrimaryKey != "email" {
		t.Errorf("Get = %s/%s, want User/email", got.Name, got.PrimaryKey)
	}
	if keys := got.Attributes().Keys(); len(keys) != 2 || keys[0] != "email" || keys[1] != "name" {
		t.Errorf("attribute order = %v, want [email name]", keys)
	}
	if got.Fingerprint() != d.Fingerprint() {
		t.Error("stored descriptor fingerprint changed")
	}

	// Update
	got.Name = "Member"
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}
	updated, _ := store.Get(ctx, "e-1")
	if updated.Name != "Member" {
		t.Errorf("Name after update = %q, want Member", updated.Name)
	}
	if !updated.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v != %v", updated.CreatedAt, d.CreatedAt)
	}

	if err := store.Save(ctx, userDescriptor("e-2")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List returned %d descriptors, want 2", len(list))
	}

	if err := store.Delete(ctx, "e-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "e-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "e-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(context.Background(), userDescriptor("")); err == nil {
		t.Error("Save without id should fail")
	}
}

func userType(elementID string, lookup atom.Lookup) *atom.Type {
	return atom.NewType(convention.Shape{
		TypeName: "User",
		Owner:    elementID,
		Fields: []convention.Field{
			{Name: "email", Type: schema.TypeString},
			{Name: "age", Type: schema.TypeInteger},
		},
		Stubs: []string{"password"},
		Scope: convention.Scope{Field: convention.ScopeField, Value: elementID},
	}, "en", lookup)
}

func TestSQLiteStore_Atoms(t *testing.T) {
	store := newTestStore(t)
	atoms := store.Atoms()
	ctx := context.Background()

	users := userType("e-1", atoms)
	others := userType("e-2", atoms)

	a, _ := users.New(map[string]any{"email": "a@b.c", "age": 30, "password": "secret"})
	b, _ := users.New(map[string]any{"email": "b@b.c", "age": 40})
	c, _ := others.New(map[string]any{"email": "a@b.c"})

	for _, r := range []*atom.Record{a, b, c} {
		if err := atoms.Save(ctx, r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := atoms.Find(ctx, a.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.ElementID != "e-1" {
		t.Errorf("ElementID = %q, want e-1", got.ElementID)
	}
	if v, _ := got.Get("email"); v != "a@b.c" {
		t.Errorf("email = %v, want a@b.c", v)
	}
	if _, ok := got.Get("password"); ok {
		t.Error("stub attribute was stored")
	}

	list, err := atoms.List(ctx, users.DefaultScope())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List(e-1) returned %d records, want 2", len(list))
	}

	n, err := atoms.Count(ctx, others.DefaultScope())
	if err != nil || n != 1 {
		t.Errorf("Count(e-2) = (%d, %v), want 1", n, err)
	}
	if n, _ := atoms.Count(ctx, atom.Scope{}); n != 3 {
		t.Errorf("Count(all) = %d, want 3", n)
	}

	if err := atoms.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := atoms.Find(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find after delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Exists(t *testing.T) {
	store := newTestStore(t)
	atoms := store.Atoms()
	ctx := context.Background()

	users := userType("e-1", atoms)
	a, _ := users.New(map[string]any{"email": "a@b.c", "age": 30})
	if err := atoms.Save(ctx, a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

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
		{"unscoped", atom.Scope{}, "email", "a@b.c", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := atoms.Exists(ctx, tt.scope, tt.field, tt.value, tt.exceptID)
			if err != nil {
				t.Fatalf("Exists failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists = %v, want %v", got, tt.want)
			}
		})
	}
}
