package store

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMemberCRUD(t *testing.T) {
	db := testDB(t)
	ms := NewMemberStore(db)

	m, err := ms.Create("Ada", "🦊", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Name != "Ada" || m.AvatarEmoji != "🦊" || m.IsAdmin {
		t.Errorf("member = %+v", m)
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Ada" {
		t.Fatalf("got = %+v", got)
	}

	updated, err := ms.Update(m.ID, "Ada Jr", "🦉", true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ada Jr" || !updated.IsAdmin {
		t.Errorf("updated = %+v", updated)
	}

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestMemberNameExists(t *testing.T) {
	db := testDB(t)
	ms := NewMemberStore(db)

	m, err := ms.Create("Ada", "", false)
	if err != nil {
		t.Fatal(err)
	}

	exists, err := ms.NameExists("Ada", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("expected Ada to exist")
	}

	// A member's own name does not collide with itself.
	exists, err = ms.NameExists("Ada", m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("member should be excluded from its own check")
	}
}

func TestMemberSortOrder(t *testing.T) {
	db := testDB(t)
	ms := NewMemberStore(db)

	a, _ := ms.Create("Ada", "", false)
	b, _ := ms.Create("Ben", "", false)
	c, _ := ms.Create("Cleo", "", false)

	if err := ms.UpdateSortOrder([]int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	members, err := ms.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 3 {
		t.Fatalf("len = %d", len(members))
	}
	want := []string{"Cleo", "Ada", "Ben"}
	for i, m := range members {
		if m.Name != want[i] {
			t.Errorf("members[%d] = %q, want %q", i, m.Name, want[i])
		}
	}
}

func TestMemberPIN(t *testing.T) {
	db := testDB(t)
	ms := NewMemberStore(db)

	m, err := ms.Create("Ada", "", false)
	if err != nil {
		t.Fatal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := ms.SetPIN(m.ID, string(hash)); err != nil {
		t.Fatalf("set pin: %v", err)
	}

	stored, err := ms.GetPINHash(m.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("1234")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}

	got, _ := ms.GetByID(m.ID)
	if !got.HasPIN {
		t.Error("HasPIN should be true after SetPIN")
	}

	if err := ms.ClearPIN(m.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	stored, err = ms.GetPINHash(m.ID)
	if err != nil {
		t.Fatalf("get cleared pin hash: %v", err)
	}
	if stored != "" {
		t.Error("hash should be empty after ClearPIN")
	}
}
