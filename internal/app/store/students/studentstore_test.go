package studentstore_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/rollbook/internal/app/store"
	studentstore "github.com/dalemusser/rollbook/internal/app/store/students"
	"github.com/dalemusser/rollbook/internal/domain/models"
	"github.com/dalemusser/rollbook/internal/testutil"
)

func TestStore_UpsertAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := s.Upsert(ctx, models.Student{Account: "s1", Name: "José", Surname: "Pérez", Group: "A"})
	if err != nil || !created {
		t.Fatalf("Upsert: created=%v err=%v", created, err)
	}
	created, err = s.Upsert(ctx, models.Student{Account: "s1", Name: "Ignored", Group: "B"})
	if err != nil || created {
		t.Fatalf("Upsert(existing): created=%v err=%v", created, err)
	}

	st, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.Name != "José" || st.Group != "B" {
		t.Errorf("got name=%q group=%q", st.Name, st.Group)
	}
	if st.FullNameCI != "jose perez" {
		t.Errorf("FullNameCI: got %q", st.FullNameCI)
	}

	list, err := s.List(ctx, store.StudentFilter{Group: "B"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List: got %d, want 1", len(list))
	}
}

func TestStore_SetGroupMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := s.SetGroup(ctx, "nobody", "A"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
