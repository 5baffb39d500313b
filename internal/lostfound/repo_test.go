package lostfound

import (
	"context"
	"sync"
	"testing"

	"github.com/kumarchinmay0704/lostfound/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(store.NewTestDB(t))
}

func testItem() Item {
	return Item{
		Status:      StatusLost,
		Name:        "Asha Rao",
		Email:       "asha@example.edu",
		ContactNo:   "9876543210",
		ItemType:    "wallet",
		Location:    "library",
		Date:        "2024-03-01",
		Description: "brown leather wallet",
		Images:      []string{"images-100", "images-101"},
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := User{FullName: "Asha Rao", Email: "asha@example.edu", PasswordHash: "x"}
	if _, err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.ID = ""
	if _, err := repo.CreateUser(ctx, u); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGetUserByEmailUnknown(t *testing.T) {
	repo := newTestRepo(t)

	user, err := repo.GetUserByEmail(context.Background(), "nobody@example.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unknown email, got %+v", user)
	}
}

func TestSubmitAndListItem(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res, err := repo.SubmitItem(ctx, testItem())
	if err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}
	if res.Outcome != OutcomeCreated {
		t.Fatalf("expected created outcome, got %q", res.Outcome)
	}
	if res.Item.ID == "" {
		t.Error("expected generated item id")
	}

	items, err := repo.ListItems(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Status != StatusLost || got.ItemType != "wallet" || got.Location != "library" {
		t.Errorf("item fields not preserved: %+v", got)
	}
	if len(got.Images) != 2 || got.Images[0] != "images-100" || got.Images[1] != "images-101" {
		t.Errorf("image order not preserved: %v", got.Images)
	}
}

func TestSubmitExactDuplicateRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.SubmitItem(ctx, testItem()); err != nil {
		t.Fatalf("first SubmitItem: %v", err)
	}

	res, err := repo.SubmitItem(ctx, testItem())
	if err != nil {
		t.Fatalf("second SubmitItem: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Errorf("expected duplicate outcome, got %q", res.Outcome)
	}

	items, _ := repo.ListItems(ctx, 10, 0)
	if len(items) != 1 {
		t.Errorf("expected 1 stored item after duplicate rejection, got %d", len(items))
	}
}

func TestSubmitOppositeStatusMatchRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	lost := testItem()
	created, err := repo.SubmitItem(ctx, lost)
	if err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}

	found := testItem()
	found.Status = StatusFound
	found.Name = "Vikram Iyer"
	found.Email = "vikram@example.edu"

	res, err := repo.SubmitItem(ctx, found)
	if err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}
	if res.Outcome != OutcomeMatch {
		t.Fatalf("expected match outcome, got %q", res.Outcome)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Matches))
	}
	if res.Matches[0].ID != created.Item.ID {
		t.Errorf("match list does not contain the pre-existing report")
	}

	items, _ := repo.ListItems(ctx, 10, 0)
	if len(items) != 1 {
		t.Errorf("expected match rejection to not insert, got %d items", len(items))
	}
}

// Duplicate check before opposite-match check: a lost report identical to
// an existing lost report is a duplicate even when a found counterpart
// also exists.
func TestDuplicatePrecedesMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	found := testItem()
	found.Status = StatusFound
	if _, err := repo.SubmitItem(ctx, found); err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}

	lost := testItem()
	lost.ItemType = "keys"
	lost.Description = "hostel keys"
	if _, err := repo.SubmitItem(ctx, lost); err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}

	res, err := repo.SubmitItem(ctx, lost)
	if err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}
	if res.Outcome != OutcomeDuplicate {
		t.Errorf("expected duplicate outcome, got %q", res.Outcome)
	}
}

func TestConcurrentIdenticalSubmissions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const workers = 8
	outcomes := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := repo.SubmitItem(ctx, testItem())
			outcomes[i], errs[i] = res.Outcome, err
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if outcomes[i] == OutcomeCreated {
			created++
		}
	}
	if created != 1 {
		t.Errorf("expected exactly 1 created outcome, got %d", created)
	}

	items, err := repo.ListItems(ctx, 50, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected exactly 1 stored item, got %d", len(items))
	}
}

func TestFindMatches(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.SubmitItem(ctx, testItem()); err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}

	matches, err := repo.FindMatches(ctx, "wallet", "brown leather wallet", StatusFound)
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 opposite-status match, got %d", len(matches))
	}

	sameside, err := repo.FindMatches(ctx, "wallet", "brown leather wallet", StatusLost)
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(sameside) != 0 {
		t.Errorf("expected no same-status matches, got %d", len(sameside))
	}
}

func TestDeleteItem(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res, err := repo.SubmitItem(ctx, testItem())
	if err != nil {
		t.Fatalf("SubmitItem: %v", err)
	}

	if err := repo.DeleteItem(ctx, res.Item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	items, _ := repo.ListItems(ctx, 10, 0)
	if len(items) != 0 {
		t.Errorf("expected empty list after delete, got %d items", len(items))
	}

	if err := repo.DeleteItem(ctx, res.Item.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := repo.DeleteItem(ctx, "no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListItemsPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, desc := range []string{"red umbrella", "blue bottle", "grey scarf"} {
		it := testItem()
		it.ItemType = "misc"
		it.Description = desc
		it.Email = "owner@example.edu"
		if _, err := repo.SubmitItem(ctx, it); err != nil {
			t.Fatalf("SubmitItem %q: %v", desc, err)
		}
	}

	page, err := repo.ListItems(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected page of 2, got %d", len(page))
	}

	rest, err := repo.ListItems(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 item on second page, got %d", len(rest))
	}
}

func TestCreateContact(t *testing.T) {
	repo := newTestRepo(t)

	msg, err := repo.CreateContact(context.Background(), ContactMessage{
		Name:        "Asha Rao",
		Email:       "asha@example.edu",
		Phone:       "9876543210",
		Description: "found a bag near the gym",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected generated contact id")
	}
}
