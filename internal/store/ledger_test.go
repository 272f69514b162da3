package store

import (
	"errors"
	"testing"
	"time"

	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/points"
)

func TestLedgerInsertAndBalance(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	now := time.Now()

	e, err := ls.Insert(kid, 10, "Helped with groceries", &admin, now)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if e.Amount != 10 || e.Reason != "Helped with groceries" {
		t.Errorf("entry = %+v", e)
	}
	if e.CreatedBy == nil || *e.CreatedBy != admin {
		t.Error("created_by not recorded")
	}

	if _, err := ls.Insert(kid, -4, "Left dishes out", &admin, now); err != nil {
		t.Fatalf("insert debit: %v", err)
	}

	balance, err := ls.Balance(kid)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 6 {
		t.Errorf("balance = %d, want 6", balance)
	}
}

func TestLedgerInsertRejectsZeroAmount(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)

	_, err := ls.Insert(kid, 0, "nothing", nil, time.Now())
	if !errors.Is(err, points.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerBalanceMayGoNegative(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	// Admin corrections are not floor-checked.
	if _, err := ls.Insert(kid, -15, "Broke a window", &admin, time.Now()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	balance, err := ls.Balance(kid)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != -15 {
		t.Errorf("balance = %d, want -15", balance)
	}
}

func TestLedgerListByMemberNewestFirst(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)

	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		if _, err := ls.Insert(kid, i, "entry", nil, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	entries, err := ls.ListByMember(kid, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Amount != 3 || entries[1].Amount != 2 {
		t.Errorf("order = %d, %d, want 3, 2", entries[0].Amount, entries[1].Amount)
	}
}

func TestLedgerAllBalances(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	ada := seedMember(t, db, "Ada", false)
	ben := seedMember(t, db, "Ben", false)
	seedMember(t, db, "Cleo", false) // no entries

	now := time.Now()
	if _, err := ls.Insert(ada, 20, "x", nil, now); err != nil {
		t.Fatal(err)
	}
	if _, err := ls.Insert(ada, -5, "y", nil, now); err != nil {
		t.Fatal(err)
	}
	if _, err := ls.Insert(ben, 30, "z", nil, now); err != nil {
		t.Fatal(err)
	}

	balances, err := ls.AllBalances()
	if err != nil {
		t.Fatalf("all balances: %v", err)
	}
	if len(balances) != 3 {
		t.Fatalf("len = %d, want 3", len(balances))
	}
	if balances[0].MemberName != "Ben" || balances[0].Balance != 30 {
		t.Errorf("first = %+v, want Ben with 30", balances[0])
	}
	if balances[1].MemberName != "Ada" || balances[1].TotalEarned != 20 || balances[1].TotalSpent != 5 || balances[1].Balance != 15 {
		t.Errorf("second = %+v", balances[1])
	}
	if balances[2].MemberName != "Cleo" || balances[2].Balance != 0 {
		t.Errorf("third = %+v, want Cleo with 0", balances[2])
	}
}

func selfScoreDraft(memberID int64, label string, pts int, at time.Time) *model.LedgerEntry {
	return &model.LedgerEntry{
		MemberID:  memberID,
		Amount:    pts,
		Reason:    points.SelfScoreReason(label),
		CreatedBy: &memberID,
		CreatedAt: at,
	}
}

func TestSelfScoreInsertDuplicate(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)

	now := time.Now().UTC()
	if _, err := ls.SelfScoreInsert(selfScoreDraft(kid, "Made bed", 2, now), 5); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	_, err := ls.SelfScoreInsert(selfScoreDraft(kid, "Made bed", 2, now.Add(time.Minute)), 5)
	denied, ok := points.AsDenied(err)
	if !ok {
		t.Fatalf("err = %v, want DeniedError", err)
	}
	if denied.Reason != points.DenyAlreadyClaimedToday {
		t.Errorf("reason = %q, want %q", denied.Reason, points.DenyAlreadyClaimedToday)
	}

	// Nothing extra was written.
	balance, _ := ls.Balance(kid)
	if balance != 2 {
		t.Errorf("balance = %d, want 2", balance)
	}
}

func TestSelfScoreInsertDailyLimit(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)

	now := time.Now().UTC()
	labels := []string{"a", "b", "c", "d", "e"}
	for i, label := range labels {
		if _, err := ls.SelfScoreInsert(selfScoreDraft(kid, label, 1, now.Add(time.Duration(i)*time.Minute)), 5); err != nil {
			t.Fatalf("claim %q: %v", label, err)
		}
	}

	_, err := ls.SelfScoreInsert(selfScoreDraft(kid, "f", 1, now.Add(time.Hour)), 5)
	denied, ok := points.AsDenied(err)
	if !ok {
		t.Fatalf("err = %v, want DeniedError", err)
	}
	if denied.Reason != points.DenyDailyLimitReached {
		t.Errorf("reason = %q, want %q", denied.Reason, points.DenyDailyLimitReached)
	}
}

func TestSelfScoreLimitIgnoresOtherProvenance(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	now := time.Now().UTC()

	// Admin awards do not count toward the self-score cap.
	for i := 0; i < 6; i++ {
		if _, err := ls.Insert(kid, 1, "chore", &admin, now); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := ls.SelfScoreInsert(selfScoreDraft(kid, "Made bed", 2, now), 5); err != nil {
		t.Fatalf("claim should pass: %v", err)
	}
}

func TestSelfScoreNextDayResets(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	kid := seedMember(t, db, "Ada", false)

	day1 := time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	if _, err := ls.SelfScoreInsert(selfScoreDraft(kid, "Made bed", 2, day1), 5); err != nil {
		t.Fatalf("day one: %v", err)
	}
	if _, err := ls.SelfScoreInsert(selfScoreDraft(kid, "Made bed", 2, day2), 5); err != nil {
		t.Fatalf("day two should pass: %v", err)
	}
}
