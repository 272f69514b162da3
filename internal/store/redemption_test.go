package store

import (
	"errors"
	"testing"
	"time"

	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/points"
)

func TestRedemptionImmediatePath(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)

	if _, err := ls.Insert(kid, 100, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}

	reward, err := rs.Create("Movie night", "", 30, "🎬", false)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if req.Status != model.RedemptionCompleted {
		t.Errorf("status = %q, want completed", req.Status)
	}
	if req.Cost != 30 || req.RewardName != "Movie night" {
		t.Errorf("snapshot = %q/%d", req.RewardName, req.Cost)
	}

	balance, _ := ls.Balance(kid)
	if balance != 70 {
		t.Errorf("balance = %d, want 70", balance)
	}

	entries, _ := ls.ListByMember(kid, 1)
	if len(entries) != 1 || entries[0].Amount != -30 {
		t.Fatalf("expected -30 debit, got %+v", entries)
	}
	if !points.IsRedemption(entries[0].Reason) {
		t.Errorf("debit reason = %q, want redemption provenance", entries[0].Reason)
	}
}

func TestRedemptionApprovalPath(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	if _, err := ls.Insert(kid, 100, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}

	reward, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != model.RedemptionPending {
		t.Fatalf("status = %q, want pending", req.Status)
	}

	// Pending requests hold no points.
	balance, _ := ls.Balance(kid)
	if balance != 100 {
		t.Errorf("balance while pending = %d, want 100", balance)
	}

	decided, err := xs.Approve(req.ID, admin, "have fun", time.Now())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != model.RedemptionApproved {
		t.Errorf("status = %q, want approved", decided.Status)
	}
	if decided.AdminNote != "have fun" {
		t.Errorf("note = %q", decided.AdminNote)
	}
	if decided.DecidedBy == nil || *decided.DecidedBy != admin {
		t.Error("decided_by not recorded")
	}
	if decided.DecidedAt == nil {
		t.Error("decided_at not recorded")
	}

	balance, _ = ls.Balance(kid)
	if balance != 20 {
		t.Errorf("balance after approval = %d, want 20", balance)
	}
}

func TestRedemptionInsufficientBalance(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)

	if _, err := ls.Insert(kid, 10, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}

	reward, err := rs.Create("Movie night", "", 30, "", false)
	if err != nil {
		t.Fatal(err)
	}

	_, err = xs.Create(kid, *reward, time.Now())
	if !errors.Is(err, points.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// Neither a request nor a debit was written.
	requests, _ := xs.ListByMember(kid)
	if len(requests) != 0 {
		t.Errorf("requests = %d, want 0", len(requests))
	}
	balance, _ := ls.Balance(kid)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
}

// The cost captured at request time is what gets debited, even if the
// reward is repriced while the request sits in the queue.
func TestRedemptionSnapshotImmutable(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	if _, err := ls.Insert(kid, 100, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}

	reward, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatal(err)
	}

	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := rs.Update(reward.ID, "Sleepover", "", 50, "", true); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	decided, err := xs.Approve(req.ID, admin, "", time.Now())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Cost != 80 {
		t.Errorf("cost = %d, want snapshot 80", decided.Cost)
	}

	balance, _ := ls.Balance(kid)
	if balance != 20 {
		t.Errorf("balance = %d, want 20", balance)
	}
}

func TestRedemptionRejectMovesNoPoints(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	if _, err := ls.Insert(kid, 100, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	reward, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatal(err)
	}
	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	decided, err := xs.Reject(req.ID, admin, "", time.Now())
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if decided.Status != model.RedemptionRejected {
		t.Errorf("status = %q, want rejected", decided.Status)
	}
	if decided.AdminNote != "Rejected by admin" {
		t.Errorf("note = %q, want default", decided.AdminNote)
	}

	balance, _ := ls.Balance(kid)
	if balance != 100 {
		t.Errorf("balance = %d, want 100", balance)
	}
}

func TestRedemptionDecisionIsTerminal(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	if _, err := ls.Insert(kid, 200, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	reward, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatal(err)
	}
	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := xs.Approve(req.ID, admin, "", time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := xs.Approve(req.ID, admin, "", time.Now()); !errors.Is(err, points.ErrInvalidState) {
		t.Errorf("second approve = %v, want ErrInvalidState", err)
	}
	if _, err := xs.Reject(req.ID, admin, "", time.Now()); !errors.Is(err, points.ErrInvalidState) {
		t.Errorf("reject after approve = %v, want ErrInvalidState", err)
	}

	// Only one debit exists.
	balance, _ := ls.Balance(kid)
	if balance != 120 {
		t.Errorf("balance = %d, want 120", balance)
	}
}

// Approval re-checks the balance; a request made while flush can't be
// granted after the member spends the points elsewhere.
func TestRedemptionApproveRechecksBalance(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)
	admin := seedMember(t, db, "Mom", true)

	if _, err := ls.Insert(kid, 100, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	reward, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatal(err)
	}
	req, err := xs.Create(kid, *reward, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	// Points drained before the admin gets to the queue.
	if _, err := ls.Insert(kid, -50, "spent elsewhere", &admin, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err = xs.Approve(req.ID, admin, "", time.Now())
	if !errors.Is(err, points.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// The request stays pending for a later decision.
	got, _ := xs.GetByID(req.ID)
	if got.Status != model.RedemptionPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestRedemptionListByStatus(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)
	rs := NewRewardStore(db)
	xs := NewRedemptionStore(db)
	kid := seedMember(t, db, "Ada", false)

	if _, err := ls.Insert(kid, 500, "seed", nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	gated, err := rs.Create("Sleepover", "", 80, "", true)
	if err != nil {
		t.Fatal(err)
	}
	instant, err := rs.Create("Candy", "", 5, "", false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := xs.Create(kid, *gated, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := xs.Create(kid, *instant, time.Now()); err != nil {
		t.Fatal(err)
	}

	pending, err := xs.ListByStatus(model.RedemptionPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].RewardName != "Sleepover" {
		t.Errorf("pending = %+v", pending)
	}

	completed, err := xs.ListByStatus(model.RedemptionCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 || completed[0].RewardName != "Candy" {
		t.Errorf("completed = %+v", completed)
	}

	mine, err := xs.ListByMember(kid)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("mine = %d, want 2", len(mine))
	}
}
