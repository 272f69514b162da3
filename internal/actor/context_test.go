package actor

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{MemberID: 7, IsAdmin: true})

	a, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if a.MemberID != 7 || !a.IsAdmin {
		t.Errorf("actor = %+v", a)
	}
	if MemberID(ctx) != 7 {
		t.Errorf("MemberID = %d, want 7", MemberID(ctx))
	}
	if !IsAdmin(ctx) {
		t.Error("IsAdmin = false, want true")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no actor")
	}
	if MemberID(ctx) != 0 {
		t.Errorf("MemberID = %d, want 0", MemberID(ctx))
	}
	if IsAdmin(ctx) {
		t.Error("IsAdmin = true, want false")
	}
}
