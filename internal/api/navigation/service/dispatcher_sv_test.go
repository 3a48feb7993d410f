package navigationService

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestService(window time.Duration) (*navigationService, *time.Time) {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New(l, window).(*navigationService)
	svc.now = func() time.Time { return current }
	return svc, &current
}

func TestDispatchGuardWindow(t *testing.T) {
	svc, clock := newTestService(2 * time.Second)

	if !svc.Dispatch("transfers") {
		t.Fatal("first dispatch must claim the slot")
	}
	if svc.Dispatch("cart") {
		t.Fatal("dispatch inside the guard window must be dropped")
	}
	if !svc.InProgress() {
		t.Fatal("slot must report in progress during the window")
	}

	*clock = clock.Add(2100 * time.Millisecond)

	if svc.InProgress() {
		t.Fatal("guard must expire after the window")
	}
	if !svc.Dispatch("cart") {
		t.Fatal("dispatch after guard expiry must succeed")
	}
}

func TestDroppedDispatchIsNotQueued(t *testing.T) {
	svc, clock := newTestService(2 * time.Second)

	svc.Dispatch("transfers")
	svc.Dispatch("cart")

	*clock = clock.Add(3 * time.Second)

	// Nothing replays the dropped target; the slot is simply free again.
	if svc.InProgress() {
		t.Fatal("slot must be free, dropped targets are discarded")
	}
	if _, ok := svc.ConsumePending(); ok {
		t.Fatal("dropped dispatch must not become pending")
	}
}

func TestReset(t *testing.T) {
	svc, _ := newTestService(2 * time.Second)

	svc.Dispatch("transfers")
	svc.Reset()

	if svc.InProgress() {
		t.Fatal("reset must release the slot")
	}
	if !svc.Dispatch("cart") {
		t.Fatal("dispatch after reset must succeed")
	}
}

func TestPendingNavigationConsumedOnce(t *testing.T) {
	svc, _ := newTestService(2 * time.Second)

	svc.SavePending("orderDetails")

	page, ok := svc.ConsumePending()
	if !ok || page != "orderDetails" {
		t.Fatalf("pending = %q ok = %v", page, ok)
	}
	if _, ok := svc.ConsumePending(); ok {
		t.Fatal("pending navigation must be consumed exactly once")
	}
}

func TestCurrentExposesInFlightTarget(t *testing.T) {
	svc, clock := newTestService(2 * time.Second)

	if _, ok := svc.Current(); ok {
		t.Fatal("no target must be reported before a dispatch")
	}

	svc.Dispatch("cliq_review")

	page, ok := svc.Current()
	if !ok || page != "cliq_review" {
		t.Fatalf("current = %q ok = %v", page, ok)
	}

	*clock = clock.Add(3 * time.Second)

	if _, ok := svc.Current(); ok {
		t.Fatal("an expired target must not be reported")
	}
}

func TestStashCurrentParksInFlightTarget(t *testing.T) {
	svc, _ := newTestService(2 * time.Second)

	svc.Dispatch("transfers")
	svc.StashCurrent()

	page, ok := svc.ConsumePending()
	if !ok || page != "transfers" {
		t.Fatalf("pending = %q ok = %v", page, ok)
	}
	if _, ok := svc.ConsumePending(); ok {
		t.Fatal("stashed target must replay exactly once")
	}
}

func TestStashCurrentAfterWindowIsNoop(t *testing.T) {
	svc, clock := newTestService(2 * time.Second)

	svc.Dispatch("transfers")
	*clock = clock.Add(3 * time.Second)
	svc.StashCurrent()

	if _, ok := svc.ConsumePending(); ok {
		t.Fatal("an expired target must not be stashed")
	}
}

func TestSavePendingIgnoresEmptyPage(t *testing.T) {
	svc, _ := newTestService(2 * time.Second)

	svc.SavePending("")
	if _, ok := svc.ConsumePending(); ok {
		t.Fatal("empty page must not be saved")
	}
}
