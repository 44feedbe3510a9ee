package services

import (
	"errors"
	"regexp"
	"testing"

	"railway-backend/models"
)

func TestBookTicketTierSequence(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 2, 1, 2) // 2 confirmed, 2 rac seats, 2 waiting
	svc := NewTicketService(db)

	want := []models.TicketStatus{
		models.StatusConfirmed,
		models.StatusConfirmed,
		models.StatusRAC,
		models.StatusRAC,
		models.StatusWaitingList,
		models.StatusWaitingList,
	}
	for i, status := range want {
		ticket := mustBook(t, svc, train.ID, adults(1))
		if ticket.Status != status {
			t.Errorf("booking %d: status = %s, want %s", i+1, ticket.Status, status)
		}
	}

	_, err := svc.BookTicket(train.ID, adults(1))
	if !errors.Is(err, ErrNoTicketsAvailable) {
		t.Fatalf("booking past capacity: err = %v, want ErrNoTicketsAvailable", err)
	}
}

func TestBookTicketGroupSpillsToRAC(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 2, 2, 0)
	svc := NewTicketService(db)

	// Three berth-needing passengers exceed the confirmed tier but fit
	// confirmed+rac, so the whole group books as rac.
	ticket := mustBook(t, svc, train.ID, adults(3))
	if ticket.Status != models.StatusRAC {
		t.Errorf("group of 3 on a 2-confirmed train: status = %s, want rac", ticket.Status)
	}
}

func TestBookTicketGroupIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 2, 1, 1)
	svc := NewTicketService(db)

	// 6 berth-needing passengers exceed every cumulative tier (2+2+1); the
	// group is rejected as a whole, never split across tiers.
	_, err := svc.BookTicket(train.ID, adults(6))
	if !errors.Is(err, ErrNoTicketsAvailable) {
		t.Fatalf("oversized group: err = %v, want ErrNoTicketsAvailable", err)
	}

	var ticketCount int64
	if err := db.Model(&models.Ticket{}).Where("train_id = ?", train.ID).Count(&ticketCount).Error; err != nil {
		t.Fatalf("failed to count tickets: %v", err)
	}
	if ticketCount != 0 {
		t.Errorf("tickets after rejected booking = %d, want 0", ticketCount)
	}
}

func TestBookTicketConfirmedGroupGetsDistinctBerths(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 3, 1, 2)
	svc := NewTicketService(db)

	ticket := mustBook(t, svc, train.ID, adults(3))
	if ticket.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", ticket.Status)
	}

	seen := map[uint]bool{}
	for _, p := range ticket.Passengers {
		if p.BerthID == nil {
			t.Fatalf("passenger %q has no berth on a confirmed ticket", p.Name)
		}
		if seen[*p.BerthID] {
			t.Fatalf("berth %d assigned twice", *p.BerthID)
		}
		seen[*p.BerthID] = true
	}

	capacity, err := svc.Alloc.GetCapacityCounts(db, train.ID)
	if err != nil {
		t.Fatalf("GetCapacityCounts failed: %v", err)
	}
	if capacity.AvailableConfirmed != 0 {
		t.Errorf("AvailableConfirmed = %d, want 0", capacity.AvailableConfirmed)
	}

	// The next berth-needing passenger tips into rac.
	next := mustBook(t, svc, train.ID, adults(1))
	if next.Status != models.StatusRAC {
		t.Errorf("next booking status = %s, want rac", next.Status)
	}
	if p := next.Passengers[0]; p.BerthID == nil || p.Berth == nil || p.Berth.Type != models.BerthSideLower {
		t.Errorf("rac passenger berth = %+v, want a side_lower", p.Berth)
	}
}

func TestBookTicketChildNeverGetsBerth(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 5, 1, 2)
	svc := NewTicketService(db)

	ticket := mustBook(t, svc, train.ID, []PassengerInput{
		adult("Asha"),
		{Name: "Chotu", Age: 4, Gender: models.GenderMale},
	})

	for _, p := range ticket.Passengers {
		if p.Name != "Chotu" {
			continue
		}
		if p.NeedsBerth {
			t.Error("passenger under berth age flagged needs_berth")
		}
		if p.BerthID != nil {
			t.Errorf("passenger under berth age assigned berth %d", *p.BerthID)
		}
	}
}

func TestBookTicketSeniorGetsLowerBerth(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 6, 1, 0)
	svc := NewTicketService(db)

	ticket := mustBook(t, svc, train.ID, []PassengerInput{
		{Name: "Dadiji", Age: 65, Gender: models.GenderFemale},
	})
	if ticket.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", ticket.Status)
	}
	p := ticket.Passengers[0]
	if p.Berth == nil || p.Berth.Type != models.BerthLower {
		t.Errorf("senior berth = %+v, want lower", p.Berth)
	}
}

func TestBookTicketPNRShape(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 5, 1, 2)
	svc := NewTicketService(db)

	pnrPattern := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		ticket := mustBook(t, svc, train.ID, adults(1))
		if !pnrPattern.MatchString(ticket.PNR) {
			t.Errorf("pnr %q does not match %s", ticket.PNR, pnrPattern)
		}
		if seen[ticket.PNR] {
			t.Errorf("pnr %q issued twice", ticket.PNR)
		}
		seen[ticket.PNR] = true
	}
}

func TestBookTicketValidation(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 5, 1, 2)
	svc := NewTicketService(db)

	cases := []struct {
		name       string
		passengers []PassengerInput
	}{
		{"empty group", nil},
		{"blank name", []PassengerInput{{Name: "   ", Age: 30, Gender: models.GenderMale}}},
		{"negative age", []PassengerInput{{Name: "Ravi", Age: -1, Gender: models.GenderMale}}},
		{"absurd age", []PassengerInput{{Name: "Ravi", Age: 131, Gender: models.GenderMale}}},
		{"unknown gender", []PassengerInput{{Name: "Ravi", Age: 30, Gender: "robot"}}},
	}
	for _, tc := range cases {
		if _, err := svc.BookTicket(train.ID, tc.passengers); !errors.Is(err, ErrInvalidPassenger) {
			t.Errorf("%s: err = %v, want ErrInvalidPassenger", tc.name, err)
		}
	}
}

func TestBookTicketUnknownTrain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTicketService(db)

	if _, err := svc.BookTicket(12345, adults(1)); !errors.Is(err, ErrTrainNotFound) {
		t.Fatalf("err = %v, want ErrTrainNotFound", err)
	}
}

func TestCancelTicketRestoresCapacity(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 3, 1, 2)
	svc := NewTicketService(db)

	ticket := mustBook(t, svc, train.ID, adults(2))
	berthIDs := make([]uint, 0, 2)
	for _, p := range ticket.Passengers {
		if p.BerthID != nil {
			berthIDs = append(berthIDs, *p.BerthID)
		}
	}
	if len(berthIDs) != 2 {
		t.Fatalf("assigned berths = %d, want 2", len(berthIDs))
	}

	if err := svc.CancelTicket(ticket.ID); err != nil {
		t.Fatalf("CancelTicket failed: %v", err)
	}

	if got := reloadTicket(t, db, ticket.ID).Status; got != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
	for _, id := range berthIDs {
		if b := reloadBerth(t, db, id); !b.IsAvailable {
			t.Errorf("berth %d still unavailable after cancellation", id)
		}
	}

	capacity, err := svc.Alloc.GetCapacityCounts(db, train.ID)
	if err != nil {
		t.Fatalf("GetCapacityCounts failed: %v", err)
	}
	if capacity.AvailableConfirmed != 3 {
		t.Errorf("AvailableConfirmed = %d, want 3", capacity.AvailableConfirmed)
	}
}

func TestCancelTicketIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 2, 1, 2)
	svc := NewTicketService(db)

	first := mustBook(t, svc, train.ID, adults(1))
	second := mustBook(t, svc, train.ID, adults(1))

	if err := svc.CancelTicket(first.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := svc.CancelTicket(first.ID); err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}

	// The second cancel must not release berths still held by others.
	for _, p := range reloadTicket(t, db, second.ID).Passengers {
		if p.BerthID == nil {
			t.Fatal("live passenger lost its berth reference")
		}
		if b := reloadBerth(t, db, *p.BerthID); b.IsAvailable {
			t.Errorf("berth %d of a live ticket became available", b.ID)
		}
	}
}

func TestCancelTicketUnknown(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTicketService(db)

	if err := svc.CancelTicket(98765); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
}

func TestCancelConfirmedCascadesBothTiers(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 1, 1, 2)
	svc := NewTicketService(db)

	confirmed := mustBook(t, svc, train.ID, adults(1))
	rac := mustBook(t, svc, train.ID, adults(2))
	waiting := mustBook(t, svc, train.ID, adults(1))
	backdateTicket(t, db, confirmed.ID, 30)
	backdateTicket(t, db, rac.ID, 20)
	backdateTicket(t, db, waiting.ID, 10)
	if rac.Status != models.StatusRAC || waiting.Status != models.StatusWaitingList {
		t.Fatalf("statuses = %s/%s, want rac/waiting_list", rac.Status, waiting.Status)
	}

	if err := svc.CancelTicket(confirmed.ID); err != nil {
		t.Fatalf("CancelTicket failed: %v", err)
	}

	if got := reloadTicket(t, db, rac.ID).Status; got != models.StatusConfirmed {
		t.Errorf("rac ticket = %s, want confirmed", got)
	}
	// The promoted ticket keeps its side-lower berth, so the waiting ticket
	// stays put until one frees up.
	if got := reloadTicket(t, db, waiting.ID).Status; got != models.StatusWaitingList {
		t.Errorf("waiting ticket = %s, want waiting_list", got)
	}
}

func TestCancelRACPromotesWaiting(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 1, 1, 2)
	svc := NewTicketService(db)

	mustBook(t, svc, train.ID, adults(1)) // confirmed
	rac := mustBook(t, svc, train.ID, adults(2))
	waiting := mustBook(t, svc, train.ID, adults(1))
	if rac.Status != models.StatusRAC || waiting.Status != models.StatusWaitingList {
		t.Fatalf("statuses = %s/%s, want rac/waiting_list", rac.Status, waiting.Status)
	}

	if err := svc.CancelTicket(rac.ID); err != nil {
		t.Fatalf("CancelTicket failed: %v", err)
	}

	promoted := reloadTicket(t, db, waiting.ID)
	if promoted.Status != models.StatusRAC {
		t.Fatalf("waiting ticket = %s, want rac", promoted.Status)
	}
	p := promoted.Passengers[0]
	if p.Berth == nil || p.Berth.Type != models.BerthSideLower {
		t.Errorf("promoted passenger berth = %+v, want side_lower", p.Berth)
	}
}

func TestGetAvailableTickets(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 4, 2, 3)
	svc := NewTicketService(db)

	mustBook(t, svc, train.ID, adults(2))

	out, err := svc.GetAvailableTickets(train.ID)
	if err != nil {
		t.Fatalf("GetAvailableTickets failed: %v", err)
	}
	if out.Total.Confirmed != 4 || out.Total.RAC != 4 || out.Total.WaitingList != 3 {
		t.Errorf("totals = %+v, want 4/4/3", out.Total)
	}
	if out.Available.Confirmed != 2 || out.Available.RAC != 4 || out.Available.WaitingList != 3 {
		t.Errorf("available = %+v, want 2/4/3", out.Available)
	}
	if got, want := len(out.AvailableBerths), 4; got != want {
		t.Errorf("free berth rows = %d, want %d", got, want)
	}

	if _, err := svc.GetAvailableTickets(4242); !errors.Is(err, ErrTrainNotFound) {
		t.Errorf("unknown train: err = %v, want ErrTrainNotFound", err)
	}
}

func TestGetBookedTicketsExcludesCancelled(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 5, 1, 2)
	svc := NewTicketService(db)

	keep := mustBook(t, svc, train.ID, adults(1))
	drop := mustBook(t, svc, train.ID, adults(1))
	if err := svc.CancelTicket(drop.ID); err != nil {
		t.Fatalf("CancelTicket failed: %v", err)
	}

	out, err := svc.GetBookedTickets(train.ID, 1, 20)
	if err != nil {
		t.Fatalf("GetBookedTickets failed: %v", err)
	}
	if out.Count != 1 || len(out.Tickets) != 1 {
		t.Fatalf("count = %d, rows = %d, want 1/1", out.Count, len(out.Tickets))
	}
	if out.Tickets[0].ID != keep.ID {
		t.Errorf("listed ticket %d, want %d", out.Tickets[0].ID, keep.ID)
	}
	if len(out.Tickets[0].Passengers) != 1 {
		t.Errorf("passengers not preloaded: %+v", out.Tickets[0].Passengers)
	}
}

func TestGetBookedTicketsPagination(t *testing.T) {
	db := setupTestDB(t)
	train := createTrain(t, db, 10, 1, 2)
	svc := NewTicketService(db)

	for i := 0; i < 5; i++ {
		ticket := mustBook(t, svc, train.ID, adults(1))
		backdateTicket(t, db, ticket.ID, (5-i)*10)
	}

	page1, err := svc.GetBookedTickets(train.ID, 1, 2)
	if err != nil {
		t.Fatalf("GetBookedTickets page 1 failed: %v", err)
	}
	if page1.Count != 5 || len(page1.Tickets) != 2 {
		t.Fatalf("page 1: count = %d, rows = %d, want 5/2", page1.Count, len(page1.Tickets))
	}

	page3, err := svc.GetBookedTickets(train.ID, 3, 2)
	if err != nil {
		t.Fatalf("GetBookedTickets page 3 failed: %v", err)
	}
	if len(page3.Tickets) != 1 {
		t.Errorf("page 3 rows = %d, want 1", len(page3.Tickets))
	}

	if _, err := svc.GetBookedTickets(31337, 1, 2); !errors.Is(err, ErrTrainNotFound) {
		t.Errorf("unknown train: err = %v, want ErrTrainNotFound", err)
	}
}
