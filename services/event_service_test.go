package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"speedrun-league-system/models"
)

func testEventService(store *fakeStore, now time.Time) *EventService {
	s := NewEventService(store, store, store)
	s.clock = func() time.Time { return now }
	s.newID = sequentialIDs("id")
	return s
}

func validDefinition(start, end time.Time) EventDefinition {
	return EventDefinition{
		Name: "Winter Cup",
		AllowedCategories: []models.Category{
			models.ConsoleCategory(models.RegionPAL),
			models.EmulatorCategory(models.RegionNTSC, models.PlatformPCEmulator, models.FairnessNormal),
		},
		StartTime: start,
		EndTime:   end,
	}
}

func TestCreateEvent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)

	event, err := svc.CreateEvent(context.Background(), validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.ID == "" || event.Slug != "winter-cup" {
		t.Fatalf("unexpected event identity: id=%q slug=%q", event.ID, event.Slug)
	}
	if len(event.AllowedCategories) != 2 {
		t.Fatalf("allowed categories = %v", event.AllowedCategories)
	}
	if event.State != models.EventActive {
		t.Fatalf("derived state = %s, want active", event.State)
	}
}

func TestCreateEventReportsAllViolations(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)

	_, err := svc.CreateEvent(context.Background(), EventDefinition{
		Name:              "",
		AllowedCategories: nil,
		StartTime:         now,
		EndTime:           now.Add(-time.Hour),
		MaxParticipants:   -1,
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validation.Violations) != 4 {
		t.Fatalf("expected 4 violations, got %v", validation.Violations)
	}
}

func TestCreateEventRejectsInvalidCategory(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)

	def := validDefinition(now.Add(-time.Hour), now.Add(time.Hour))
	def.AllowedCategories = append(def.AllowedCategories, models.Category{
		Region:   models.RegionPAL,
		Platform: models.PlatformConsole,
		Fairness: models.FairnessGlitch,
	})
	_, err := svc.CreateEvent(context.Background(), def)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRegisterParticipant(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}

	participant, err := svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
	if err != nil {
		t.Fatalf("RegisterParticipant: %v", err)
	}
	if participant.CategoryID != "PAL_CONSOLE" {
		t.Fatalf("category id = %q", participant.CategoryID)
	}
	if !participant.RegisteredAt.Equal(now) {
		t.Fatalf("registered at = %v, want %v", participant.RegisteredAt, now)
	}
}

func TestRegisterParticipantUnknownEvent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)

	_, err := svc.RegisterParticipant(context.Background(), "missing", "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegisterParticipantOutsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	upcoming, err := svc.CreateEvent(ctx, validDefinition(now.Add(time.Hour), now.Add(2*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.RegisterParticipant(ctx, upcoming.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError for upcoming event, got %v", err)
	}

	def := validDefinition(now.Add(-2*time.Hour), now.Add(-time.Hour))
	def.Name = "Ended Cup"
	ended, err := svc.CreateEvent(ctx, def)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.RegisterParticipant(ctx, ended.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError for ended event, got %v", err)
	}
}

func TestRegisterParticipantCapacity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	def := validDefinition(now.Add(-time.Hour), now.Add(time.Hour))
	def.MaxParticipants = 1
	event, err := svc.CreateEvent(ctx, def)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL)); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err = svc.RegisterParticipant(ctx, event.ID, "user-2", "luigi64", models.ConsoleCategory(models.RegionPAL))
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError when full, got %v", err)
	}
}

func TestRegisterParticipantConcurrentCapacity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	def := validDefinition(now.Add(-time.Hour), now.Add(time.Hour))
	def.MaxParticipants = 1
	event, err := svc.CreateEvent(ctx, def)
	if err != nil {
		t.Fatal(err)
	}

	const racers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded int
	var rejections []error
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := "user-" + strconv.Itoa(i)
			_, err := svc.RegisterParticipant(ctx, event.ID, userID, userID, models.ConsoleCategory(models.RegionPAL))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			rejections = append(rejections, err)
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("capacity 1 admitted %d participants", succeeded)
	}
	for _, err := range rejections {
		var state *StateError
		if !errors.As(err, &state) {
			t.Fatalf("concurrent rejection should be StateError, got %v", err)
		}
	}
	count, err := store.CountParticipants(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("stored participants = %d", count)
	}
}

func TestRegisterParticipantConcurrentDuplicate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded int
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			var state *StateError
			if !errors.As(err, &state) {
				t.Errorf("concurrent duplicate should be StateError, got %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("same user registered %d times", succeeded)
	}
}

func TestRegisterParticipantCategoryNotAllowed(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64",
		models.EmulatorCategory(models.RegionPAL, models.PlatformMobileEmulator, models.FairnessGlitch))
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError for disallowed category, got %v", err)
	}
}

func TestRegisterParticipantDuplicate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL)); err != nil {
		t.Fatal(err)
	}
	_, err = svc.RegisterParticipant(ctx, event.ID, "user-1", "mario64", models.ConsoleCategory(models.RegionPAL))
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("double registration should be rejected, got %v", err)
	}
}

func TestGetActiveEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := testEventService(newFakeStore(), now)
	ctx := context.Background()

	mk := func(name string, start, end time.Time) {
		def := validDefinition(start, end)
		def.Name = name
		if _, err := svc.CreateEvent(ctx, def); err != nil {
			t.Fatal(err)
		}
	}
	mk("Past", now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	mk("Current", now.Add(-time.Hour), now.Add(time.Hour))
	mk("Future", now.Add(2*time.Hour), now.Add(3*time.Hour))

	active, err := svc.GetActiveEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Name != "Current" {
		t.Fatalf("active events = %+v", active)
	}
}

func TestGetEventStatistics(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := testEventService(store, now)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validDefinition(now.Add(-time.Hour), now.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	for i, user := range []string{"user-1", "user-2", "user-3"} {
		category := models.ConsoleCategory(models.RegionPAL)
		if i == 2 {
			category = models.EmulatorCategory(models.RegionNTSC, models.PlatformPCEmulator, models.FairnessNormal)
		}
		if _, err := svc.RegisterParticipant(ctx, event.ID, user, user, category); err != nil {
			t.Fatal(err)
		}
	}

	subs := testSubmissionService(store, now, nil)
	declared := false
	if _, err := subs.SubmitRun(ctx, event.ID, "user-3",
		models.EmulatorCategory(models.RegionNTSC, models.PlatformPCEmulator, models.FairnessNormal),
		90000, "", &declared); err != nil {
		t.Fatal(err)
	}
	run, err := subs.SubmitRun(ctx, event.ID, "user-1", models.ConsoleCategory(models.RegionPAL), 95000, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := subs.Verify(ctx, run.ID); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.GetEventStatistics(ctx, event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ParticipantCount != 3 {
		t.Fatalf("participant count = %d", stats.ParticipantCount)
	}
	if stats.ParticipantsByCategory["PAL_CONSOLE"] != 2 || stats.ParticipantsByCategory["NTSC_PC_EMULATOR_NORMAL"] != 1 {
		t.Fatalf("per-category counts = %v", stats.ParticipantsByCategory)
	}
	if stats.SubmissionCount != 2 || stats.VerifiedCount != 1 || stats.DisqualifiedCount != 0 {
		t.Fatalf("submission stats = %+v", stats)
	}
}
