package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func newCastVoteUseCase(store *memory.Store) CastVoteUseCase {
	return CastVoteUseCase{
		Posts:  store,
		Outbox: store,
		Clock:  fixedClock{now: time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC)},
		IDGen:  store,
		Retry:  RetryPolicy{MaxAttempts: 200, BaseDelay: time.Millisecond},
	}
}

func questionSeed() []entities.Post {
	return []entities.Post{{
		PostID:   "q-1",
		Kind:     entities.PostKindQuestion,
		AuthorID: "author-1",
		IsActive: true,
	}}
}

func TestCastVoteSameDirectionTwiceRetracts(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	first, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if first.VoteScore != 1 || first.VoteState != entities.VoteStateUp {
		t.Fatalf("expected score 1 and state up, got %d %s", first.VoteScore, first.VoteState)
	}

	second, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if err != nil {
		t.Fatalf("second vote failed: %v", err)
	}
	if second.VoteScore != 0 || second.VoteState != entities.VoteStateNone {
		t.Fatalf("expected retraction to score 0, got %d %s", second.VoteScore, second.VoteState)
	}

	post, _ := store.GetPost(ctx, "q-1")
	if len(post.Upvoters) != 0 || len(post.Downvoters) != 0 {
		t.Fatalf("expected voter in neither set, got up=%v down=%v", post.Upvoters, post.Downvoters)
	}
}

func TestCastVoteFlipMovesVoterBetweenSets(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteDown}); err != nil {
		t.Fatalf("down vote failed: %v", err)
	}
	result, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if err != nil {
		t.Fatalf("up vote failed: %v", err)
	}
	if result.VoteScore != 1 || result.VoteState != entities.VoteStateUp {
		t.Fatalf("expected flip to score 1, got %d %s", result.VoteScore, result.VoteState)
	}
	post, _ := store.GetPost(ctx, "q-1")
	if len(post.Downvoters) != 0 || len(post.Upvoters) != 1 {
		t.Fatalf("unexpected sets after flip: up=%v down=%v", post.Upvoters, post.Downvoters)
	}
}

func TestCastVoteByAuthorFailsWithoutMutation(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	before, _ := store.GetPost(ctx, "q-1")
	_, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "author-1", Direction: entities.VoteUp})
	if !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self vote forbidden, got %v", err)
	}
	after, _ := store.GetPost(ctx, "q-1")
	if after.Version != before.Version || after.VoteScore != 0 || len(after.Upvoters) != 0 {
		t.Fatalf("self vote mutated post: before=%+v after=%+v", before, after)
	}
	if len(store.PendingEvents()) != 0 {
		t.Fatalf("expected no events for rejected self vote")
	}
}

func TestCastVoteRejectsMissingInactiveAndWrongKind(t *testing.T) {
	seed := append(questionSeed(), entities.Post{
		PostID:   "q-2",
		Kind:     entities.PostKindQuestion,
		AuthorID: "author-1",
		IsActive: false,
	})
	store := memory.NewStore(seed)
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	cases := []CastVoteCommand{
		{PostID: "missing", VoterID: "voter-a", Direction: entities.VoteUp},
		{PostID: "q-2", VoterID: "voter-a", Direction: entities.VoteUp},
		{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp, Kind: entities.PostKindAnswer},
	}
	for _, cmd := range cases {
		if _, err := uc.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrNotFound) {
			t.Fatalf("expected not found for %+v, got %v", cmd, err)
		}
	}
	if _, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: "sideways"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestCastVoteEmitsVoteAddedOnlyForNetNewUpvote(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	steps := []struct {
		direction entities.VoteDirection
		wantEvent bool
	}{
		{entities.VoteUp, true},    // new upvote
		{entities.VoteUp, false},   // retraction
		{entities.VoteDown, false}, // downvote
		{entities.VoteUp, true},    // flip to up
		{entities.VoteDown, false}, // flip to down
	}
	for i, step := range steps {
		result, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: step.direction})
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if (result.EventID != "") != step.wantEvent {
			t.Fatalf("step %d: expected event=%v, got event id %q", i, step.wantEvent, result.EventID)
		}
	}

	events := store.PendingEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 vote added events, got %d", len(events))
	}
	for _, event := range events {
		if event.EventType != ports.EventTypeVoteAdded {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
		if event.PartitionKey != "q-1" {
			t.Fatalf("expected partition key q-1, got %s", event.PartitionKey)
		}
	}
}

func TestCastVoteConcurrentOppositeVotesAreBothRecorded(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, cmd := range []CastVoteCommand{
		{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp},
		{PostID: "q-1", VoterID: "voter-b", Direction: entities.VoteDown},
	} {
		wg.Add(1)
		go func(cmd CastVoteCommand) {
			defer wg.Done()
			_, err := uc.Execute(ctx, cmd)
			errs <- err
		}(cmd)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote failed: %v", err)
		}
	}

	post, _ := store.GetPost(ctx, "q-1")
	if post.VoteScore != 0 {
		t.Fatalf("expected score 0, got %d", post.VoteScore)
	}
	if post.VoterState("voter-a") != entities.VoteStateUp || post.VoterState("voter-b") != entities.VoteStateDown {
		t.Fatalf("lost a vote: up=%v down=%v", post.Upvoters, post.Downvoters)
	}
}

func TestCastVoteManyConcurrentVotersNoLostUpdates(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	ctx := context.Background()

	const voters = 40
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		direction := entities.VoteUp
		if i%4 == 0 {
			direction = entities.VoteDown
		}
		wg.Add(1)
		go func(voterID string, direction entities.VoteDirection) {
			defer wg.Done()
			_, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: voterID, Direction: direction})
			errs <- err
		}(fmt.Sprintf("voter-%02d", i), direction)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote failed: %v", err)
		}
	}

	post, _ := store.GetPost(ctx, "q-1")
	if len(post.Upvoters) != 30 || len(post.Downvoters) != 10 {
		t.Fatalf("expected 30 up and 10 down, got %d and %d", len(post.Upvoters), len(post.Downvoters))
	}
	if post.VoteScore != 20 {
		t.Fatalf("expected score 20, got %d", post.VoteScore)
	}
	if post.Version != int64(voters)+1 {
		t.Fatalf("expected version %d, got %d", voters+1, post.Version)
	}
}

type alwaysConflictingPosts struct {
	*memory.Store
	saves int
}

func (r *alwaysConflictingPosts) SavePost(context.Context, entities.Post, int64) error {
	r.saves++
	return domainerrors.ErrVersionConflict
}

type countingMetrics struct {
	mu         sync.Mutex
	retries    int
	operations map[string]int
}

func (m *countingMetrics) ObserveLedgerOperation(operation string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.operations == nil {
		m.operations = make(map[string]int)
	}
	m.operations[operation+":"+outcome]++
}

func (m *countingMetrics) ObserveLedgerRetry(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func TestCastVoteSurfacesContentionAfterBoundedRetries(t *testing.T) {
	posts := &alwaysConflictingPosts{Store: memory.NewStore(questionSeed())}
	metrics := &countingMetrics{}
	uc := CastVoteUseCase{
		Posts:   posts,
		Metrics: metrics,
		Retry:   RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}

	_, err := uc.Execute(context.Background(), CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if !errors.Is(err, domainerrors.ErrContention) {
		t.Fatalf("expected contention error, got %v", err)
	}
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected contention to wrap version conflict, got %v", err)
	}
	if errors.Is(err, domainerrors.ErrForbidden) || errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("contention must be distinct from permanent failures: %v", err)
	}
	if posts.saves != 3 {
		t.Fatalf("expected 3 save attempts, got %d", posts.saves)
	}
	if metrics.retries != 3 || metrics.operations["cast_vote:contention"] != 1 {
		t.Fatalf("unexpected metrics: retries=%d operations=%v", metrics.retries, metrics.operations)
	}
}

func TestCastVoteStopsRetryingWhenContextCancelled(t *testing.T) {
	posts := &alwaysConflictingPosts{Store: memory.NewStore(questionSeed())}
	uc := CastVoteUseCase{
		Posts: posts,
		Retry: RetryPolicy{MaxAttempts: 50, BaseDelay: 50 * time.Millisecond},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := uc.Execute(ctx, CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if posts.saves >= 50 {
		t.Fatalf("expected retries to stop early, got %d saves", posts.saves)
	}
}

func TestCastVoteWithoutIDGeneratorKeepsVoteAndSkipsEvent(t *testing.T) {
	store := memory.NewStore(questionSeed())
	uc := newCastVoteUseCase(store)
	uc.IDGen = nil

	result, err := uc.Execute(context.Background(), CastVoteCommand{PostID: "q-1", VoterID: "voter-a", Direction: entities.VoteUp})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if result.VoteScore != 1 || result.EventID != "" {
		t.Fatalf("expected score 1 without event, got %+v", result)
	}
	if len(store.PendingEvents()) != 0 {
		t.Fatalf("expected no event without an id generator")
	}
}

func TestAppendLedgerEventRequiresIDGenerator(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := appendLedgerEvent(context.Background(), store, nil, ports.EventTypeVoteAdded, time.Now(), ports.NotifiablePayload{})
	if !errors.Is(err, errNoEventIDGenerator) {
		t.Fatalf("expected missing generator error, got %v", err)
	}
	if eventID, err := appendLedgerEvent(context.Background(), nil, nil, ports.EventTypeVoteAdded, time.Now(), ports.NotifiablePayload{}); err != nil || eventID != "" {
		t.Fatalf("expected nil outbox to disable emission, got %q, %v", eventID, err)
	}
}
