package voteledger

import (
	"log/slog"
	"time"

	httpadapter "stackit/contexts/community-qa/vote-ledger/adapters/http"
	"stackit/contexts/community-qa/vote-ledger/adapters/memory"
	"stackit/contexts/community-qa/vote-ledger/application/commands"
	"stackit/contexts/community-qa/vote-ledger/application/queries"
	"stackit/contexts/community-qa/vote-ledger/domain/entities"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Registry commands.RegistryUseCase
	States   queries.VoteStateUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Posts       ports.PostRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Metrics     ports.LedgerMetrics
	MaxAttempts int
	RetryBase   time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	retry := commands.RetryPolicy{
		MaxAttempts: deps.MaxAttempts,
		BaseDelay:   deps.RetryBase,
	}
	questionLocks := commands.NewKeyedMutex()
	states := queries.VoteStateUseCase{Posts: deps.Posts}
	return Module{
		Handler: httpadapter.Handler{
			Votes: commands.CastVoteUseCase{
				Posts:   deps.Posts,
				Outbox:  deps.Outbox,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Retry:   retry,
				Logger:  deps.Logger,
			},
			Acceptance: commands.AcceptAnswerUseCase{
				Posts:   deps.Posts,
				Outbox:  deps.Outbox,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Retry:   retry,
				Locks:   questionLocks,
				Logger:  deps.Logger,
			},
			States: states,
			Logger: deps.Logger,
		},
		Registry: commands.RegistryUseCase{
			Posts:   deps.Posts,
			Clock:   deps.Clock,
			Metrics: deps.Metrics,
			Retry:   retry,
			Locks:   questionLocks,
			Logger:  deps.Logger,
		},
		States: states,
	}
}

func NewInMemoryModule(seed []entities.Post, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Posts:  store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
