package questionservice

import (
	"log/slog"

	httpadapter "stackit/contexts/community-qa/question-service/adapters/http"
	"stackit/contexts/community-qa/question-service/adapters/memory"
	"stackit/contexts/community-qa/question-service/application"
	"stackit/contexts/community-qa/question-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Questions ports.QuestionRepository
	Answers   ports.AnswerRepository
	Tags      ports.TagRepository
	Ledger    ports.Ledger
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Questions: deps.Questions,
		Answers:   deps.Answers,
		Tags:      deps.Tags,
		Ledger:    deps.Ledger,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(ledger ports.Ledger, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Questions: store,
		Answers:   store,
		Tags:      store,
		Ledger:    ledger,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
