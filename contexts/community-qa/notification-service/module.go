package notificationservice

import (
	"log/slog"

	httpadapter "stackit/contexts/community-qa/notification-service/adapters/http"
	"stackit/contexts/community-qa/notification-service/adapters/memory"
	"stackit/contexts/community-qa/notification-service/application"
	"stackit/contexts/community-qa/notification-service/application/workers"
	"stackit/contexts/community-qa/notification-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Consumer workers.EventConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Directory  ports.UserDirectory
	Subscriber ports.EventSubscriber
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repository: deps.Repository,
		Directory:  deps.Directory,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		Consumer: workers.EventConsumer{
			Subscriber: deps.Subscriber,
			Service:    service,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(directory ports.UserDirectory, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Directory:  directory,
		Subscriber: subscriber,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
