package authservice

import (
	"log/slog"
	"time"

	httpadapter "stackit/contexts/identity-access/auth-service/adapters/http"
	"stackit/contexts/identity-access/auth-service/adapters/memory"
	"stackit/contexts/identity-access/auth-service/adapters/security"
	"stackit/contexts/identity-access/auth-service/application"
	"stackit/contexts/identity-access/auth-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Users       ports.UserRepository
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenIssuer
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	AdminEmails []string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Users:       deps.Users,
		Hasher:      deps.Hasher,
		Tokens:      deps.Tokens,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		AdminEmails: deps.AdminEmails,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(secret string, ttl time.Duration, adminEmails []string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Users:       store,
		Hasher:      security.BcryptHasher{},
		Tokens:      security.NewJWTIssuer(secret, ttl, store),
		Clock:       store,
		IDGen:       store,
		AdminEmails: adminEmails,
		Logger:      logger,
	})
	module.Store = store
	return module
}
