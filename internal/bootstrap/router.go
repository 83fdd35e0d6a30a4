package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/greendefi-labs/escrow-backend/internal/api/http"
	"github.com/greendefi-labs/escrow-backend/internal/api/http/middleware"
	escrowhttp "github.com/greendefi-labs/escrow-backend/internal/escrow/http"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
	"github.com/greendefi-labs/escrow-backend/internal/pricefeed"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	APIKey         string
	CallbackSecret string
	Escrow         *service.EscrowService
	Prices         *pricefeed.Client
	DB             *pgxpool.Pool
	Redis          *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestID())

	// The oracle callback authenticates with its own shared secret, so
	// the API key gate covers only the client-facing routes.
	client := api.Group("")
	if dep.APIKey != "" {
		client.Use(middleware.APIKey(dep.APIKey))
	}

	escrowHandler := escrowhttp.New(dep.Escrow, dep.Prices, dep.CallbackSecret)
	escrowHandler.Register(client, api)

	return r
}
