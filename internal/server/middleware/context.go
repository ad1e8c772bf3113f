package middleware

import (
	"strconv"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/attested/dossier/pkg/ai"
	"github.com/attested/dossier/pkg/graph"
	"github.com/attested/dossier/pkg/sanctions"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// userIDString matches the requested_by column format on screening runs.
func userIDString(user *AppUser) string {
	return strconv.FormatInt(user.UserID, 10)
}

type App struct {
	DBConn         *pgxpool.Pool
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	S3             *s3.Client
	Sanctions      *sanctions.Client
	Enricher       *graph.Enricher
	AiClient       ai.Client
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
