package routes

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/clinicalai/apiv1/assistant"
	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/mailer"
	"github.com/clinicalai/apiv1/middlewares"
	"github.com/clinicalai/apiv1/models"
	"github.com/clinicalai/apiv1/session"
	"github.com/clinicalai/apiv1/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return models.IsSubject(fl.Field().String())
	})
	v.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
		return models.IsMood(fl.Field().String())
	})
	return v
}

type Deps struct {
	Store               *dbhelper.Store
	Sessions            *session.Store
	Assistant           *assistant.Chain
	Mailer              mailer.Mailer
	Logger              *zap.Logger
	JWTSecret           []byte
	AccessTokenDuration time.Duration
	AuthRateLimit       float64
	PublicBaseURL       string
}

type api struct {
	Deps
	auth *middlewares.Auth
}

func CreateRoutes(r *mux.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	a := &api{Deps: d, auth: middlewares.NewAuth(d.JWTSecret, d.Sessions, d.Logger)}

	r.Use(middlewares.AccessLog(d.Logger))
	r.HandleFunc("/healthcheck", a.Healthcheck).Methods(http.MethodGet)

	public := r.PathPrefix("/api/auth").Subrouter()
	public.Use(middlewares.RateLimit(d.AuthRateLimit, d.Logger))
	AuthRouter(public, a)

	private := r.PathPrefix("/api").Subrouter()
	private.Use(func(next http.Handler) http.Handler {
		return a.auth.IsAccessTokenAuthorized(next.ServeHTTP)
	})
	SessionRouter(private, a)
	QuizRouter(private.PathPrefix("/quizzes").Subrouter(), a)
	StudyRouter(private, a)
	VaultRouter(private.PathPrefix("/vault").Subrouter(), a)
	AssistantRouter(private, a)
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.StrictSlash(true)
	CreateRoutes(r, d)
	return r
}

func (a *api) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Ping(r.Context()); err != nil {
		a.Logger.Error("healthcheck failed", zap.Error(err))
		http.Error(w, utils.GENERIC_SERVER_ERROR, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func identity(r *http.Request) middlewares.Identity {
	id, _ := middlewares.IdentityFrom(r.Context())
	return id
}
