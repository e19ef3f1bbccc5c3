package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cisconnect/fleetwatch/config"
	"github.com/cisconnect/fleetwatch/lib"
	"github.com/cisconnect/fleetwatch/lib/models"
	"github.com/cisconnect/fleetwatch/lib/poller"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewHTTPServer exposes the admin surface the chat command handlers map onto:
// guild setup, vehicle CRUD, subscriptions, status queries and a manual poll
// trigger, plus /health and /metrics.
func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service, p *poller.Poller) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc, p)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service, p *poller.Poller) http.Handler {
	ctrl := &controller{log, svc, p}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("fleetwatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Post("/poll", ctrl.runPollCycle)

		r.Route("/guilds/{guild_id}", func(r chi.Router) {
			r.Post("/setup", ctrl.setupGuild)
			r.Get("/", ctrl.guildSummary)

			r.Route("/vehicles", func(r chi.Router) {
				r.Post("/", ctrl.addVehicle)
				r.Get("/", ctrl.listVehicles)
				r.Route("/{vehicle_name}", func(r chi.Router) {
					r.Delete("/", ctrl.removeVehicle)
					r.Get("/status", ctrl.vehicleStatus)
					r.Post("/subscriptions", ctrl.subscribe)
					r.Delete("/subscriptions/{user_id}", ctrl.unsubscribe)
				})
			})

			r.Get("/users/{user_id}/subscriptions", ctrl.mySubscriptions)
		})
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
	p   *poller.Poller
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) rejectServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lib.ErrVehicleNotFound), errors.Is(err, lib.ErrNotSubscribed):
		ctrl.reject(w, http.StatusNotFound, err)
	case errors.Is(err, lib.ErrVehicleExists), errors.Is(err, lib.ErrAlreadySubscribed):
		ctrl.reject(w, http.StatusConflict, err)
	case errors.Is(err, lib.ErrSetupRequired), errors.Is(err, lib.ErrInvalidPollInterval), errors.Is(err, lib.ErrInvalidFeedURL):
		ctrl.reject(w, http.StatusBadRequest, err)
	default:
		ctrl.reject(w, http.StatusInternalServerError, err)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) runPollCycle(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.p.RunPollCycle(r.Context()); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"ok": true})
}

func (ctrl *controller) setupGuild(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	channelID := r.FormValue("channel_id")
	roleID := r.FormValue("maintenance_role_id")

	pollSeconds := 60
	if raw := r.FormValue("poll_seconds"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ctrl.reject(w, http.StatusBadRequest, errors.New("poll_seconds must be an integer"))
			return
		}
		pollSeconds = n
	}

	cfg, err := ctrl.svc.SetupGuild(r.Context(), guildID, channelID, roleID, pollSeconds)
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, GuildConfigView{}.From(cfg))
}

func (ctrl *controller) guildSummary(w http.ResponseWriter, r *http.Request) {
	cfg, vehicles, err := ctrl.svc.GuildSummary(r.Context(), chi.URLParam(r, "guild_id"))
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"config":   GuildConfigView{}.From(cfg),
		"vehicles": FromMany[models.Vehicle, VehicleView](vehicles),
	})
}

func (ctrl *controller) addVehicle(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	feedURL := r.FormValue("feed_url")
	name := r.FormValue("name")

	if feedURL == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("feed_url is required"))
		return
	}
	if name == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	vehicle, err := ctrl.svc.AddVehicle(r.Context(), guildID, feedURL, name)
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, VehicleView{}.From(vehicle))
}

func (ctrl *controller) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := ctrl.svc.ListVehicles(r.Context(), chi.URLParam(r, "guild_id"))
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Vehicle, VehicleView](vehicles))
}

func (ctrl *controller) removeVehicle(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	name := chi.URLParam(r, "vehicle_name")

	if err := ctrl.svc.RemoveVehicle(r.Context(), guildID, name); err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"removed": name})
}

func (ctrl *controller) vehicleStatus(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	name := chi.URLParam(r, "vehicle_name")

	vehicle, state, err := ctrl.svc.VehicleStatus(r.Context(), guildID, name)
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, VehicleStatusView{}.From(vehicle, state))
}

func (ctrl *controller) subscribe(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	name := chi.URLParam(r, "vehicle_name")
	userID := r.FormValue("user_id")

	if userID == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	sub, err := ctrl.svc.Subscribe(r.Context(), guildID, name, userID)
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, SubscriptionView{}.From(sub))
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	name := chi.URLParam(r, "vehicle_name")
	userID := chi.URLParam(r, "user_id")

	if err := ctrl.svc.Unsubscribe(r.Context(), guildID, name, userID); err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"unsubscribed": userID})
}

func (ctrl *controller) mySubscriptions(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild_id")
	userID := chi.URLParam(r, "user_id")

	subs, err := ctrl.svc.MySubscriptions(r.Context(), guildID, userID)
	if err != nil {
		ctrl.rejectServiceErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Subscription, SubscriptionView](subs))
}
