package bot

import (
	"fmt"
	"time"

	"github.com/mrcodeacademy/enrollbot/internal/config"
	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/telegram"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/helpers"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/middleware"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// App wires the enrollment dialogue, menu actions, and admin commands
// on top of the shared Telegram runtime.
type App struct {
	cfg    *config.Config
	store  *enroll.Store
	states *state.Manager
	reg    *telegram.Registry
}

// New assembles the application: dialogue states are bound to the state
// manager and commands registered before the bot ever starts polling.
func New(cfg *config.Config, store *enroll.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}
	if store == nil {
		return nil, fmt.Errorf("bot: nil store provided")
	}

	a := &App{
		cfg:    cfg,
		store:  store,
		states: state.NewManager(),
		reg:    telegram.NewRegistry(),
	}
	a.bindStates()
	a.registerCommands()
	return a, nil
}

// Registry exposes the command registry, mainly for tests.
func (a *App) Registry() *telegram.Registry {
	return a.reg
}

// States exposes the dialogue state manager, mainly for tests.
func (a *App) States() *state.Manager {
	return a.states
}

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", telegram.Command{
		Handler:     a.handleStart,
		Description: "Main menu",
		Aliases:     []string{"menu"},
	})
	a.reg.RegisterCommand("/seats", telegram.Command{
		Handler:     a.handleSeats,
		Description: "Seats left per group",
		AdminOnly:   true,
	})
	a.reg.RegisterCommand("/version", telegram.Command{
		Handler:     a.handleVersion,
		Description: "Build info",
		Hidden:      true,
	})

	a.reg.RegisterTextAction(btnEnroll, a.startEnroll)
	a.reg.RegisterTextAction(btnSchedule, a.handleSchedule)
	a.reg.RegisterTextAction(btnAsk, a.handleAsk)
	a.reg.RegisterTextAction(btnContacts, a.handleContacts)

	a.reg.SetTextFallback(a.handleUnknown)
}

// TelegramRunOptions builds run options for the shared Telegram runtime.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	rateInterval := time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond

	middlewares := []telegram.Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logging", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
	if rateInterval > 0 {
		middlewares = append(middlewares, telegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: rateInterval,
			}),
		})
	}

	routes := telegram.CommandRoutes(a.reg, telegram.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return helpers.SendText(c, msgUnknownText)
		},
	})
	routes = append(routes, telegram.TextRoutes(a.states, a.reg, telegram.TextRouteOptions{
		StrayContact: a.handleStrayContact,
	})...)

	return telegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: middlewares,
		Routes:      routes,
	}, nil
}

func (a *App) handleStrayContact(c tele.Context) error {
	return helpers.SendKB(c, msgUnknownText, mainMenuKB())
}
