package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/doubletap-dave/flashloan-engine/internal/config"
	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/engine"
	"github.com/doubletap-dave/flashloan-engine/internal/events"
	"github.com/doubletap-dave/flashloan-engine/internal/ledger"
	"github.com/doubletap-dave/flashloan-engine/internal/lending"
	"github.com/doubletap-dave/flashloan-engine/internal/notify"
	"github.com/doubletap-dave/flashloan-engine/internal/server/ws"
	"github.com/doubletap-dave/flashloan-engine/internal/venue"
)

// Dependencies bundles every component the application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Ledger   *ledger.Ledger
	Registry *venue.Registry
	Venues   map[string]*venue.Fixed
	Pool     *lending.Pool
	Engine   *engine.Engine
	Events   *events.Log
	Decimals domain.DecimalsRegistry
	WSHub    *ws.Hub
	Notifier *notify.Notifier
}

// Wire constructs all concrete components from the given configuration and
// returns them together with a cleanup function that should be called on
// shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger and lending facility ---
	book := ledger.New()
	deps.Ledger = book

	poolAddr := common.HexToAddress(cfg.Facility.Address)
	pool := lending.NewPool(poolAddr, uint32(cfg.Facility.FeeBps), book, logger)
	for _, h := range cfg.Facility.Liquidity {
		amount, ok := config.ParseBig(h.Amount)
		if !ok {
			cleanup()
			return nil, nil, fmt.Errorf("wire: facility liquidity amount %q", h.Amount)
		}
		book.Mint(poolAddr, common.HexToAddress(h.Asset), amount)
	}
	deps.Pool = pool

	// --- Venues ---
	registry := venue.NewRegistry()
	venues := make(map[string]*venue.Fixed, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		addr := common.HexToAddress(vc.Address)
		v := venue.NewFixed(addr, book)
		for _, p := range vc.Prices {
			price, ok := config.ParseBig(p.Price)
			if !ok {
				cleanup()
				return nil, nil, fmt.Errorf("wire: venue %s price %q", vc.Name, p.Price)
			}
			v.SetPrice(common.HexToAddress(p.AssetIn), common.HexToAddress(p.AssetOut), price)
		}
		for _, h := range vc.Inventory {
			amount, ok := config.ParseBig(h.Amount)
			if !ok {
				cleanup()
				return nil, nil, fmt.Errorf("wire: venue %s inventory amount %q", vc.Name, h.Amount)
			}
			book.Mint(addr, common.HexToAddress(h.Asset), amount)
		}
		registry.Register(v)
		venues[vc.Name] = v
	}
	deps.Registry = registry
	deps.Venues = venues

	// --- Asset display decimals ---
	decimals := make(domain.DecimalsRegistry, len(cfg.Assets))
	for _, a := range cfg.Assets {
		decimals[common.HexToAddress(a.Address)] = int32(a.Decimals)
	}
	deps.Decimals = decimals

	// --- Event log and sinks ---
	log := events.NewLog(0, logger)
	log.AddSink(events.NewSlogSink(logger))

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		log.AddSink(events.NewRedisSink(rdb, cfg.Redis.Channel))
	}

	if cfg.Server.Enabled {
		deps.WSHub = ws.NewHub(logger)
		log.AddSink(deps.WSHub)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
		log.AddSink(deps.Notifier)
	}
	deps.Events = log

	// --- Engine ---
	safetyCap, ok := config.ParseBig(cfg.Engine.SafetyCap)
	if !ok {
		cleanup()
		return nil, nil, fmt.Errorf("wire: safety_cap %q", cfg.Engine.SafetyCap)
	}
	minProfit, ok := config.ParseBig(cfg.Engine.MinProfitThreshold)
	if !ok {
		cleanup()
		return nil, nil, fmt.Errorf("wire: min_profit_threshold %q", cfg.Engine.MinProfitThreshold)
	}

	engCfg := engine.Config{
		Address:   common.HexToAddress(cfg.Engine.Address),
		Owner:     common.HexToAddress(cfg.Engine.Owner),
		SafetyCap: safetyCap,
		MinProfit: minProfit,
	}
	if len(cfg.Venues) >= 2 {
		engCfg.VenueA = common.HexToAddress(cfg.Venues[0].Address)
		engCfg.VenueB = common.HexToAddress(cfg.Venues[1].Address)
	}
	deps.Engine = engine.New(engCfg, pool, registry, book, log, logger)

	return deps, cleanup, nil
}
