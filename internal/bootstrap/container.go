package bootstrap

import (
	"context"
	"log"
	"path/filepath"

	"notely-be/internal/config"
	"notely-be/internal/controller"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/memory"
	"notely-be/internal/repository/unitofwork"
	"notely-be/internal/service"
	"notely-be/internal/websocket"
	"notely-be/pkg/events"

	pktNats "notely-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotesChangedTopic carries dto.NotesChangedMessage on the in-process bus.
const NotesChangedTopic = "notes.changed"

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	UserController    controller.IUserController
	NoteController    controller.INoteController
	TagController     controller.ITagController
	SyncController    controller.ISyncController
	AiController      controller.IAiController
	SessionController controller.ISessionController
	WsController      controller.IWsController

	// Background work, started by Start
	ConsumerService service.IConsumerService
	EventLogService service.IEventLogService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	aiLogger := logger.NewIsolatedLogger(cfg.App.AiLogFilePath)
	wsLogger := logger.NewIsolatedLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "websocket.log"))

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	// 3. Optional infrastructure. Each piece degrades to "off" when absent.
	var eventPublisher events.Publisher
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	} else {
		log.Println("[INFO] NATS_URL not set, domain events disabled")
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Transform cache and ws fan-out disabled", err)
			_ = rdb.Close()
			rdb = nil
		}
	} else {
		log.Println("[INFO] REDIS_URL not set, running single instance without transform cache")
	}

	// 4. Services
	wsHub := websocket.NewHub(rdb, wsLogger)
	publisherService := service.NewPublisherService(NotesChangedTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, NotesChangedTopic, wsHub, sysLogger)

	aiService := service.NewAiService(uowFactory, cfg.Ai, nil, rdb, cfg.Cache.TransformTTL, aiLogger)
	log.Printf("[INFO] Using LLM Provider: %s (models: %v)", cfg.Ai.Provider, cfg.Ai.Models)

	authService := service.NewAuthService(uowFactory, eventPublisher, cfg.App.JwtSecret, cfg.App.JwtTTL, sysLogger)
	userService := service.NewUserService(uowFactory, sysLogger)
	noteService := service.NewNoteService(uowFactory, publisherService, eventPublisher, cfg.App.BaseURL, sysLogger)
	tagService := service.NewTagService(uowFactory, sysLogger)
	syncService := service.NewSyncService(uowFactory, publisherService, eventPublisher, sysLogger)
	sessionService := service.NewSessionService(
		uowFactory,
		memory.NewSessionRepository(cfg.Session.TTL),
		aiService,
		publisherService,
		eventPublisher,
		cfg.Session.TTL,
		sysLogger,
	)

	secret := cfg.App.JwtSecret
	return &Container{
		AuthController:    controller.NewAuthController(authService),
		UserController:    controller.NewUserController(userService, secret),
		NoteController:    controller.NewNoteController(noteService, secret),
		TagController:     controller.NewTagController(tagService, secret),
		SyncController:    controller.NewSyncController(syncService, secret),
		AiController:      controller.NewAiController(aiService, secret, aiLogger),
		SessionController: controller.NewSessionController(sessionService, secret),
		WsController:      controller.NewWsController(wsHub, secret),

		ConsumerService: consumerService,
		EventLogService: service.NewEventLogService(sysLogger),
		WebSocketHub:    wsHub,
		Logger:          sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
	}
}

// Start launches the hub and the bus consumers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}

	if c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, pktNats.SubjectPrefix+">", "notely-event-log", c.EventLogService.Handle); err != nil {
			log.Printf("[WARN] Event log consumer not started: %v", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
