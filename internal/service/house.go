// Package service wires the house components together and runs their loops.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/August1314/nicehouse/common/database"
	commonredis "github.com/August1314/nicehouse/common/redis"
	"github.com/August1314/nicehouse/internal/activity"
	"github.com/August1314/nicehouse/internal/aggregator"
	"github.com/August1314/nicehouse/internal/alarm"
	"github.com/August1314/nicehouse/internal/cache"
	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/config"
	"github.com/August1314/nicehouse/internal/consumer"
	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/energy"
	"github.com/August1314/nicehouse/internal/environment"
	"github.com/August1314/nicehouse/internal/health"
	"github.com/August1314/nicehouse/internal/layout"
	"github.com/August1314/nicehouse/internal/notify"
	"github.com/August1314/nicehouse/internal/observability"
	"github.com/August1314/nicehouse/internal/person"
	"github.com/August1314/nicehouse/internal/policy"
	"github.com/August1314/nicehouse/internal/registry"
	"github.com/August1314/nicehouse/internal/repository"
	"github.com/August1314/nicehouse/internal/safety"
	"github.com/August1314/nicehouse/internal/telemetry"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	// ErrUnknownRoom room id is not registered.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrNotRegistered Start was called before RegisterAll.
	ErrNotRegistered = errors.New("house layout not registered")
	// ErrNoArchive no Postgres archive is attached.
	ErrNoArchive = errors.New("alarm archive not configured")
)

// House owns every component of one simulated house.
type House struct {
	cfg    *config.Config
	clock  clock.Clock
	logger *zap.Logger

	rooms       *registry.RoomRegistry
	devices     *registry.DeviceRegistry
	energy      *energy.Ledger
	controllers *device.Manager
	environment *environment.Store
	simulator   *environment.Simulator
	influence   *environment.Influence
	person      *person.StateMachine
	personSim   *person.Simulator
	vitals      *health.Simulator
	healthMon   *health.Monitor
	alarms      *alarm.Ledger
	responder   *notify.Responder
	threshold   *policy.Threshold
	monitoring  *policy.Monitoring
	safety      *safety.Store
	activity    *activity.Tracker
	aggregator  *aggregator.Aggregator
	metrics     *observability.Metrics

	// outer sinks, nil when not configured
	redisClient *redis.Client
	cache       *cache.CacheManager
	db          *sql.DB
	archive     *repository.AlarmRecordsRepository
	archiver    *consumer.AlarmArchiver
	mqttClient  MQTTClient
	commands    *notify.CommandListener
	kafka       *telemetry.KafkaSink

	mu         sync.Mutex
	registered bool
}

// New builds the in-memory components. Nothing is registered or running yet.
func New(cfg *config.Config, clk clock.Clock, metrics *observability.Metrics, logger *zap.Logger) *House {
	h := &House{
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
	}

	h.rooms = registry.NewRoomRegistry(logger)
	h.devices = registry.NewDeviceRegistry(logger)
	h.energy = energy.NewLedger(nil, logger)
	h.controllers = device.NewManager(device.NewFactory(), h.energy, logger)
	h.environment = environment.NewStore()
	h.influence = environment.NewInfluence(environment.DefaultInfluenceConfig(), h.environment, h.rooms, h.controllers, logger)

	h.person = person.NewStateMachine(clk, logger)
	simCfg := person.DefaultSimulatorConfig()
	simCfg.AutoSwitch = cfg.PersonAutoSwitch
	h.personSim = person.NewSimulator(simCfg, h.person, clk, logger)

	seed := clk.Now().UnixNano()
	h.vitals = health.NewSimulator(h.person, rand.New(rand.NewSource(seed)), clk)
	h.safety = safety.NewStore(rand.New(rand.NewSource(seed + 1)))
	h.activity = activity.NewTracker(clk)

	h.alarms = alarm.NewLedger(cfg.AlarmMaxRecords, clk, logger)
	h.responder = notify.NewResponder(h.rooms, cfg.Webhook.Timeout, logger)
	h.responder.OnDrop(metrics.AlarmDropped)

	monCfg := health.DefaultMonitorConfig()
	monCfg.Cooldown = cfg.Monitoring.Cooldown
	monCfg.CheckInterval = cfg.Intervals.Health
	monCfg.TestMode = cfg.HealthTestMode
	h.healthMon = health.NewMonitor(monCfg, h.vitals, h.person, h.alarms, clk, logger)

	h.threshold = policy.NewThreshold(thresholdsFrom(cfg), h.rooms, h.environment, h.controllers, h.alarms, logger)
	h.threshold.SetAutoMode(cfg.AutoMode)
	h.monitoring = policy.NewMonitoring(policy.MonitoringConfig{
		LongSitting: cfg.Monitoring.LongSitting,
		LongBathing: cfg.Monitoring.LongBathing,
		Cooldown:    cfg.Monitoring.Cooldown,
	}, h.person, h.alarms, clk, logger)

	h.aggregator = aggregator.New(aggregator.Sources{
		Rooms:       h.rooms,
		Environment: h.environment,
		Safety:      h.safety,
		Activity:    h.activity,
		Devices:     h.controllers,
		Energy:      h.energy,
		Person:      h.person,
		Vitals:      h.vitals,
		Alarms:      h.alarms,
		AutoMode:    h.threshold,
	}, clk)

	return h
}

func thresholdsFrom(cfg *config.Config) policy.Thresholds {
	return policy.Thresholds{
		PM25:          cfg.Thresholds.PM25,
		PM10:          cfg.Thresholds.PM10,
		TempHigh:      cfg.Thresholds.TempHigh,
		TempLow:       cfg.Thresholds.TempLow,
		Target:        cfg.Thresholds.Target,
		HeatingTarget: cfg.Thresholds.HeatingTarget,
		HumidityHigh:  cfg.Thresholds.HumidityHigh,
		HumidityLow:   cfg.Thresholds.HumidityLow,
	}
}

// RegisterAll populates registries and controllers from l and subscribes the observers.
// Calling it twice is a no-op.
func (h *House) RegisterAll(l layout.Layout) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.registered {
		h.logger.Warn("House already registered, layout ignored")
		return nil
	}

	rooms := h.rooms.RegisterAll(l.Rooms)
	if rooms == 0 {
		return fmt.Errorf("layout registered no rooms")
	}
	h.devices.RegisterAll(l.DeviceInfos())

	for id, watts := range l.RatedPower() {
		h.energy.SetRatedPower(id, watts)
	}
	for id, watts := range h.cfg.RatedPower {
		h.energy.SetRatedPower(id, watts)
	}
	h.controllers.Build(h.devices.All())

	h.simulator = environment.NewSimulator(h.environment, environment.ProfilesFor(h.rooms.IDs()), h.clock, h.logger)
	h.simulator.Tick()
	h.influence.Initialize(h.simulator.BaseTemperatures())
	for _, id := range h.rooms.IDs() {
		h.safety.GetOrCreate(id)
	}
	h.activity.Enter(h.person.RoomID())

	h.person.Subscribe("activity", h.activity.OnPersonChanged)
	h.person.Subscribe("monitoring", h.monitoring.OnPersonChanged)
	h.alarms.Subscribe("responder", h.responder.Handle)
	h.responder.Add(h.metrics)
	h.controllers.OnStateChange("metrics", h.metrics.DeviceChanged)

	h.registered = true
	h.logger.Info("House registered",
		zap.Int("rooms", rooms),
		zap.Int("devices", h.devices.Len()),
	)
	return nil
}

// AttachRedis mirrors snapshots to Redis and streams alarms for archiving.
func (h *House) AttachRedis(client *redis.Client) {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.KeyPrefix = h.cfg.Cache.KeyPrefix
	cacheCfg.TTL = h.cfg.Cache.TTL
	cacheCfg.AlarmStream = cacheCfg.KeyPrefix + "alarms"

	h.redisClient = client
	h.cache = cache.NewCacheManager(cacheCfg, client, h.logger)
	h.responder.Add(cache.NewAlarmStream(client, cacheCfg))
	h.attachArchiver()
}

// AttachPostgres archives alarms. With Redis attached the archive is fed from the
// alarm stream, otherwise directly by the responder.
func (h *House) AttachPostgres(ctx context.Context, db *sql.DB) error {
	repo := repository.NewAlarmRecordsRepository(db, h.logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	h.db = db
	h.archive = repo
	if h.redisClient == nil {
		h.responder.Add(notify.Func{Label: "postgres", Fn: repo.Create})
		return nil
	}
	h.attachArchiver()
	return nil
}

func (h *House) attachArchiver() {
	if h.redisClient == nil || h.archive == nil || h.archiver != nil {
		return
	}
	archCfg := consumer.DefaultArchiverConfig()
	archCfg.Stream = h.cfg.Cache.KeyPrefix + "alarms"
	h.archiver = consumer.NewAlarmArchiver(archCfg, h.redisClient, h.archive, h.logger)
}

// AttachMQTT publishes alarms and device state and accepts commands.
func (h *House) AttachMQTT(client MQTTClient) {
	prefix := h.cfg.MQTT.TopicPrefix
	qos := h.cfg.MQTT.QoS
	pub := notify.NewMQTTPublisher(client, prefix, qos, h.logger)

	h.mqttClient = client
	h.responder.Add(pub)
	h.controllers.OnStateChange("mqtt", pub.PublishDeviceState)
	h.commands = notify.NewCommandListener(client, prefix, qos, h, h.logger)
}

// AttachKafka streams room readings with every snapshot.
func (h *House) AttachKafka(w telemetry.MessageWriter) {
	h.kafka = telemetry.NewKafkaSink(w, h.cfg.Kafka.Topic, h.logger)
}

// AttachWebhook posts alarms to url.
func (h *House) AttachWebhook(url string) {
	h.responder.Add(notify.NewWebhookNotifier(url, h.cfg.Webhook.Timeout, h.logger))
}

// Start runs every loop until ctx is done.
func (h *House) Start(ctx context.Context) error {
	h.mu.Lock()
	registered := h.registered
	h.mu.Unlock()
	if !registered {
		return ErrNotRegistered
	}

	if h.commands != nil {
		if err := h.commands.Start(); err != nil {
			return fmt.Errorf("failed to start command listener: %w", err)
		}
	}

	iv := h.cfg.Intervals
	var wg sync.WaitGroup
	run := func(name string, interval time.Duration, fn func(ctx context.Context, dt time.Duration) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.loop(ctx, name, interval, fn)
		}()
	}

	run("environment", iv.Simulator, func(context.Context, time.Duration) error {
		h.simulator.Tick()
		return nil
	})
	run("influence", iv.Influence, func(_ context.Context, dt time.Duration) error {
		h.influence.Tick(dt)
		return nil
	})
	run("energy", iv.Energy, func(_ context.Context, dt time.Duration) error {
		h.energy.Tick(dt)
		return nil
	})
	run("control", iv.Control, func(context.Context, time.Duration) error {
		h.threshold.Tick()
		return nil
	})
	run("person", iv.Person, func(context.Context, time.Duration) error {
		h.person.Tick()
		return h.personSim.Tick()
	})
	run("monitoring", iv.Monitoring, func(context.Context, time.Duration) error {
		h.person.Tick()
		h.monitoring.Tick()
		return nil
	})
	run("health", iv.Health, func(context.Context, time.Duration) error {
		h.vitals.Tick()
		h.healthMon.Check()
		return nil
	})
	run("safety", iv.Safety, func(context.Context, time.Duration) error {
		h.safety.Tick(h.rooms)
		return nil
	})
	run("snapshot", iv.Snapshot, func(ctx context.Context, _ time.Duration) error {
		return h.PublishSnapshot(ctx)
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.responder.Run(ctx)
	}()
	if h.commands != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.commands.Run(ctx)
		}()
	}

	if h.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.archiver.Start(ctx); err != nil {
				h.logger.Error("Alarm archiver stopped", zap.Error(err))
			}
		}()
	}

	h.logger.Info("House started", zap.Bool("auto_mode", h.threshold.AutoMode()))
	wg.Wait()
	if n := h.responder.Drain(); n > 0 {
		h.logger.Info("Delivered pending alarms", zap.Int("count", n))
	}
	h.logger.Info("House loops stopped")
	return nil
}

// loop runs fn once immediately and then on every tick. Errors are logged and the loop continues.
// dt is the clock time since the previous run.
func (h *House) loop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context, dt time.Duration) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := h.clock.Now()
	step := func() {
		now := h.clock.Now()
		dt := now.Sub(last)
		last = now
		if err := fn(ctx, dt); err != nil {
			h.logger.Error("Loop step failed",
				zap.String("loop", name),
				zap.Error(err),
			)
		}
	}

	step()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("Loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			step()
		}
	}
}

// PublishSnapshot builds a snapshot and mirrors it to every attached sink.
func (h *House) PublishSnapshot(ctx context.Context) error {
	snap := h.aggregator.Build()
	h.metrics.ObserveSnapshot(snap)

	var errs []error
	if h.cache != nil {
		if err := h.cache.StoreSnapshot(ctx, snap); err != nil {
			h.metrics.SinkError("redis")
			errs = append(errs, err)
		}
	}
	if h.kafka != nil {
		if err := h.kafka.WriteSnapshot(ctx, snap); err != nil {
			h.metrics.SinkError("kafka")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop closes every attached sink.
func (h *House) Stop() error {
	h.logger.Info("Stopping house")

	if h.kafka != nil {
		if err := h.kafka.Close(); err != nil {
			h.logger.Error("Failed to close kafka writer", zap.Error(err))
		}
	}
	if h.mqttClient != nil {
		h.mqttClient.Disconnect()
	}
	if h.db != nil {
		if err := database.Close(h.db); err != nil {
			h.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	if h.redisClient != nil {
		if err := commonredis.Close(h.redisClient); err != nil {
			h.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	return nil
}
