// Package sync implements the refresh pipeline: discovering and ingesting
// tournament results from the source platform, watching for balance updates
// that open new meta-epochs, and keeping the on-disk data lake partitioned
// accordingly.
package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dabbslondon/tourney-tracker/internal/agent"
	"github.com/dabbslondon/tourney-tracker/internal/bcp"
	"github.com/dabbslondon/tourney-tracker/internal/entityid"
	"github.com/dabbslondon/tourney-tracker/internal/epoch"
	"github.com/dabbslondon/tourney-tracker/internal/fetch"
	"github.com/dabbslondon/tourney-tracker/internal/models"
	"github.com/dabbslondon/tourney-tracker/internal/review"
	"github.com/dabbslondon/tourney-tracker/internal/storage"
)

// globalEpoch is the fixed partition significant events live in: they define
// epoch boundaries, so unlike every other entity they are never themselves
// assigned to one.
const globalEpoch = "_global"

// warhammerCommunityURL is monitored for balance dataslates and edition
// announcements.
const warhammerCommunityURL = "https://www.warhammer-community.com/en-gb/downloads/warhammer-40000/"

// RefreshStatus is the coarse state of a refresh run.
type RefreshStatus string

const (
	RefreshIdle      RefreshStatus = "idle"
	RefreshRunning   RefreshStatus = "running"
	RefreshCompleted RefreshStatus = "completed"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshPhase names the current step within a running refresh.
type RefreshPhase string

const (
	PhaseIdle              RefreshPhase = "idle"
	PhaseCheckingBalance   RefreshPhase = "checking_balance"
	PhaseSyncingResults    RefreshPhase = "syncing_results"
	PhaseDiscoveringFuture RefreshPhase = "discovering_future"
	PhaseRepartitioning    RefreshPhase = "repartitioning"
	PhaseDone              RefreshPhase = "done"
)

// EventSyncStatus is the per-event progress marker shown in the calendar
// view during a sync.
type EventSyncStatus string

const (
	EventPending EventSyncStatus = "pending"
	EventSyncing EventSyncStatus = "syncing"
	EventDone    EventSyncStatus = "done"
	EventSkipped EventSyncStatus = "skipped"
)

// EventProgress reports one discovered event's sync status.
type EventProgress struct {
	Name            string          `json:"name"`
	Date            string          `json:"date"`
	PlayerCount     int             `json:"player_count"`
	Status          EventSyncStatus `json:"status"`
	PlacementsFound int             `json:"placements_found"`
	ListsFound      int             `json:"lists_found"`
	Detail          string          `json:"detail"`
}

// RefreshProgress is the live progress snapshot for the running (or last
// completed) refresh.
type RefreshProgress struct {
	BalancePassesFound int             `json:"balance_passes_found"`
	EventsSynced       int             `json:"events_synced"`
	PlacementsSynced   int             `json:"placements_synced"`
	ListsNormalized    int             `json:"lists_normalized"`
	FutureEventsFound  int             `json:"future_events_found"`
	EventsDiscovered   int             `json:"events_discovered"`
	CurrentEventIndex  int             `json:"current_event_index"`
	TotalEvents        int             `json:"total_events"`
	TotalPlacements    int             `json:"total_placements"`
	TotalLists         int             `json:"total_lists"`
	Message            string          `json:"message"`
	DiscoveredEvents   []EventProgress `json:"discovered_events"`
}

// RefreshState is the full state of the refresh subsystem, served read-only
// via GET /api/refresh/status.
type RefreshState struct {
	Status      RefreshStatus   `json:"status"`
	Phase       RefreshPhase    `json:"phase"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Progress    RefreshProgress `json:"progress"`
	Errors      []string        `json:"errors"`
}

// Result summarizes one completed refresh run.
type Result struct {
	EventsSynced     int
	PlacementsSynced int
	ListsNormalized  int
	ItemsForReview   int
	Errors           []string
	Duration         time.Duration
}

// DateWindow bounds a refresh's past-results sync.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// Config configures an Orchestrator.
type Config struct {
	Storage storage.Config
}

// Orchestrator runs the five-phase refresh pipeline: check for balance
// updates, sync past results from the source platform, discover upcoming
// events, repartition the data lake if a new epoch opened, and rebuild the
// epoch mapper.
type Orchestrator struct {
	cfg     Config
	fetcher *fetch.Fetcher
	client  *bcp.Client
	backend agent.Backend
	logger  *zap.SugaredLogger

	mapperMu sync.RWMutex
	mapper   *epoch.Mapper

	stateMu sync.RWMutex
	state   RefreshState

	onProgress func(RefreshProgress)
}

// New builds an Orchestrator. mapper is shared with the rest of the process
// (e.g. the HTTP API) and is rebuilt in place after every successful run.
func New(cfg Config, fetcher *fetch.Fetcher, client *bcp.Client, backend agent.Backend, mapper *epoch.Mapper, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		client:  client,
		backend: backend,
		mapper:  mapper,
		logger:  logger,
		state:   RefreshState{Status: RefreshIdle, Phase: PhaseIdle},
	}
}

// OnProgress registers a callback invoked synchronously as progress is made.
// It MUST NOT block: it runs on the orchestrator's own goroutine and writes
// into the same state the callback reads back out of, under the same lock.
func (o *Orchestrator) OnProgress(fn func(RefreshProgress)) {
	o.onProgress = fn
}

// State returns a snapshot of the current refresh state.
func (o *Orchestrator) State() RefreshState {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

// IsRunning reports whether a refresh is currently in progress.
func (o *Orchestrator) IsRunning() bool {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state.Status == RefreshRunning
}

func (o *Orchestrator) setPhase(phase RefreshPhase, message string) {
	o.stateMu.Lock()
	o.state.Phase = phase
	o.state.Progress.Message = message
	snapshot := o.state.Progress
	o.stateMu.Unlock()
	if o.onProgress != nil {
		o.onProgress(snapshot)
	}
}

func (o *Orchestrator) updateProgress(fn func(*RefreshProgress)) {
	o.stateMu.Lock()
	fn(&o.state.Progress)
	snapshot := o.state.Progress
	o.stateMu.Unlock()
	if o.onProgress != nil {
		o.onProgress(snapshot)
	}
}

// Run executes one refresh: checking for balance updates, syncing past
// results within window, discovering upcoming events, and repartitioning if
// a new epoch was opened. Cancellation is checked at the top of every phase
// and before every per-event iteration.
func (o *Orchestrator) Run(ctx context.Context, window DateWindow) (Result, error) {
	o.stateMu.Lock()
	if o.state.Status == RefreshRunning {
		o.stateMu.Unlock()
		return Result{}, fmt.Errorf("sync: refresh already running")
	}
	now := time.Now().UTC()
	o.state = RefreshState{
		Status:    RefreshRunning,
		Phase:     PhaseIdle,
		StartedAt: &now,
	}
	o.stateMu.Unlock()

	start := time.Now()
	var errs []string

	if ctx.Err() != nil {
		return o.finish(start, errs, ctx.Err())
	}

	newBalancePasses, err := o.runBalanceCheck(ctx)
	if err != nil {
		o.logger.Warnw("balance check failed", "error", err)
		errs = append(errs, fmt.Sprintf("Balance check failed: %v", err))
		o.updateProgress(func(p *RefreshProgress) { p.Message = "Balance check failed, continuing..." })
	} else {
		o.updateProgress(func(p *RefreshProgress) {
			p.BalancePassesFound = newBalancePasses
			if newBalancePasses > 0 {
				p.Message = fmt.Sprintf("Found %d new balance pass(es)", newBalancePasses)
			} else {
				p.Message = "No new balance changes"
			}
		})
	}

	if ctx.Err() != nil {
		return o.finish(start, errs, ctx.Err())
	}

	events, placements, lists, reviewItems, err := o.runSync(ctx, window)
	if err != nil {
		o.logger.Warnw("sync failed", "error", err)
		errs = append(errs, fmt.Sprintf("Sync failed: %v", err))
		o.updateProgress(func(p *RefreshProgress) { p.Message = "Sync failed, continuing..." })
	} else {
		o.updateProgress(func(p *RefreshProgress) {
			p.EventsSynced = events
			p.PlacementsSynced = placements
			p.ListsNormalized = lists
			p.Message = fmt.Sprintf("Synced %d events, %d placements, %d lists", events, placements, lists)
		})
	}

	o.refreshTotals()

	if ctx.Err() != nil {
		return o.finish(start, errs, ctx.Err())
	}

	o.setPhase(PhaseDiscoveringFuture, "Discovering upcoming events...")
	futureFound, err := o.runFutureDiscovery(ctx, window.To)
	if err != nil {
		o.logger.Warnw("future discovery failed", "error", err)
		errs = append(errs, fmt.Sprintf("Future discovery failed: %v", err))
		o.updateProgress(func(p *RefreshProgress) { p.Message = "Future discovery failed" })
	} else {
		o.updateProgress(func(p *RefreshProgress) {
			p.FutureEventsFound = futureFound
			p.Message = fmt.Sprintf("Found %d upcoming events", futureFound)
		})
	}

	if ctx.Err() != nil {
		return o.finish(start, errs, ctx.Err())
	}

	if newBalancePasses > 0 {
		o.setPhase(PhaseRepartitioning, "Repartitioning data lake...")
		if _, err := Repartition(o.cfg.Storage, "current", false, false, o.logger); err != nil {
			o.logger.Warnw("repartition failed", "error", err)
			errs = append(errs, fmt.Sprintf("Repartition failed: %v", err))
		}
	}

	o.rebuildMapper()

	hasSyncError := false
	for _, e := range errs {
		if strings.HasPrefix(e, "Sync failed") {
			hasSyncError = true
			break
		}
	}

	completedAt := time.Now().UTC()
	o.stateMu.Lock()
	o.state.Phase = PhaseDone
	o.state.CompletedAt = &completedAt
	o.state.Errors = errs
	if hasSyncError {
		o.state.Status = RefreshFailed
	} else {
		o.state.Status = RefreshCompleted
	}
	o.stateMu.Unlock()

	return Result{
		EventsSynced:     events,
		PlacementsSynced: placements,
		ListsNormalized:  lists,
		ItemsForReview:   reviewItems,
		Errors:           errs,
		Duration:         time.Since(start),
	}, nil
}

func (o *Orchestrator) finish(start time.Time, errs []string, cause error) (Result, error) {
	completedAt := time.Now().UTC()
	o.stateMu.Lock()
	o.state.Phase = PhaseDone
	o.state.Status = RefreshFailed
	o.state.CompletedAt = &completedAt
	o.state.Errors = append(errs, cause.Error())
	o.stateMu.Unlock()
	return Result{Errors: o.state.Errors, Duration: time.Since(start)}, cause
}

// runBalanceCheck fetches the Warhammer Community downloads page, runs the
// Balance Watcher agent over it, and merges any newly found significant
// events into the flat significant-events partition.
func (o *Orchestrator) runBalanceCheck(ctx context.Context) (int, error) {
	o.setPhase(PhaseCheckingBalance, "Checking Warhammer Community for balance updates...")
	if o.backend == nil {
		return 0, nil
	}

	result, err := o.fetcher.Fetch(ctx, warhammerCommunityURL)
	if err != nil {
		return 0, err
	}
	html, err := o.fetcher.ReadCachedText(result)
	if err != nil {
		return 0, err
	}

	sigStore := storage.NewJsonlStore[models.SignificantEvent](o.cfg.Storage, storage.EntitySignificantEvent).WithLogger(o.logger)
	existing, err := sigStore.ReadAll(globalEpoch)
	if err != nil {
		return 0, err
	}
	existingIDs := make(map[string]struct{}, len(existing))
	knownIDs := make([]string, 0, len(existing))
	for _, e := range existing {
		existingIDs[e.GetID()] = struct{}{}
		knownIDs = append(knownIDs, e.GetID())
	}

	watcher := agent.NewBalanceWatcherAgent(o.backend)
	output, err := watcher.Execute(ctx, agent.BalanceWatcherInput{
		HTMLContent:   html,
		SourceURL:     warhammerCommunityURL,
		KnownEventIDs: knownIDs,
	})
	if err != nil {
		return 0, err
	}

	var fresh []models.SignificantEvent
	for _, ev := range output.Events {
		if _, seen := existingIDs[ev.Data.GetID()]; seen {
			continue
		}
		fresh = append(fresh, ev.Data)
	}
	if len(fresh) > 0 {
		if err := sigStore.Append(globalEpoch, fresh...); err != nil {
			return 0, err
		}
	}
	return len(fresh), nil
}

// runSync discovers source-platform events in window, fetches their
// standings, pairings, and army lists, and stores them partitioned by epoch.
func (o *Orchestrator) runSync(ctx context.Context, window DateWindow) (events, placements, lists, reviewed int, err error) {
	o.setPhase(PhaseSyncingResults, "Discovering events and fetching results...")
	if o.client == nil {
		return 0, 0, 0, 0, fmt.Errorf("sync: no source platform client configured")
	}

	discovered, err := o.client.DiscoverEvents(ctx, window.From, window.To)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	o.mapperMu.RLock()
	mapper := o.mapper
	o.mapperMu.RUnlock()

	progressEvents := make([]EventProgress, 0, len(discovered))
	for _, e := range discovered {
		date, _ := e.ParsedStartDate()
		progressEvents = append(progressEvents, EventProgress{
			Name:        e.Name,
			Date:        date.Format("2006-01-02"),
			PlayerCount: e.PlayerCount,
			Status:      EventPending,
		})
	}
	o.updateProgress(func(p *RefreshProgress) {
		p.EventsDiscovered = len(discovered)
		p.DiscoveredEvents = progressEvents
	})

	eventStore := storage.NewJsonlStore[models.Event](o.cfg.Storage, storage.EntityEvent).WithLogger(o.logger)
	placementStore := storage.NewJsonlStore[models.Placement](o.cfg.Storage, storage.EntityPlacement).WithLogger(o.logger)
	pairingStore := storage.NewJsonlStore[models.Pairing](o.cfg.Storage, storage.EntityPairing).WithLogger(o.logger)
	listStore := storage.NewJsonlStore[models.ArmyList](o.cfg.Storage, storage.EntityArmyList).WithLogger(o.logger)

	for i, src := range discovered {
		if ctx.Err() != nil {
			return events, placements, lists, reviewed, ctx.Err()
		}

		o.updateProgress(func(p *RefreshProgress) {
			p.CurrentEventIndex = i + 1
			if i < len(p.DiscoveredEvents) {
				p.DiscoveredEvents[i].Status = EventSyncing
			}
		})

		if src.ShouldSkip() {
			o.updateProgress(func(p *RefreshProgress) {
				if i < len(p.DiscoveredEvents) {
					p.DiscoveredEvents[i].Status = EventSkipped
					p.DiscoveredEvents[i].Detail = "team event or hidden placings"
				}
			})
			continue
		}

		epochID := entityid.ID("current")
		eventDate := time.Now().UTC()
		if d, ok := src.ParsedStartDate(); ok {
			eventDate = d
		}
		if mapper != nil {
			epochID = mapper.GetEpochIDForDate(eventDate)
		}

		event := eventFromBCP(src, epochID)
		existingEvents, _ := eventStore.ReadAll(string(epochID))
		if findDuplicateEvent(event, existingEvents) {
			o.updateProgress(func(p *RefreshProgress) {
				if i < len(p.DiscoveredEvents) {
					p.DiscoveredEvents[i].Status = EventDone
					p.DiscoveredEvents[i].Detail = "already synced"
				}
			})
			continue
		}
		if err := eventStore.Append(string(epochID), event); err != nil {
			return events, placements, lists, reviewed, err
		}
		events++

		standings, err := o.client.FetchStandings(ctx, src.ID)
		if err != nil {
			o.logger.Warnw("fetching standings failed", "event_id", src.ID, "error", err)
			continue
		}

		pairings, _ := o.client.FetchPairings(ctx, src.ID)
		pairingRecords := make([]models.Pairing, 0, len(pairings))
		for _, p := range pairings {
			pairingRecords = append(pairingRecords, pairingFromBCP(p, event.ID))
		}
		if len(pairingRecords) > 0 {
			if err := pairingStore.Append(string(epochID), pairingRecords...); err != nil {
				return events, placements, lists, reviewed, err
			}
		}

		eventPlacements := 0
		eventLists := 0
		for _, standing := range standings {
			placement := placementFromStanding(standing, event.ID, epochID)
			if err := placementStore.Append(string(epochID), placement); err != nil {
				return events, placements, lists, reviewed, err
			}
			placements++
			eventPlacements++

			armyList, listReviewed, err := o.syncArmyList(ctx, src.ID, standing, event, epochID)
			if err != nil {
				o.logger.Warnw("fetching army list failed", "event_id", src.ID, "player_id", standing.PlayerID, "error", err)
				continue
			}
			if listReviewed {
				reviewed++
			}
			if armyList != nil {
				if err := listStore.Append(string(epochID), *armyList); err != nil {
					return events, placements, lists, reviewed, err
				}
				lists++
				eventLists++
			}
		}

		o.updateProgress(func(p *RefreshProgress) {
			if i < len(p.DiscoveredEvents) {
				p.DiscoveredEvents[i].Status = EventDone
				p.DiscoveredEvents[i].PlacementsFound = eventPlacements
				p.DiscoveredEvents[i].ListsFound = eventLists
			}
		})
	}

	return events, placements, lists, reviewed, nil
}

// syncArmyList fetches one player's raw army-list text, parses it
// deterministically, and escalates to the List Normalizer agent (enqueuing
// for review on low confidence) when the deterministic parser finds nothing.
func (o *Orchestrator) syncArmyList(ctx context.Context, bcpEventID string, standing bcp.Standing, event models.Event, epochID entityid.ID) (*models.ArmyList, bool, error) {
	if standing.PlayerID == "" {
		return nil, false, nil
	}
	rawText, err := o.client.FetchArmyList(ctx, bcpEventID, standing.PlayerID)
	if err != nil {
		return nil, false, err
	}
	if rawText == nil || strings.TrimSpace(*rawText) == "" {
		return nil, false, nil
	}

	units := bcp.ParseUnitsFromRawText(*rawText)
	reviewed := false
	faction := standing.Faction
	detachment := ""

	if len(units) == 0 && o.backend != nil {
		normalizer := agent.NewListNormalizerAgent(o.backend)
		out, err := normalizer.Execute(ctx, agent.ListNormalizerInput{
			RawText:     *rawText,
			FactionHint: faction,
			PlayerName:  standing.PlayerName,
		})
		if err != nil {
			return nil, false, err
		}
		units = out.List.Data.Units
		if out.List.Data.Faction != "" {
			faction = out.List.Data.Faction
		}
		detachment = out.List.Data.Detachment
		if out.List.Confidence == models.ConfidenceLow {
			o.enqueueReview("army_list", event.ID.String(), "Low confidence list normalization")
			reviewed = true
		}
	}

	if chapter := bcp.DetectChapterFromRawText(*rawText); chapter != "" {
		faction = chapter
	}

	list := models.NewArmyList(faction, detachment, units, 0)
	list.RawText = *rawText
	list.PlayerName = standing.PlayerName
	list.EventID = event.ID
	list.SourceURL = event.SourceURL
	eventDate := event.Date
	list.EventDate = &eventDate

	return &list, reviewed, nil
}

func (o *Orchestrator) enqueueReview(entityType, entityID, details string) {
	queue := review.New(o.cfg.Storage)
	item := models.NewReviewQueueItem(entityType, entityID, review.ReasonLowConfidence, details)
	if err := queue.Enqueue(item); err != nil {
		o.logger.Warnw("enqueuing review item failed", "error", err)
	}
}

// runFutureDiscovery discovers upcoming events (no standings, no auth
// required for the /events endpoint) so they appear in the calendar ahead of
// time.
func (o *Orchestrator) runFutureDiscovery(ctx context.Context, from time.Time) (int, error) {
	if o.client == nil {
		return 0, nil
	}
	to := from.AddDate(0, 0, 60)
	discovered, err := o.client.DiscoverEvents(ctx, from, to)
	if err != nil {
		return 0, err
	}

	o.mapperMu.RLock()
	mapper := o.mapper
	o.mapperMu.RUnlock()

	eventStore := storage.NewJsonlStore[models.Event](o.cfg.Storage, storage.EntityEvent).WithLogger(o.logger)
	stored := 0
	for _, src := range discovered {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}
		eventDate := time.Now().UTC()
		if d, ok := src.ParsedStartDate(); ok {
			eventDate = d
		}
		epochID := entityid.ID("current")
		if mapper != nil && len(mapper.AllEpochs()) > 0 {
			epochID = mapper.GetEpochIDForDate(eventDate)
		}

		event := eventFromBCP(src, epochID)
		existing, _ := eventStore.ReadAll(string(epochID))
		if findDuplicateEvent(event, existing) {
			continue
		}
		if err := eventStore.Append(string(epochID), event); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// refreshTotals recomputes cumulative entity counts across every known
// epoch, for display in the refresh progress panel.
func (o *Orchestrator) refreshTotals() {
	o.mapperMu.RLock()
	mapper := o.mapper
	o.mapperMu.RUnlock()

	epochIDs := []string{"current"}
	if mapper != nil {
		if all := mapper.AllEpochs(); len(all) > 0 {
			epochIDs = epochIDs[:0]
			for _, e := range all {
				epochIDs = append(epochIDs, e.ID.String())
			}
		}
	}

	eventStore := storage.NewJsonlStore[models.Event](o.cfg.Storage, storage.EntityEvent).WithLogger(o.logger)
	placementStore := storage.NewJsonlStore[models.Placement](o.cfg.Storage, storage.EntityPlacement).WithLogger(o.logger)
	listStore := storage.NewJsonlStore[models.ArmyList](o.cfg.Storage, storage.EntityArmyList).WithLogger(o.logger)

	var totalEvents, totalPlacements, totalLists int
	for _, epochID := range epochIDs {
		if events, err := eventStore.ReadAll(epochID); err == nil {
			totalEvents += len(events)
		}
		if placements, err := placementStore.ReadAll(epochID); err == nil {
			totalPlacements += len(placements)
		}
		if lists, err := listStore.ReadAll(epochID); err == nil {
			totalLists += len(lists)
		}
	}

	o.updateProgress(func(p *RefreshProgress) {
		p.TotalEvents = totalEvents
		p.TotalPlacements = totalPlacements
		p.TotalLists = totalLists
	})
}

// rebuildMapper reconstructs the shared epoch mapper from the flat
// significant-events partition, reflecting any balance passes found this
// run.
func (o *Orchestrator) rebuildMapper() {
	sigStore := storage.NewJsonlStore[models.SignificantEvent](o.cfg.Storage, storage.EntitySignificantEvent).WithLogger(o.logger)
	sigEvents, err := sigStore.ReadAll(globalEpoch)
	if err != nil {
		o.logger.Warnw("rebuilding epoch mapper failed", "error", err)
		return
	}
	newMapper := epoch.FromSignificantEvents(sigEvents)
	o.mapperMu.Lock()
	*o.mapper = *newMapper
	o.mapperMu.Unlock()
}
