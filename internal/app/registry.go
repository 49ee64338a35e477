package service

import (
	"context"
	"fmt"

	"github.com/dev-tnsq/spacelink-sub000/internal/adapters/storage"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/elements"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/model"
	"github.com/dev-tnsq/spacelink-sub000/internal/domain/types"
	"github.com/dev-tnsq/spacelink-sub000/pkg/logger"
)

// Validation bounds for registry input.
const (
	maxSpecsBytes = 512
	maxLatE4      = 90 * types.CoordScale
	maxLonE4      = 180 * types.CoordScale
)

func validCoordinates(latE4, lonE4 int32) bool {
	return latE4 >= -maxLatE4 && latE4 <= maxLatE4 && lonE4 >= -maxLonE4 && lonE4 <= maxLonE4
}

func validSpecs(specs string) bool {
	return specs != "" && len(specs) <= maxSpecsBytes
}

// validateMetadataRef accepts an empty reference; a non-empty one must be a
// well-formed content identifier.
func validateMetadataRef(ref string) error {
	if ref == "" {
		return nil
	}
	if err := storage.ValidateRef(ref); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidMetadataReference)
	}
	return nil
}

// RegisterStation validates and registers a ground station, collecting the
// stake into escrow.
func (e *Engine) RegisterStation(ctx context.Context, owner types.Identity, latE4, lonE4 int32, specs string, uptimePct int, metadataRef string, stake int64) (types.StationID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	if !validCoordinates(latE4, lonE4) {
		return 0, fmt.Errorf("lat %d lon %d: %w", latE4, lonE4, ErrInvalidCoordinates)
	}
	if !validSpecs(specs) {
		return 0, fmt.Errorf("specs length %d: %w", len(specs), ErrInvalidSpecs)
	}
	if uptimePct < 0 || uptimePct > 100 {
		return 0, fmt.Errorf("uptime %d: %w", uptimePct, ErrInvalidSpecs)
	}
	if err := validateMetadataRef(metadataRef); err != nil {
		return 0, err
	}
	if stake < e.minStationStake {
		return 0, fmt.Errorf("stake %d < %d: %w", stake, e.minStationStake, ErrInsufficientStake)
	}
	if err := e.router.RoutePayment(e.native, owner, EscrowIdentity, stake); err != nil {
		return 0, fmt.Errorf("collect stake: %w", err)
	}

	now := e.clock.Now()
	station := &model.Station{
		Owner:       owner,
		LatE4:       latE4,
		LonE4:       lonE4,
		Specs:       specs,
		UptimePct:   uptimePct,
		MetadataRef: metadataRef,
		Stake:       stake,
		Active:      true,
		CreatedAt:   now,
	}
	id := e.store.InsertStation(station)

	e.emit(model.EventStationRegistered, model.StationRegisteredPayload{
		StationID: id, Owner: owner, LatE4: latE4, LonE4: lonE4, Stake: stake,
	})
	e.syncGauges()
	e.log.Info(ctx, "station registered",
		logger.Uint64("stationId", uint64(id)),
		logger.String("owner", string(owner)),
		logger.Int64("stake", stake),
	)
	return id, nil
}

// RegisterSatellite validates the element set and registers a satellite,
// collecting the stake into escrow.
func (e *Engine) RegisterSatellite(ctx context.Context, owner types.Identity, line1, line2, metadataRef string, stake int64) (types.SatelliteID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	if _, err := elements.Validate(line1, line2); err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrInvalidElementSet)
	}
	if err := validateMetadataRef(metadataRef); err != nil {
		return 0, err
	}
	if stake < e.minSatelliteStake {
		return 0, fmt.Errorf("stake %d < %d: %w", stake, e.minSatelliteStake, ErrInsufficientStake)
	}
	if err := e.router.RoutePayment(e.native, owner, EscrowIdentity, stake); err != nil {
		return 0, fmt.Errorf("collect stake: %w", err)
	}

	now := e.clock.Now()
	sat := &model.Satellite{
		Owner:             owner,
		ElementsLine1:     line1,
		ElementsLine2:     line2,
		ElementsUpdatedAt: now,
		MetadataRef:       metadataRef,
		Stake:             stake,
		Active:            true,
		CreatedAt:         now,
	}
	id := e.store.InsertSatellite(sat)

	e.emit(model.EventSatelliteRegistered, model.SatelliteRegisteredPayload{
		SatelliteID: id, Owner: owner, Stake: stake,
	})
	e.syncGauges()
	e.log.Info(ctx, "satellite registered",
		logger.Uint64("satelliteId", uint64(id)),
		logger.String("owner", string(owner)),
	)
	return id, nil
}

// UpdateStation lets the owner change specs, uptime, and metadata.
func (e *Engine) UpdateStation(ctx context.Context, caller types.Identity, id types.StationID, specs string, uptimePct int, metadataRef string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	station, ok := e.store.Station(id)
	if !ok {
		return fmt.Errorf("station %d: %w", id, errNotFound())
	}
	if station.Owner != caller {
		return notAuthorized(caller, "update station")
	}
	if !validSpecs(specs) {
		return fmt.Errorf("specs length %d: %w", len(specs), ErrInvalidSpecs)
	}
	if uptimePct < 0 || uptimePct > 100 {
		return fmt.Errorf("uptime %d: %w", uptimePct, ErrInvalidSpecs)
	}
	if err := validateMetadataRef(metadataRef); err != nil {
		return err
	}

	station.Specs = specs
	station.UptimePct = uptimePct
	station.MetadataRef = metadataRef
	e.log.Info(ctx, "station updated", logger.Uint64("stationId", uint64(id)))
	return nil
}

// UpdateSatellite refreshes a satellite's element set. The new set must pass
// full validation again; the freshness timestamp resets to now.
func (e *Engine) UpdateSatellite(ctx context.Context, caller types.Identity, id types.SatelliteID, line1, line2, metadataRef string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sat, ok := e.store.Satellite(id)
	if !ok {
		return fmt.Errorf("satellite %d: %w", id, errNotFound())
	}
	if sat.Owner != caller {
		return notAuthorized(caller, "update satellite")
	}
	if _, err := elements.Validate(line1, line2); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidElementSet)
	}
	if err := validateMetadataRef(metadataRef); err != nil {
		return err
	}

	sat.ElementsLine1 = line1
	sat.ElementsLine2 = line2
	sat.ElementsUpdatedAt = e.clock.Now()
	if metadataRef != "" {
		sat.MetadataRef = metadataRef
	}
	e.log.Info(ctx, "satellite elements refreshed", logger.Uint64("satelliteId", uint64(id)))
	return nil
}

// DeactivateStation marks the station inactive. Owner only.
func (e *Engine) DeactivateStation(ctx context.Context, caller types.Identity, id types.StationID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	station, ok := e.store.Station(id)
	if !ok {
		return fmt.Errorf("station %d: %w", id, errNotFound())
	}
	if station.Owner != caller {
		return notAuthorized(caller, "deactivate station")
	}
	station.Active = false
	e.syncGauges()
	e.log.Info(ctx, "station deactivated", logger.Uint64("stationId", uint64(id)))
	return nil
}

// DeactivateSatellite marks the satellite inactive. Owner only.
func (e *Engine) DeactivateSatellite(ctx context.Context, caller types.Identity, id types.SatelliteID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sat, ok := e.store.Satellite(id)
	if !ok {
		return fmt.Errorf("satellite %d: %w", id, errNotFound())
	}
	if sat.Owner != caller {
		return notAuthorized(caller, "deactivate satellite")
	}
	sat.Active = false
	e.syncGauges()
	e.log.Info(ctx, "satellite deactivated", logger.Uint64("satelliteId", uint64(id)))
	return nil
}

// WithdrawStationStake returns the full remaining stake to the owner once
// the station is inactive. The stake is zeroed before the transfer, so a
// reentrant or repeated call finds nothing to withdraw.
func (e *Engine) WithdrawStationStake(ctx context.Context, caller types.Identity, id types.StationID) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	station, ok := e.store.Station(id)
	if !ok {
		return 0, fmt.Errorf("station %d: %w", id, errNotFound())
	}
	if station.Owner != caller {
		return 0, notAuthorized(caller, "withdraw stake")
	}
	if station.Active {
		return 0, fmt.Errorf("station %d: %w", id, ErrEntityActive)
	}
	if station.Stake == 0 {
		return 0, fmt.Errorf("station %d: %w", id, ErrNothingToWithdraw)
	}

	amount := station.Stake
	station.Stake = 0
	if err := e.router.RoutePayment(e.native, EscrowIdentity, caller, amount); err != nil {
		station.Stake = amount
		return 0, fmt.Errorf("return stake: %w", err)
	}

	e.emit(model.EventStakeWithdrawn, model.StakeWithdrawnPayload{
		Entity: "station", ID: uint64(id), Owner: caller, Amount: amount,
	})
	e.log.Info(ctx, "station stake withdrawn",
		logger.Uint64("stationId", uint64(id)),
		logger.Int64("amount", amount),
	)
	return amount, nil
}

// WithdrawSatelliteStake returns the full remaining stake to the owner once
// the satellite is inactive. Same zero-before-transfer contract as stations.
func (e *Engine) WithdrawSatelliteStake(ctx context.Context, caller types.Identity, id types.SatelliteID) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return 0, ErrSystemPaused
	}
	sat, ok := e.store.Satellite(id)
	if !ok {
		return 0, fmt.Errorf("satellite %d: %w", id, errNotFound())
	}
	if sat.Owner != caller {
		return 0, notAuthorized(caller, "withdraw stake")
	}
	if sat.Active {
		return 0, fmt.Errorf("satellite %d: %w", id, ErrEntityActive)
	}
	if sat.Stake == 0 {
		return 0, fmt.Errorf("satellite %d: %w", id, ErrNothingToWithdraw)
	}

	amount := sat.Stake
	sat.Stake = 0
	if err := e.router.RoutePayment(e.native, EscrowIdentity, caller, amount); err != nil {
		sat.Stake = amount
		return 0, fmt.Errorf("return stake: %w", err)
	}

	e.emit(model.EventStakeWithdrawn, model.StakeWithdrawnPayload{
		Entity: "satellite", ID: uint64(id), Owner: caller, Amount: amount,
	})
	e.log.Info(ctx, "satellite stake withdrawn",
		logger.Uint64("satelliteId", uint64(id)),
		logger.Int64("amount", amount),
	)
	return amount, nil
}

// Station returns a copy of the station record.
func (e *Engine) Station(id types.StationID) (model.Station, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.store.Station(id)
	if !ok {
		return model.Station{}, fmt.Errorf("station %d: %w", id, errNotFound())
	}
	return *s, nil
}

// Satellite returns a copy of the satellite record.
func (e *Engine) Satellite(id types.SatelliteID) (model.Satellite, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.store.Satellite(id)
	if !ok {
		return model.Satellite{}, fmt.Errorf("satellite %d: %w", id, errNotFound())
	}
	return *s, nil
}

// Stations lists all stations in id order.
func (e *Engine) Stations() []model.Station {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Station, 0, len(e.store.Stations()))
	for _, s := range e.store.Stations() {
		out = append(out, *s)
	}
	return out
}

// Satellites lists all satellites in id order.
func (e *Engine) Satellites() []model.Satellite {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Satellite, 0, len(e.store.Satellites()))
	for _, s := range e.store.Satellites() {
		out = append(out, *s)
	}
	return out
}
