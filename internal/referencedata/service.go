package referencedata

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

// Service resolves the carbon-intensity inputs for a line item. Resolution is
// a pure function of the reference tables, so results are cached process-wide
// by the argument tuple; Invalidate clears the cache after reference-table
// migrations.
type Service interface {
	Resolve(ctx context.Context, input ResolveInput) (*Resolved, error)
	PenaltyRate(ctx context.Context, period int) (decimal.Decimal, error)
	Invalidate()
}

// ResolveInput is the lookup tuple for one line item.
type ResolveInput struct {
	FuelTypeID       int64
	FuelCategoryID   int64
	EndUseID         int64
	CompliancePeriod int
	ProvisionID      int64
	FuelCodeID       *int64
}

// Resolved carries every intensity the calculator needs.
type Resolved struct {
	EffectiveCI   decimal.Decimal
	TargetCI      decimal.Decimal
	EER           decimal.Decimal
	EnergyDensity decimal.Decimal
	UCI           decimal.Decimal
}

type cacheKey struct {
	fuelTypeID     int64
	fuelCategoryID int64
	endUseID       int64
	period         int
	provisionID    int64
	fuelCodeID     int64
}

type service struct {
	repo Repository
	cfg  config.ComplianceConfig

	mtx   sync.RWMutex
	cache map[cacheKey]Resolved
}

// NewService wires the resolver with its repository and regulated constants.
func NewService(repo Repository, cfg config.ComplianceConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reference-data repository required")
	}
	return &service{
		repo:  repo,
		cfg:   cfg,
		cache: make(map[cacheKey]Resolved),
	}, nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*Resolved, error) {
	key := cacheKey{
		fuelTypeID:     input.FuelTypeID,
		fuelCategoryID: input.FuelCategoryID,
		endUseID:       input.EndUseID,
		period:         input.CompliancePeriod,
		provisionID:    input.ProvisionID,
	}
	if input.FuelCodeID != nil {
		key.fuelCodeID = *input.FuelCodeID
	}

	s.mtx.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mtx.RUnlock()
		out := cached
		return &out, nil
	}
	s.mtx.RUnlock()

	resolved, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	s.cache[key] = *resolved
	s.mtx.Unlock()
	return resolved, nil
}

func (s *service) resolve(ctx context.Context, input ResolveInput) (*Resolved, error) {
	fuelType, err := s.repo.GetFuelType(ctx, input.FuelTypeID)
	if err != nil {
		return nil, err
	}
	if fuelType == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "fuel type not found").
			WithDetails(map[string]any{"fuel_type_id": input.FuelTypeID})
	}
	category, err := s.repo.GetFuelCategory(ctx, input.FuelCategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "fuel category not found").
			WithDetails(map[string]any{"fuel_category_id": input.FuelCategoryID})
	}
	provision, err := s.repo.GetProvision(ctx, input.ProvisionID)
	if err != nil {
		return nil, err
	}
	if provision == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "provision of the act not found").
			WithDetails(map[string]any{"provision_of_the_act_id": input.ProvisionID})
	}

	if err := s.checkLegacySelection(fuelType, category, provision, input.CompliancePeriod); err != nil {
		return nil, err
	}

	density, err := s.energyDensityFor(ctx, input.FuelTypeID, input.CompliancePeriod)
	if err != nil {
		return nil, err
	}

	effectiveCI, err := s.effectiveCIFor(ctx, fuelType, category, input)
	if err != nil {
		return nil, err
	}

	eer := decimal.NewFromInt(1)
	if row, err := s.repo.GetEER(ctx, input.FuelCategoryID, input.FuelTypeID, input.EndUseID, input.CompliancePeriod); err != nil {
		return nil, err
	} else if row != nil {
		eer = row.Ratio
	}

	tci, err := s.repo.GetTargetCI(ctx, input.FuelCategoryID, input.CompliancePeriod)
	if err != nil {
		return nil, err
	}
	if tci == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "target carbon intensity not found for period").
			WithDetails(map[string]any{
				"fuel_category_id":  input.FuelCategoryID,
				"compliance_period": input.CompliancePeriod,
			})
	}

	uci := decimal.Zero
	if row, err := s.repo.GetUCI(ctx, input.FuelTypeID, input.EndUseID); err != nil {
		return nil, err
	} else if row != nil {
		uci = row.Intensity
	}

	return &Resolved{
		EffectiveCI:   effectiveCI,
		TargetCI:      tci.TargetCI,
		EER:           eer,
		EnergyDensity: density,
		UCI:           uci,
	}, nil
}

// energyDensityFor picks the density row in force for the compliance year.
func (s *service) energyDensityFor(ctx context.Context, fuelTypeID int64, period int) (decimal.Decimal, error) {
	rows, err := s.repo.ListEnergyDensities(ctx, fuelTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, row := range rows {
		if row.Covers(period) {
			return row.Density, nil
		}
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "no energy density in force for period").
		WithDetails(map[string]any{"fuel_type_id": fuelTypeID, "compliance_period": period})
}

// effectiveCIFor applies the CI precedence: active fuel code, then the fuel
// type default, with the category CI substituting for unrecognized legacy
// types.
func (s *service) effectiveCIFor(ctx context.Context, fuelType *models.FuelType, category *models.FuelCategory, input ResolveInput) (decimal.Decimal, error) {
	if input.FuelCodeID != nil {
		code, err := s.repo.GetFuelCode(ctx, *input.FuelCodeID)
		if err != nil {
			return decimal.Zero, err
		}
		if code == nil {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeMissingReferenceData, "fuel code not found").
				WithDetails(map[string]any{"fuel_code_id": *input.FuelCodeID})
		}
		if codeCoversYear(code, input.CompliancePeriod) {
			return code.CarbonIntensity, nil
		}
	}
	if s.isLegacyPeriod(input.CompliancePeriod) && fuelType.Unrecognized {
		return category.CategoryCI, nil
	}
	return fuelType.DefaultCI, nil
}

func (s *service) checkLegacySelection(fuelType *models.FuelType, category *models.FuelCategory, provision *models.ProvisionOfTheAct, period int) error {
	if !s.isLegacyPeriod(period) {
		return nil
	}
	if !provision.IsLegacy {
		return pkgerrors.New(pkgerrors.CodeInvalidLine, "provision not selectable for legacy period").
			WithDetails(map[string]any{"provision": provision.Name, "compliance_period": period})
	}
	if fuelType.FossilDerived && !fuelType.IsLegacy {
		return pkgerrors.New(pkgerrors.CodeInvalidLine, "fuel type not selectable for legacy period").
			WithDetails(map[string]any{"fuel_type": fuelType.Name, "compliance_period": period})
	}
	if category.Name == models.FuelCategoryJetFuel {
		return pkgerrors.New(pkgerrors.CodeInvalidLine, "jet fuel category not selectable for legacy period").
			WithDetails(map[string]any{"compliance_period": period})
	}
	return nil
}

func (s *service) isLegacyPeriod(period int) bool {
	return period < s.cfg.LegislationTransitionYear
}

func (s *service) PenaltyRate(ctx context.Context, period int) (decimal.Decimal, error) {
	row, err := s.repo.GetPenaltyRate(ctx, period)
	if err != nil {
		return decimal.Zero, err
	}
	if row != nil {
		return row.RatePerUnit, nil
	}
	return s.cfg.PenaltyRate(), nil
}

func (s *service) Invalidate() {
	s.mtx.Lock()
	s.cache = make(map[cacheKey]Resolved)
	s.mtx.Unlock()
}

func codeCoversYear(code *models.FuelCode, period int) bool {
	if code.Status != models.FuelCodeStatusApproved {
		return false
	}
	if code.EffectiveDate.Year() > period {
		return false
	}
	return code.ExpirationDate == nil || code.ExpirationDate.Year() >= period
}
