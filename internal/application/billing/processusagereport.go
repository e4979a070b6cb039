// Package billing converts cumulative usage reports into ledger debits.
package billing

import (
	"context"
	"fmt"
	"math"

	appledger "github.com/vetiver-net/vetiver/internal/application/ledger"
	instanceDomain "github.com/vetiver-net/vetiver/internal/domain/instance"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	nodeDomain "github.com/vetiver-net/vetiver/internal/domain/node"
	userDomain "github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/shared/errors"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

const bytesPerGiB = 1 << 30

// LedgerService is the slice of the ledger this engine needs.
type LedgerService interface {
	CreateTransaction(ctx context.Context, cmd appledger.CreateTransactionCommand) (*ledgerDomain.Transaction, error)
}

// UsageRecord is one agent measurement: the cumulative byte count for an
// instance since provisioning, never a delta.
type UsageRecord struct {
	InstanceID      uint   `json:"instance_id"`
	TotalUsageBytes uint64 `json:"total_usage_bytes"`
}

// ReportSummary counts the outcomes of one report batch.
type ReportSummary struct {
	Processed int `json:"processed"`
	Billed    int `json:"billed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Engine bills usage deltas against user balances. Each record is handled in
// isolation; a failure on one instance never blocks the rest of the batch.
type Engine struct {
	instances instanceDomain.Repository
	nodes     nodeDomain.Repository
	users     userDomain.Repository
	ledger    LedgerService
	logger    logger.Interface
}

func NewEngine(
	instances instanceDomain.Repository,
	nodes nodeDomain.Repository,
	users userDomain.Repository,
	ledger LedgerService,
	logger logger.Interface,
) *Engine {
	return &Engine{
		instances: instances,
		nodes:     nodes,
		users:     users,
		ledger:    ledger,
		logger:    logger,
	}
}

// ProcessUsageReport bills every record in the batch. The lastBilledUsage
// watermark only advances after the debit commits, so a crash between ledger
// post and watermark save can at worst re-run the same delta on the next
// report, never skip it.
func (e *Engine) ProcessUsageReport(ctx context.Context, records []UsageRecord) ReportSummary {
	summary := ReportSummary{Processed: len(records)}

	for _, rec := range records {
		billed, err := e.processRecord(ctx, rec)
		switch {
		case err != nil:
			summary.Failed++
			e.logger.Errorw("usage record failed",
				"instance_id", rec.InstanceID,
				"total_usage", rec.TotalUsageBytes,
				"error", err,
			)
		case billed:
			summary.Billed++
		default:
			summary.Skipped++
		}
	}

	e.logger.Infow("usage report processed",
		"processed", summary.Processed,
		"billed", summary.Billed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary
}

func (e *Engine) processRecord(ctx context.Context, rec UsageRecord) (bool, error) {
	inst, err := e.instances.GetByID(ctx, rec.InstanceID)
	if err != nil {
		return false, err
	}

	if inst.Status() != instanceDomain.StatusRunning {
		e.logger.Debugw("skipping usage for non-running instance",
			"instance_id", inst.ID(), "status", inst.Status())
		return false, nil
	}

	if rec.TotalUsageBytes <= inst.LastBilledUsage() {
		return false, nil
	}
	usageToBill := rec.TotalUsageBytes - inst.LastBilledUsage()

	n, err := e.nodes.GetByID(ctx, inst.NodeID())
	if err != nil {
		return false, err
	}
	u, err := e.users.GetByID(ctx, inst.UserID())
	if err != nil {
		return false, err
	}

	cost := CalculateCost(usageToBill, n.Price(), u.PriceMultiplier())
	if cost <= 0 {
		return false, nil
	}

	_, err = e.ledger.CreateTransaction(ctx, appledger.CreateTransactionCommand{
		UserID:      u.ID(),
		Amount:      cost,
		Type:        ledgerDomain.TypeDebit,
		Reason:      ledgerDomain.ReasonServiceUsage,
		Description: fmt.Sprintf("usage charge for instance %d: %d bytes", inst.ID(), usageToBill),
	})
	if err != nil {
		return false, err
	}

	if err := e.advanceWatermark(ctx, inst, rec.TotalUsageBytes); err != nil {
		return false, err
	}

	if !u.IsSolvent() || u.Balance()-cost <= 0 {
		e.logger.Warnw("user balance low after usage charge",
			"user_id", u.ID(), "instance_id", inst.ID(), "charge", cost)
	}

	return true, nil
}

// watermarkRetries bounds how often a conflicted watermark save is retried
// before the record is surfaced as failed.
const watermarkRetries = 3

// advanceWatermark saves the billed-usage watermark after the debit committed.
// A solvency pause triggered by that very debit can bump the instance version
// concurrently; on conflict the instance is re-fetched and the advance is
// re-applied, so the committed debit is never billed again on the next report.
func (e *Engine) advanceWatermark(ctx context.Context, inst *instanceDomain.Instance, totalUsage uint64) error {
	for attempt := 0; ; attempt++ {
		if err := inst.AdvanceBilledUsage(totalUsage); err != nil {
			return err
		}
		err := e.instances.Update(ctx, inst)
		if err == nil {
			return nil
		}
		if !errors.IsConflictError(err) || attempt+1 >= watermarkRetries {
			e.logger.Errorw("watermark not advanced, next report re-bills the delta",
				"instance_id", inst.ID(), "total_usage", totalUsage, "error", err)
			return err
		}

		e.logger.Warnw("instance moved during billing, retrying watermark advance",
			"instance_id", inst.ID(), "attempt", attempt+1)
		fresh, err := e.instances.GetByID(ctx, inst.ID())
		if err != nil {
			return err
		}
		if fresh.LastBilledUsage() >= totalUsage {
			return nil
		}
		inst = fresh
	}
}

// CalculateCost converts a byte delta into a charge in the smallest monetary
// unit. pricePerGiB is scaled by the user's multiplier and the result is
// rounded up, so any nonzero usage costs at least one unit.
func CalculateCost(usageBytes uint64, pricePerGiB int64, multiplier float64) int64 {
	if usageBytes == 0 || pricePerGiB <= 0 || multiplier <= 0 {
		return 0
	}
	cost := float64(usageBytes) / bytesPerGiB * float64(pricePerGiB) * multiplier
	return int64(math.Ceil(cost))
}
