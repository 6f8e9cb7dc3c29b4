// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/bank"
	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/plugin/metadata"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/blinklabs-io/guild/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/guild/governance"

// Op carries the identity of the caller and the height at which an
// operation executes. The height is read once per operation.
type Op struct {
	Caller string
	Height uint64
}

// EngineConfig holds the collaborators of an Engine
type EngineConfig struct {
	Database       *database.Database
	Bank           bank.Transferer
	EventBus       *event.EventBus
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// Engine is the governance and treasury state machine. Operations are
// serialized and each one runs in a single database transaction.
type Engine struct {
	config  EngineConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *engineMetrics
	mu      sync.Mutex
}

// NewEngine creates an Engine. The database must be bootstrapped with
// Bootstrap before mutating operations succeed.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errors.New("database is required")
	}
	if cfg.Bank == nil {
		return nil, errors.New("transfer primitive is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	e := &Engine{
		config: cfg,
		logger: cfg.Logger,
		tracer: tp.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		e.metrics = newEngineMetrics(cfg.PromRegistry)
	}
	return e, nil
}

type transferRecord struct {
	amount uint64
	from   string
	to     string
}

type pendingEvent struct {
	eventType event.EventType
	data      any
}

// opContext holds the per-operation view of the store
type opContext struct {
	ctx        context.Context
	op         Op
	engine     *Engine
	txn        *database.Txn
	state      *models.GovernanceState
	params     *models.GovernanceParams
	stateDirty bool
	transfers  []transferRecord
	events     []pendingEvent
}

func (c *opContext) meta() metadata.MetadataStore {
	return c.engine.config.Database.Metadata()
}

func (c *opContext) mtxn() types.Txn {
	return c.txn.Metadata()
}

func (c *opContext) load() error {
	state, err := c.meta().GetGovernanceState(c.mtxn())
	if err != nil {
		return fmt.Errorf("load governance state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("governance state: %w", ErrNotFound)
	}
	params, err := c.meta().GetGovernanceParams(c.mtxn())
	if err != nil {
		return fmt.Errorf("load governance parameters: %w", err)
	}
	if params == nil {
		return fmt.Errorf("governance parameters: %w", ErrNotFound)
	}
	c.state = state
	c.params = params
	return nil
}

func (c *opContext) markDirty() {
	c.stateDirty = true
}

func (c *opContext) flush() error {
	if !c.stateDirty {
		return nil
	}
	if err := c.meta().SetGovernanceState(c.state, c.mtxn()); err != nil {
		return fmt.Errorf("save governance state: %w", err)
	}
	c.stateDirty = false
	return nil
}

// available returns the treasury balance not reserved for return pools
func (c *opContext) available() uint64 {
	return uint64(c.state.Balance) - uint64(c.state.Reserved)
}

func (c *opContext) isAdmin() bool {
	return c.op.Caller != "" && c.op.Caller == c.state.Admin
}

func (c *opContext) member(identity string) (*models.Member, error) {
	member, err := c.meta().GetMember(identity, c.mtxn())
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	return member, nil
}

func (c *opContext) saveMember(member *models.Member) error {
	if err := c.meta().SetMember(member, c.mtxn()); err != nil {
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

func (c *opContext) proposal(id uint64) (*models.Proposal, error) {
	proposal, err := c.meta().GetProposal(id, c.mtxn())
	if err != nil {
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("proposal %d: %w", id, ErrNotFound)
	}
	return proposal, nil
}

func (c *opContext) saveProposal(proposal *models.Proposal) error {
	if err := c.meta().SetProposal(proposal, c.mtxn()); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

// journal queues a journal entry and an event for the operation
func (c *opContext) journal(
	operation string,
	subject string,
	amount uint64,
	eventType event.EventType,
) {
	c.txn.Journal(types.JournalEntry{
		Height:    c.op.Height,
		Caller:    c.op.Caller,
		Operation: operation,
		Subject:   subject,
		Amount:    amount,
	})
	c.events = append(c.events, pendingEvent{
		eventType: eventType,
		data: GovernanceEvent{
			Operation: operation,
			Caller:    c.op.Caller,
			Height:    c.op.Height,
			Subject:   subject,
			Amount:    amount,
		},
	})
}

// transfer writes pending state and then moves funds. It must be the last
// step of an operation.
func (c *opContext) transfer(amount uint64, from string, to string) error {
	if err := c.flush(); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if err := c.engine.config.Bank.Transfer(c.ctx, amount, from, to); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	c.transfers = append(
		c.transfers,
		transferRecord{amount: amount, from: from, to: to},
	)
	return nil
}

func (e *Engine) startSpan(
	ctx context.Context,
	name string,
	op Op,
) (context.Context, trace.Span) {
	return e.tracer.Start(
		ctx,
		"governance."+name,
		trace.WithAttributes(
			attribute.String("guild.operation", name),
			attribute.String("guild.caller", op.Caller),
			attribute.Int64("guild.height", int64(op.Height)), //nolint:gosec
		),
	)
}

type opFlags uint8

const (
	// Emergency control operations run while the emergency flag is set
	opEmergencyExempt opFlags = 1 << iota
	// Bootstrap runs before the singleton records exist
	opSkipLoad
)

// mutate runs fn in a read-write transaction. Unless opEmergencyExempt is
// set, the operation fails while the emergency flag is active.
func (e *Engine) mutate(
	ctx context.Context,
	name string,
	op Op,
	flags opFlags,
	fn func(*opContext) error,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctx, span := e.startSpan(ctx, name, op)
	defer span.End()
	start := time.Now()
	oc := &opContext{ctx: ctx, op: op, engine: e}
	err := e.config.Database.Transaction(true).Do(func(txn *database.Txn) error {
		oc.txn = txn
		if flags&opSkipLoad == 0 {
			if err := oc.load(); err != nil {
				return err
			}
			if flags&opEmergencyExempt == 0 && oc.state.EmergencyActive {
				return ErrEmergencyActive
			}
		}
		if err := fn(oc); err != nil {
			return err
		}
		return oc.flush()
	})
	if err != nil && len(oc.transfers) > 0 {
		// Funds moved but the bookkeeping did not commit
		e.compensate(ctx, oc.transfers)
	}
	if e.metrics != nil {
		e.metrics.observe(name, err, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
		e.logger.Debug(
			"governance operation failed",
			"component", "governance",
			"operation", name,
			"caller", op.Caller,
			"height", op.Height,
			"error", err,
		)
		return err
	}
	e.afterCommit(oc)
	return nil
}

func (e *Engine) compensate(ctx context.Context, transfers []transferRecord) {
	for i := len(transfers) - 1; i >= 0; i-- {
		t := transfers[i]
		if err := e.config.Bank.Transfer(
			context.WithoutCancel(ctx),
			t.amount,
			t.to,
			t.from,
		); err != nil {
			e.logger.Error(
				"failed to reverse transfer after aborted operation",
				"component", "governance",
				"amount", t.amount,
				"from", t.from,
				"to", t.to,
				"error", err,
			)
		}
	}
}

func (e *Engine) afterCommit(oc *opContext) {
	if e.metrics != nil && oc.state != nil {
		e.metrics.updateState(oc.state)
	}
	if e.config.EventBus == nil {
		return
	}
	for _, evt := range oc.events {
		e.config.EventBus.PublishAsync(
			evt.eventType,
			event.NewEvent(evt.eventType, evt.data),
		)
	}
}

// view runs fn in a read-only transaction
func (e *Engine) view(
	ctx context.Context,
	name string,
	fn func(*opContext) error,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctx, span := e.startSpan(ctx, name, Op{})
	defer span.End()
	txn := e.config.Database.Transaction(false)
	defer txn.Release()
	oc := &opContext{ctx: ctx, engine: e, txn: txn}
	if err := oc.load(); err != nil {
		span.RecordError(err)
		return err
	}
	if err := fn(oc); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Journal returns committed journal entries starting at sequence number from
func (e *Engine) Journal(
	ctx context.Context,
	from uint64,
	limit int,
) ([]types.JournalEntry, error) {
	var ret []types.JournalEntry
	err := e.view(ctx, "journal", func(oc *opContext) error {
		entries, err := e.config.Database.JournalEntries(from, limit, oc.txn)
		if err != nil {
			return err
		}
		ret = entries
		return nil
	})
	return ret, err
}
