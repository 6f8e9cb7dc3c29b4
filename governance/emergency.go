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
	"fmt"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
)

// EmergencyAdmin is a member of the emergency admin set
type EmergencyAdmin struct {
	Identity string `json:"identity"`
	AddedAt  uint64 `json:"addedAt"`
}

func (c *opContext) isEmergencyAdmin() (bool, error) {
	if c.op.Caller == "" {
		return false, nil
	}
	admin, err := c.meta().GetEmergencyAdmin(c.op.Caller, c.mtxn())
	if err != nil {
		return false, fmt.Errorf("load emergency admin: %w", err)
	}
	return admin != nil, nil
}

// SetEmergencyState sets the emergency flag and returns the new state.
// Only emergency admins may call it.
func (e *Engine) SetEmergencyState(ctx context.Context, op Op, active bool) (bool, error) {
	err := e.mutate(ctx, "set_emergency_state", op, opEmergencyExempt, func(c *opContext) error {
		ok, err := c.isEmergencyAdmin()
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotAuthorized
		}
		c.state.EmergencyActive = active
		c.markDirty()
		subject := "inactive"
		if active {
			subject = "active"
		}
		c.journal("set_emergency_state", subject, 0, EventTypeEmergency)
		return nil
	})
	if err != nil {
		return false, err
	}
	if active {
		e.logger.Warn(
			"emergency state activated",
			"component", "governance",
			"caller", op.Caller,
			"height", op.Height,
		)
	} else {
		e.logger.Info(
			"emergency state cleared",
			"component", "governance",
			"caller", op.Caller,
			"height", op.Height,
		)
	}
	return active, nil
}

// AddEmergencyAdmin adds admin to the emergency admin set. It returns false
// when admin is already a member of the set. Only the primary admin may
// call it.
func (e *Engine) AddEmergencyAdmin(ctx context.Context, op Op, admin string) (bool, error) {
	added := false
	err := e.mutate(ctx, "add_emergency_admin", op, opEmergencyExempt, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		if admin == "" || admin == c.state.TreasuryIdentity {
			return fmt.Errorf("%w: invalid emergency admin %q", ErrInvalidParameter, admin)
		}
		existing, err := c.meta().GetEmergencyAdmin(admin, c.mtxn())
		if err != nil {
			return fmt.Errorf("load emergency admin: %w", err)
		}
		if existing != nil {
			return nil
		}
		if err := c.meta().AddEmergencyAdmin(
			&models.EmergencyAdmin{Identity: admin, AddedAt: op.Height},
			c.mtxn(),
		); err != nil {
			return fmt.Errorf("save emergency admin: %w", err)
		}
		c.journal("add_emergency_admin", admin, 0, EventTypeEmergency)
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveEmergencyAdmin removes admin from the emergency admin set. Only the
// primary admin may call it.
func (e *Engine) RemoveEmergencyAdmin(ctx context.Context, op Op, admin string) error {
	return e.mutate(ctx, "remove_emergency_admin", op, opEmergencyExempt, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		existing, err := c.meta().GetEmergencyAdmin(admin, c.mtxn())
		if err != nil {
			return fmt.Errorf("load emergency admin: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("%w: unknown emergency admin %q", ErrInvalidParameter, admin)
		}
		if err := c.meta().DeleteEmergencyAdmin(admin, c.mtxn()); err != nil {
			return fmt.Errorf("delete emergency admin: %w", err)
		}
		c.journal("remove_emergency_admin", admin, 0, EventTypeEmergency)
		return nil
	})
}

// EmergencyWithdraw moves unreserved treasury funds to a recovery identity
// while the emergency flag is set. Only the primary admin may call it.
func (e *Engine) EmergencyWithdraw(ctx context.Context, op Op, to string, amount uint64) error {
	return e.mutate(ctx, "emergency_withdraw", op, opEmergencyExempt, func(c *opContext) error {
		if !c.isAdmin() {
			return ErrNotAuthorized
		}
		if !c.state.EmergencyActive {
			return ErrNotEmergency
		}
		if to == "" || to == c.state.TreasuryIdentity {
			return fmt.Errorf("%w: invalid recipient %q", ErrInvalidParameter, to)
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if c.available() < amount {
			return ErrInsufficientFunds
		}
		c.state.Balance -= types.Uint64(amount)
		c.markDirty()
		c.journal("emergency_withdraw", to, amount, EventTypeEmergency)
		return c.transfer(amount, c.state.TreasuryIdentity, to)
	})
}

// EmergencyAdmins returns the emergency admin set
func (e *Engine) EmergencyAdmins(ctx context.Context) ([]EmergencyAdmin, error) {
	var ret []EmergencyAdmin
	err := e.view(ctx, "emergency_admins", func(c *opContext) error {
		admins, err := c.meta().GetEmergencyAdmins(c.mtxn())
		if err != nil {
			return fmt.Errorf("load emergency admins: %w", err)
		}
		ret = make([]EmergencyAdmin, 0, len(admins))
		for _, admin := range admins {
			ret = append(ret, EmergencyAdmin{Identity: admin.Identity, AddedAt: admin.AddedAt})
		}
		return nil
	})
	return ret, err
}
