package memstore

import (
	"context"
	"sort"

	"github.com/dalemusser/rollbook/internal/app/store"
	"github.com/dalemusser/rollbook/internal/domain/models"
)

type permissionRow = models.Permission

// PermissionTable holds one permission per account.
type PermissionTable struct {
	t *table[string, permissionRow]
}

// FailWith makes every call return err until called again with nil.
func (p *PermissionTable) FailWith(err error) { p.t.failWith(err) }

func (p *PermissionTable) Get(_ context.Context, account string) (models.Permission, error) {
	p.t.mu.RLock()
	defer p.t.mu.RUnlock()
	if p.t.fail != nil {
		return models.Permission{}, p.t.fail
	}
	perm, ok := p.t.rows[account]
	if !ok {
		return models.Permission{}, store.ErrNotFound
	}
	return perm, nil
}

func (p *PermissionTable) Set(_ context.Context, perm models.Permission, actor string) (models.Permission, error) {
	if err := perm.Validate(); err != nil {
		return models.Permission{}, err
	}
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p.t.fail != nil {
		return models.Permission{}, p.t.fail
	}
	ts := now()
	if cur, ok := p.t.rows[perm.StudentAccount]; ok {
		cur.CanMarkAttendance = perm.CanMarkAttendance
		cur.CanEditGrades = perm.CanEditGrades
		cur.IsGroupLeader = perm.IsGroupLeader
		cur.Role = perm.Role
		cur.UpdatedAt = ts
		p.t.rows[perm.StudentAccount] = cur
		return cur, nil
	}
	perm.CreatedAt = ts
	perm.UpdatedAt = ts
	perm.CreatedBy = actor
	p.t.rows[perm.StudentAccount] = perm
	return perm, nil
}

func (p *PermissionTable) Delete(_ context.Context, account string) error {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p.t.fail != nil {
		return p.t.fail
	}
	delete(p.t.rows, account)
	return nil
}

func (p *PermissionTable) ListByCapability(_ context.Context, c models.Capability) ([]models.Permission, error) {
	p.t.mu.RLock()
	defer p.t.mu.RUnlock()
	if p.t.fail != nil {
		return nil, p.t.fail
	}
	var out []models.Permission
	for _, perm := range p.t.rows {
		if perm.Has(c) {
			out = append(out, perm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentAccount < out[j].StudentAccount })
	return out, nil
}
