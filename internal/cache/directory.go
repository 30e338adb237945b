// Package cache holds the short-lived clinic directory cache. Branch
// and professional listings change rarely but back every availability
// and scheduling call, so they are kept in-process with a TTL.
package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agendalink/gateway/internal/model"
)

const (
	DefaultTTL     = 5 * time.Minute
	defaultCleanup = 10 * time.Minute
)

type Directory struct {
	store *gocache.Cache
}

func NewDirectory(ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{store: gocache.New(ttl, defaultCleanup)}
}

func branchesKey(clientID string, typ model.IntegrationType) string {
	return fmt.Sprintf("branches:%s:%s", clientID, typ)
}

func professionalsKey(clientID string, typ model.IntegrationType) string {
	return fmt.Sprintf("professionals:%s:%s", clientID, typ)
}

func (d *Directory) Branches(clientID string, typ model.IntegrationType) ([]model.BranchResult, bool) {
	v, ok := d.store.Get(branchesKey(clientID, typ))
	if !ok {
		return nil, false
	}
	branches, ok := v.([]model.BranchResult)
	return branches, ok
}

func (d *Directory) SetBranches(clientID string, typ model.IntegrationType, branches []model.BranchResult) {
	d.store.SetDefault(branchesKey(clientID, typ), branches)
}

func (d *Directory) Professionals(clientID string, typ model.IntegrationType) ([]model.ProfessionalResult, bool) {
	v, ok := d.store.Get(professionalsKey(clientID, typ))
	if !ok {
		return nil, false
	}
	profs, ok := v.([]model.ProfessionalResult)
	return profs, ok
}

func (d *Directory) SetProfessionals(clientID string, typ model.IntegrationType, profs []model.ProfessionalResult) {
	d.store.SetDefault(professionalsKey(clientID, typ), profs)
}

// Invalidate drops every cached listing of one client, called when its
// integration configuration changes.
func (d *Directory) Invalidate(clientID string) {
	for key := range d.store.Items() {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) == 3 && parts[1] == clientID {
			d.store.Delete(key)
		}
	}
}
