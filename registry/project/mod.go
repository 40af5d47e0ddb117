// Package project implements the whitelist of research projects.
package project

import (
	"sort"

	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"golang.org/x/xerrors"
)

// Project is one whitelisted project.
type Project struct {
	Name string
	URL  string
	Time int64
}

// Whitelist holds the derived project state rebuilt from historical
// contracts.
//
// - implements dispatch.Handler
type Whitelist struct {
	projects map[string]Project
}

// NewWhitelist creates an empty whitelist.
func NewWhitelist() *Whitelist {
	wl := &Whitelist{}
	wl.Reset()

	return wl
}

// Reset implements dispatch.Handler. It clears all derived state.
func (w *Whitelist) Reset() {
	w.projects = make(map[string]Project)
}

// Validate implements dispatch.Handler. A removal must name a whitelisted
// project.
func (w *Whitelist) Validate(c contract.Contract, tx *chain.Transaction) bool {
	payload, err := c.SharePayload()
	if err != nil {
		return false
	}

	if c.Action == contract.ActionRemove {
		_, found := w.projects[payload.LegacyKeyString()]

		return found
	}

	return true
}

// Add implements dispatch.Handler.
func (w *Whitelist) Add(ctx dispatch.Context) error {
	payload, err := sharedPayload(ctx.Contract)
	if err != nil {
		return err
	}

	w.projects[payload.Name] = Project{
		Name: payload.Name,
		URL:  payload.URL,
		Time: ctx.Tx.Time,
	}

	return nil
}

// Delete implements dispatch.Handler.
func (w *Whitelist) Delete(ctx dispatch.Context) error {
	payload, err := sharedPayload(ctx.Contract)
	if err != nil {
		return err
	}

	delete(w.projects, payload.Name)

	return nil
}

// Revert implements dispatch.Handler.
func (w *Whitelist) Revert(ctx dispatch.Context) error {
	return dispatch.DefaultRevert(w, ctx)
}

// Try returns the whitelisted project with the given name.
func (w *Whitelist) Try(name string) (Project, bool) {
	project, found := w.projects[name]

	return project, found
}

// Names returns the whitelisted project names in lexical order.
func (w *Whitelist) Names() []string {
	names := make([]string, 0, len(w.projects))
	for name := range w.projects {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Count returns the number of whitelisted projects.
func (w *Whitelist) Count() int {
	return len(w.projects)
}

func sharedPayload(c contract.Contract) (*contract.ProjectPayload, error) {
	payload, err := c.SharePayload()
	if err != nil {
		return nil, xerrors.Errorf("couldn't share payload: %v", err)
	}

	project, ok := payload.(*contract.ProjectPayload)
	if !ok {
		return nil, xerrors.Errorf("unexpected payload type '%T'", payload)
	}

	return project, nil
}
