// Package session owns the portal's current-user state: it restores and
// persists the session snapshot, resolves capabilities for the logged-in
// user and keeps their permissions in sync with live edits.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/jukulab/shiken/core"
	"github.com/jukulab/shiken/core/permission"
	"github.com/jukulab/shiken/core/user"
	"github.com/jukulab/shiken/storage/kv"
)

// storage keys; the session store holds exactly these two.
const (
	tokensKey = "auth.tokens"
	userKey   = "auth.user"
)

type (
	// Tokens is the access/refresh pair returned by the login endpoint.
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	// LoginResult is the login endpoint's response payload.
	LoginResult struct {
		User    user.User `json:"user"`
		Access  string    `json:"access"`
		Refresh string    `json:"refresh"`
	}

	// API is the portal REST API as seen by the session core.
	API interface {
		Login(ctx context.Context, username, password string) (LoginResult, error)
		Profile(ctx context.Context, accessToken string) (user.User, error)
		ClassroomPermissions(ctx context.Context, accessToken string, classroomID int) (permission.Set, error)
		SchoolSettings(ctx context.Context, accessToken string, schoolID int) (permission.SchoolPolicy, error)
	}

	// Scope identifies which tenant a permission edit targeted.
	Scope int

	// Manager is the single owner of the current session. All mutation goes
	// through Login, Logout and the permission-change path; reads are
	// synchronous snapshots.
	Manager struct {
		api   API
		store kv.Store
		bus   *permission.Bus
		log   core.Logger

		mu        sync.RWMutex
		usr       *user.User
		tokens    *Tokens
		policy    *permission.SchoolPolicy // read-through cache, nil when unknown
		loading   bool
		cancelSub func()
	}
)

const (
	ScopeClassroom Scope = iota
	ScopeSchool
)

// NewManager wires the session core. The bus subscription lives until
// Close.
func NewManager(api API, store kv.Store, bus *permission.Bus, log core.Logger) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		bus:   bus,
		log:   log,
	}
	m.cancelSub = bus.Subscribe(m.onPermissionsChanged)
	return m
}

// Close tears the bus subscription down. The Manager keeps working for
// synchronous reads afterwards.
func (m *Manager) Close() {
	if m.cancelSub != nil {
		m.cancelSub()
		m.cancelSub = nil
	}
}

// Initialize restores a previous session from the store. It never fails
// past its own boundary: unusable state is logged and degrades to "logged
// out"; a failed permission sync degrades to resolver defaults.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	tokens := m.loadTokens()
	usr := m.loadUser()

	switch {
	case usr != nil:
		// snapshot is the source of truth; only a classroom admin missing
		// their permission set triggers a best-effort sync
		if usr.IsClassroomAdmin() && usr.Permissions == nil && usr.ClassroomID != 0 && tokens != nil {
			if perms, err := m.api.ClassroomPermissions(ctx, tokens.Access, usr.ClassroomID); err != nil {
				m.log.Warn("session: permission sync failed; conservative defaults apply", err)
			} else {
				usr.Permissions = perms.KnownOnly()
				if err = m.saveUser(*usr); err != nil {
					m.log.Error("session: persisting synced snapshot", err)
				}
			}
		}
	case tokens != nil:
		fetched, err := m.api.Profile(ctx, tokens.Access)
		if err != nil {
			m.log.Warn("session: profile fetch failed; treating as logged out", err)
			m.clear()
			return
		}
		usr = &fetched
		if usr.IsClassroomAdmin() && usr.Permissions == nil && usr.ClassroomID != 0 {
			if perms, err := m.api.ClassroomPermissions(ctx, tokens.Access, usr.ClassroomID); err != nil {
				m.log.Warn("session: permission sync failed; conservative defaults apply", err)
			} else {
				usr.Permissions = perms.KnownOnly()
			}
		}
		if err = m.saveUser(*usr); err != nil {
			m.log.Error("session: persisting fetched snapshot", err)
		}
	default:
		return // nothing stored; logged out
	}

	policy := m.fetchPolicy(ctx, usr, tokens)

	m.mu.Lock()
	m.usr, m.tokens, m.policy = usr, tokens, policy
	m.mu.Unlock()
}

// Login exchanges credentials for a session. For a classroom admin the
// classroom's permission set is merged in before the user is exposed, so
// the first capability check already sees the right answers. All failures
// propagate to the caller.
func (m *Manager) Login(ctx context.Context, username, password string) (user.User, error) {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		return user.User{}, err
	}

	usr := res.User
	if usr.IsClassroomAdmin() && usr.ClassroomID != 0 {
		perms, err := m.api.ClassroomPermissions(ctx, res.Access, usr.ClassroomID)
		if err != nil {
			return user.User{}, errors.Wrap(err, "fetching classroom permissions")
		}
		usr.Permissions = perms.KnownOnly()
	}

	tokens := &Tokens{Access: res.Access, Refresh: res.Refresh}
	policy := m.fetchPolicy(ctx, &usr, tokens)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err = m.saveTokens(*tokens); err != nil {
		return user.User{}, errors.Wrap(err, "persisting tokens")
	}
	if err = m.saveUser(usr); err != nil {
		return user.User{}, errors.Wrap(err, "persisting user snapshot")
	}
	m.usr, m.tokens, m.policy = &usr, tokens, policy
	return usr, nil
}

// Logout clears the stored and in-memory session. Idempotent; no network.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Current returns a copy of the logged-in user, or nil.
func (m *Manager) Current() *user.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.usr == nil {
		return nil
	}
	usr := *m.usr
	usr.Permissions = m.usr.Permissions.Clone()
	return &usr
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usr != nil
}

// IsLoading reports whether Initialize is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// AccessToken returns the current access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.tokens == nil {
		return ""
	}
	return m.tokens.Access
}

// Can resolves a capability for the current user under the cached school
// policy. Safe to call on every render.
func (m *Manager) Can(cap permission.Capability) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return user.Can(m.usr, cap, m.policy)
}

// PermissionsEdited is called by edit surfaces after a permission edit
// succeeded against the API. When the edited tenant is the current user's
// own, the snapshot is persisted first and then exactly one change event
// is published; otherwise nothing happens.
func (m *Manager) PermissionsEdited(scope Scope, tenantID int, perms permission.Set) {
	m.mu.Lock()

	if !m.matchesLocked(scope, tenantID) {
		m.mu.Unlock()
		return
	}

	usr := *m.usr
	usr.Permissions = perms.KnownOnly()
	if err := m.saveUser(usr); err != nil {
		// the event must not outrun the snapshot
		m.log.Error("session: persisting edited snapshot; change not broadcast", err)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.bus.Publish(permission.Changed{Permissions: usr.Permissions})
}

// SettingsEdited refreshes the cached school policy after a school
// settings edit, when it targets the current user's school.
func (m *Manager) SettingsEdited(schoolID int, policy permission.SchoolPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usr == nil || m.usr.SchoolID != schoolID {
		return
	}
	m.policy = &policy
}

// onPermissionsChanged is the bus subscription: replace the in-memory
// permission set with the payload. Persistence already happened on the
// publishing side.
func (m *Manager) onPermissionsChanged(ev permission.Changed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usr == nil {
		return
	}
	m.usr.Permissions = ev.Permissions.Clone()
}

func (m *Manager) matchesLocked(scope Scope, tenantID int) bool {
	if m.usr == nil {
		return false
	}
	switch scope {
	case ScopeClassroom:
		return m.usr.IsClassroomAdmin() && m.usr.ClassroomID == tenantID
	case ScopeSchool:
		return m.usr.SchoolID == tenantID
	}
	return false
}

// fetchPolicy best-effort loads the school policy for classroom admins;
// failures leave the kill switch disengaged and are only logged.
func (m *Manager) fetchPolicy(ctx context.Context, usr *user.User, tokens *Tokens) *permission.SchoolPolicy {
	if usr == nil || !usr.IsClassroomAdmin() || tokens == nil {
		return nil
	}
	policy, err := m.api.SchoolSettings(ctx, tokens.Access, usr.SchoolID)
	if err != nil {
		m.log.Warn("session: school settings fetch failed", err)
		return nil
	}
	return &policy
}

func (m *Manager) loadTokens() *Tokens {
	raw, err := m.store.Get(tokensKey)
	if err != nil {
		if err != kv.ErrNotFound {
			m.log.Warn("session: reading stored tokens", err)
		}
		return nil
	}
	var tokens Tokens
	if err = json.Unmarshal(raw, &tokens); err != nil {
		m.log.Warn("session: decoding stored tokens", err)
		return nil
	}
	return &tokens
}

func (m *Manager) loadUser() *user.User {
	raw, err := m.store.Get(userKey)
	if err != nil {
		if err != kv.ErrNotFound {
			m.log.Warn("session: reading stored user snapshot", err)
		}
		return nil
	}
	var usr user.User
	if err = json.Unmarshal(raw, &usr); err != nil {
		m.log.Warn("session: decoding stored user snapshot", err)
		return nil
	}
	return &usr
}

func (m *Manager) saveTokens(tokens Tokens) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return m.store.Set(tokensKey, raw)
}

func (m *Manager) saveUser(usr user.User) error {
	raw, err := json.Marshal(usr)
	if err != nil {
		return err
	}
	return m.store.Set(userKey, raw)
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Manager) clearLocked() {
	if err := m.store.Delete(tokensKey, userKey); err != nil {
		m.log.Error("session: clearing store", err)
	}
	m.usr, m.tokens, m.policy = nil, nil, nil
}
