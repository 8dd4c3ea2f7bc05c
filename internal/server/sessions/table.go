// Package sessions holds the process-wide bearer token table.
//
// Tokens live only in memory and never expire; they disappear when the
// process stops or when every session of their user is revoked. All methods
// are safe for concurrent use.
package sessions

import (
	"fmt"
	"sync"

	"github.com/deferscky/stringeditor/internal/common"
)

// Generation orders revocations. A login that started at generation g may
// only be issued a token if its user has not been revoked after g.
type Generation uint64

// revocation marks a user whose sessions are about to be revoked. done is
// closed once the outcome is applied.
type revocation struct {
	done chan struct{}
}

type Table struct {
	mu sync.RWMutex

	tokens map[string]int64
	byUser map[int64]map[string]struct{}

	generation Generation
	revokedAt  map[int64]Generation
	// logins counts in-flight logins by the generation they started at.
	logins map[Generation]int

	pending map[int64]*revocation

	newToken func() (string, error)
}

func New() *Table {
	return &Table{
		tokens:    make(map[string]int64),
		byUser:    make(map[int64]map[string]struct{}),
		revokedAt: make(map[int64]Generation),
		logins:    make(map[Generation]int),
		pending:   make(map[int64]*revocation),
		newToken: func() (string, error) {
			return common.MakeRandHexString(common.SessionTokenBytes)
		},
	}
}

// BeginLogin starts a login and returns the generation to pass to Issue.
// Every call must be paired with EndLogin.
func (t *Table) BeginLogin() Generation {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logins[t.generation]++
	return t.generation
}

// EndLogin finishes a login started at since.
func (t *Table) EndLogin(since Generation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.logins[since] <= 1 {
		delete(t.logins, since)
	} else {
		t.logins[since]--
	}
	t.pruneLocked()
}

// Issue creates a token for userID. It waits while the user's sessions are
// being revoked and fails with common.ErrorStaleSession when the user was
// revoked after since.
func (t *Table) Issue(userID int64, since Generation) (string, error) {
	token, err := t.newToken()
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		r, busy := t.pending[userID]
		if !busy {
			break
		}
		t.mu.Unlock()
		<-r.done
		t.mu.Lock()
	}

	if t.revokedAt[userID] > since {
		return "", common.ErrorStaleSession
	}

	for {
		if _, taken := t.tokens[token]; !taken {
			break
		}
		if token, err = t.newToken(); err != nil {
			return "", fmt.Errorf("token: %w", err)
		}
	}

	t.tokens[token] = userID
	set, ok := t.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		t.byUser[userID] = set
	}
	set[token] = struct{}{}

	return token, nil
}

// Resolve returns the user that owns token, or common.ErrorNotFound. A token
// whose user is being revoked resolves once the revocation settles.
func (t *Table) Resolve(token string) (int64, error) {
	t.mu.RLock()
	for {
		userID, ok := t.tokens[token]
		if !ok {
			t.mu.RUnlock()
			return 0, common.ErrorNotFound
		}
		r, busy := t.pending[userID]
		if !busy {
			t.mu.RUnlock()
			return userID, nil
		}
		t.mu.RUnlock()
		<-r.done
		t.mu.RLock()
	}
}

// RevokeAll removes every token of userID and returns how many there were.
func (t *Table) RevokeAll(userID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revokeLocked(userID)
}

// RevokeAllAfter runs commit and, only if it succeeds, removes every token
// of userID. While commit runs the user's tokens neither resolve nor get
// issued; other users are not held up. Revocations of one user run one at
// a time. If commit fails the table is left untouched.
func (t *Table) RevokeAllAfter(userID int64, commit func() error) (int, error) {
	r := &revocation{done: make(chan struct{})}

	t.mu.Lock()
	for {
		prev, busy := t.pending[userID]
		if !busy {
			break
		}
		t.mu.Unlock()
		<-prev.done
		t.mu.Lock()
	}
	t.pending[userID] = r
	t.mu.Unlock()

	err := runCommit(commit)

	t.mu.Lock()
	defer t.mu.Unlock()
	defer close(r.done)
	delete(t.pending, userID)

	if err != nil {
		return 0, err
	}
	return t.revokeLocked(userID), nil
}

// Revoking reports whether a revocation of userID is in progress.
func (t *Table) Revoking(userID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, busy := t.pending[userID]
	return busy
}

// runCommit turns a panic in commit into an error so the pending mark is
// always cleared.
func runCommit(commit func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("commit panicked: %v", p)
		}
	}()
	return commit()
}

func (t *Table) revokeLocked(userID int64) int {
	t.generation++
	t.revokedAt[userID] = t.generation

	set := t.byUser[userID]
	for token := range set {
		delete(t.tokens, token)
	}
	delete(t.byUser, userID)

	t.pruneLocked()
	return len(set)
}

// pruneLocked drops revocation marks no in-flight login can be older than.
func (t *Table) pruneLocked() {
	floor := t.generation
	for g := range t.logins {
		if g < floor {
			floor = g
		}
	}
	for userID, g := range t.revokedAt {
		if g <= floor {
			delete(t.revokedAt, userID)
		}
	}
}

// Count returns the number of live tokens.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tokens)
}

// UserCount returns the number of live tokens of userID.
func (t *Table) UserCount(userID int64) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byUser[userID])
}
