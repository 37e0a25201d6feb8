// Package authz holds the permission tables consulted before any
// role- or ownership-gated operation.
package authz

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"pera.com/perasystem/pkg/apperror"
)

// Subject is the authenticated caller.
type Subject struct {
	UserID uuid.UUID
	Role   string
}

// Predicate decides whether sub may act on obj. obj is whatever the
// module passed to Authorize, usually the loaded entity.
type Predicate func(sub Subject, obj any) bool

type rule struct {
	message    string
	predicates []Predicate
}

type ruleKey struct {
	resource string
	action   string
}

// Evaluator answers (resource, action) questions from registered rules.
// An action with no rule is denied.
type Evaluator struct {
	mu    sync.RWMutex
	rules map[ruleKey]rule
}

func NewEvaluator() *Evaluator {
	return &Evaluator{rules: make(map[ruleKey]rule)}
}

// Allow registers the predicates for an action. Any predicate grants access.
// message is returned, wrapped in ErrForbidden, when none does.
func (e *Evaluator) Allow(resource, action, message string, predicates ...Predicate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[ruleKey{resource, action}] = rule{message: message, predicates: predicates}
}

// Can reports whether sub may perform action on obj.
func (e *Evaluator) Can(sub Subject, resource, action string, obj any) bool {
	e.mu.RLock()
	r, ok := e.rules[ruleKey{resource, action}]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	for _, p := range r.predicates {
		if p(sub, obj) {
			return true
		}
	}
	return false
}

// Authorize is Can returning an ErrForbidden-wrapped error on denial.
func (e *Evaluator) Authorize(sub Subject, resource, action string, obj any) error {
	if e.Can(sub, resource, action, obj) {
		return nil
	}

	e.mu.RLock()
	msg := e.rules[ruleKey{resource, action}].message
	e.mu.RUnlock()
	if msg == "" {
		msg = fmt.Sprintf("not authorized to %s %s", action, resource)
	}
	return fmt.Errorf("%w: %s", apperror.ErrForbidden, msg)
}

// Authenticated grants any caller that carries a user id.
func Authenticated(sub Subject, _ any) bool {
	return sub.UserID != uuid.Nil
}

// AnyRole grants callers holding one of roles.
func AnyRole(roles ...string) Predicate {
	return func(sub Subject, _ any) bool {
		for _, r := range roles {
			if sub.Role == r {
				return true
			}
		}
		return false
	}
}

// All grants only when every predicate does.
func All(predicates ...Predicate) Predicate {
	return func(sub Subject, obj any) bool {
		for _, p := range predicates {
			if !p(sub, obj) {
				return false
			}
		}
		return len(predicates) > 0
	}
}

// Self grants when obj is the caller's own user id.
func Self(sub Subject, obj any) bool {
	id, ok := obj.(uuid.UUID)
	return ok && id != uuid.Nil && id == sub.UserID
}
