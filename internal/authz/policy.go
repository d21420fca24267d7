// Package authz decides whether a role may call a route.
package authz

import "github.com/Skotchmaster/electro_shop/pkg/models"

type Requirement string

const (
	Public        Requirement = "public"
	Authenticated Requirement = "authenticated"
	UserOnly      Requirement = models.RoleUser
	AdminOnly     Requirement = models.RoleAdmin
)

// Policy maps "METHOD /path/:param" to the requirement for that route.
// Routes that were never declared are denied.
type Policy struct {
	rules map[string]Requirement
}

func NewPolicy() *Policy {
	return &Policy{rules: make(map[string]Requirement)}
}

func key(method, path string) string { return method + " " + path }

func (p *Policy) Set(method, path string, req Requirement) {
	p.rules[key(method, path)] = req
}

func (p *Policy) Requirement(method, path string) (Requirement, bool) {
	req, ok := p.rules[key(method, path)]
	return req, ok
}

// Allow reports whether role may call the route. An empty role means no session.
func (p *Policy) Allow(method, path, role string) bool {
	req, ok := p.Requirement(method, path)
	if !ok {
		return false
	}
	switch req {
	case Public:
		return true
	case Authenticated:
		return role == models.RoleUser || role == models.RoleAdmin
	case UserOnly, AdminOnly:
		return role == string(req)
	}
	return false
}
