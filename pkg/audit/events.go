package audit

import "fmt"

// CheckEvent represents an authorization decision
type CheckEvent struct {
	Principal    string
	Ability      string
	Scope        string
	ResourceType string
	ResourceID   string
	Allowed      bool
	Tier         string
	Cached       bool
	ErrorMessage string
}

func (e CheckEvent) MessageID() string {
	return "check"
}

func (e CheckEvent) target() string {
	switch {
	case e.ResourceType == "":
		return "anything"
	case e.ResourceID == "":
		return e.ResourceType
	}
	return e.ResourceType + ":" + e.ResourceID
}

func (e CheckEvent) Message() string {
	if e.ErrorMessage != "" {
		return fmt.Sprintf("%s could not be checked for %s on %s: %s", e.Principal, e.Ability, e.target(), e.ErrorMessage)
	}
	if e.Allowed {
		return fmt.Sprintf("%s checked permission %s on %s: allowed", e.Principal, e.Ability, e.target())
	}
	return fmt.Sprintf("%s checked permission %s on %s: denied", e.Principal, e.Ability, e.target())
}

func (e CheckEvent) Severity() Severity {
	if e.ErrorMessage != "" {
		return SeverityError
	}
	return SeverityInfo
}

func (e CheckEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CheckEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"principal": e.Principal,
		},
		SDIDSubject: {
			"ability":       e.Ability,
			"scope":         e.Scope,
			"resource_type": e.ResourceType,
			"resource_id":   e.ResourceID,
		},
		SDIDAction: {
			"operation": "check",
			"result":    result(e.Allowed && e.ErrorMessage == ""),
			"tier":      e.Tier,
			"cached":    fmt.Sprintf("%t", e.Cached),
		},
	}
}

// PermissionEvent represents a change to the grant ledger
type PermissionEvent struct {
	Actor        string
	Operation    string // allow, forbid, disallow, unforbid
	Entity       string
	Ability      string
	Scope        string
	ResourceType string
	ResourceID   string
	Success      bool
	ErrorMessage string
}

func (e PermissionEvent) MessageID() string {
	return "permission"
}

func (e PermissionEvent) Message() string {
	target := e.Ability
	if e.ResourceType != "" {
		target += " on " + e.ResourceType
		if e.ResourceID != "" {
			target += ":" + e.ResourceID
		}
	}
	if e.Success {
		return fmt.Sprintf("%s ran %s of %s for %s", e.Actor, e.Operation, target, e.Entity)
	}
	return withError(fmt.Sprintf("%s failed to %s %s for %s", e.Actor, e.Operation, target, e.Entity), e.ErrorMessage)
}

func (e PermissionEvent) Severity() Severity {
	return severity(e.Success)
}

func (e PermissionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PermissionEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Actor,
		},
		SDIDSubject: {
			"entity":        e.Entity,
			"ability":       e.Ability,
			"scope":         e.Scope,
			"resource_type": e.ResourceType,
			"resource_id":   e.ResourceID,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}

// MembershipEvent represents a role assignment or retraction
type MembershipEvent struct {
	Actor        string
	Operation    string // assign, retract
	Role         string
	Scope        string
	Principal    string
	Success      bool
	ErrorMessage string
}

func (e MembershipEvent) MessageID() string {
	return "membership"
}

func (e MembershipEvent) Message() string {
	verb := "assigned"
	prep := "to"
	if e.Operation == "retract" {
		verb, prep = "retracted", "from"
	}
	if e.Success {
		return fmt.Sprintf("%s %s role %s %s %s", e.Actor, verb, e.Role, prep, e.Principal)
	}
	return withError(fmt.Sprintf("%s failed to %s role %s %s %s", e.Actor, e.Operation, e.Role, prep, e.Principal), e.ErrorMessage)
}

func (e MembershipEvent) Severity() Severity {
	return severity(e.Success)
}

func (e MembershipEvent) Facility() int {
	return FacilityAuthPriv
}

func (e MembershipEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Actor,
		},
		SDIDSubject: {
			"role":      e.Role,
			"scope":     e.Scope,
			"principal": e.Principal,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}

// AbilityEvent represents a change to the ability registry
type AbilityEvent struct {
	Actor        string
	Operation    string // define, update, delete
	Ability      string
	Scope        string
	Success      bool
	ErrorMessage string
}

func (e AbilityEvent) MessageID() string {
	return "ability"
}

func (e AbilityEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s ran %s of ability %s", e.Actor, e.Operation, e.Ability)
	}
	return withError(fmt.Sprintf("%s failed to %s ability %s", e.Actor, e.Operation, e.Ability), e.ErrorMessage)
}

func (e AbilityEvent) Severity() Severity {
	return severity(e.Success)
}

func (e AbilityEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AbilityEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Actor,
		},
		SDIDSubject: {
			"ability": e.Ability,
			"scope":   e.Scope,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}

// RoleEvent represents a change to the role store
type RoleEvent struct {
	Actor        string
	Operation    string // upsert, create, delete
	Role         string
	Scope        string
	Success      bool
	ErrorMessage string
}

func (e RoleEvent) MessageID() string {
	return "role"
}

func (e RoleEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s ran %s of role %s", e.Actor, e.Operation, e.Role)
	}
	return withError(fmt.Sprintf("%s failed to %s role %s", e.Actor, e.Operation, e.Role), e.ErrorMessage)
}

func (e RoleEvent) Severity() Severity {
	return severity(e.Success)
}

func (e RoleEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RoleEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Actor,
		},
		SDIDSubject: {
			"role":  e.Role,
			"scope": e.Scope,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}
