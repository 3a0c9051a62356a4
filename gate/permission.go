package gate

import "strings"

// Action is the verb half of a permission.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionAssist lets staff open any client's case through the in-person flows.
	ActionAssist Action = "assist"
	// ActionFinish closes a case without payment.
	ActionFinish Action = "finish"
	// ActionPay starts the hosted checkout for a case.
	ActionPay Action = "pay"
)

// Permission is a "resource:action" pair. Either half may be "*".
type Permission string

const (
	Wildcard                        = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission builds "resource:action".
func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits the permission; malformed values return empty halves.
func (p Permission) Parse() (resource string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether a granted permission p covers the requested one.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == Wildcard || res == reqRes) && (string(act) == Wildcard || act == reqAct)
}
