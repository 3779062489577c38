package store

import "fmt"

type Layout string

const (
	// LayoutLegacy uses the raw keys written by the mobile app. Event names
	// share one namespace with usernames and the users list.
	LayoutLegacy     Layout = "legacy"
	LayoutNamespaced Layout = "namespaced"
)

// Keyspace maps entities to store keys.
type Keyspace struct {
	layout Layout
}

func NewKeyspace(layout Layout) (Keyspace, error) {
	switch layout {
	case LayoutLegacy, LayoutNamespaced:
		return Keyspace{layout: layout}, nil
	case "":
		return Keyspace{layout: LayoutNamespaced}, nil
	default:
		return Keyspace{}, fmt.Errorf("unknown key layout %q", layout)
	}
}

func (k Keyspace) Layout() Layout {
	if k.layout == "" {
		return LayoutNamespaced
	}
	return k.layout
}

func (k Keyspace) Users() string {
	return "users"
}

func (k Keyspace) Index(username string) string {
	if k.Layout() == LayoutLegacy {
		return username
	}
	return "index/" + username
}

func (k Keyspace) Event(name string) string {
	if k.Layout() == LayoutLegacy {
		return name
	}
	return "event/" + name
}

func (k Keyspace) Profile(username string) string {
	if k.Layout() == LayoutLegacy {
		return username + "profile"
	}
	return "profile/" + username
}

func (k Keyspace) Session(token string) string {
	if k.Layout() == LayoutLegacy {
		return "session:" + token
	}
	return "session/" + token
}
