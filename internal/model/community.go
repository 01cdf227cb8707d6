package model

// Visibility of a community on the platform
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Community is a snapshot of one quest board, fetched once per run
type Community struct {
	ID         string     `json:"id,omitempty"`
	Subdomain  string     `json:"subdomain"` // Unique key, also the host prefix on the platform
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Quests     int        `json:"quests"` // Number of quests advertised by the platform
}

// IsPrivate reports whether the community is private
func (c Community) IsPrivate() bool {
	return c.Visibility == VisibilityPrivate
}

// User is the authenticated platform account
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TwitterUsername string `json:"twitterUsername,omitempty"`
	DiscordHandle   string `json:"discordHandle,omitempty"`
}

// Notification is an entry of the per-community notification feed
type Notification struct {
	ID     string              `json:"id"`
	Type   string              `json:"type"`   // "claim", "review", ...
	Status string              `json:"status"` // "success", "fail", "pending"
	Title  string              `json:"title"`
	Events []NotificationEvent `json:"events"`
}

// NotificationEvent carries the value submitted for a claim
type NotificationEvent struct {
	ValueType SubmissionType `json:"valueType"`
	Value     string         `json:"value"`
}
