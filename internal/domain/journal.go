package domain

import "time"

// Operation names recorded in the journal and published as events
const (
	OpCreateGraph    = "create_graph"
	OpDeleteGraph    = "delete_graph"
	OpCreateBrick    = "create_brick"
	OpDeleteBrick    = "delete_brick"
	OpLink           = "link"
	OpUnlinkPair     = "unlink_pair"
	OpUnlinkOne      = "unlink_one"
	OpFirewallAdd    = "firewall_rule_add"
	OpFirewallFlush  = "firewall_flush"
	OpFirewallReload = "firewall_reload"
	OpApplyTopology  = "apply_topology"
)

// JournalEntry records the outcome of one control operation
type JournalEntry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id,omitempty"`
	At          time.Time `json:"at"`
	Operation   string    `json:"operation"`
	Graph       string    `json:"graph"`
	Brick       string    `json:"brick,omitempty"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
}

// JournalFilter narrows a journal listing. Zero values match everything.
type JournalFilter struct {
	Graph     string
	Operation string
	Limit     int
}
