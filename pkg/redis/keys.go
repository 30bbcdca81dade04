package redis

import "strings"

const (
	keyNamespace      = "stn"
	idempotencyPrefix = "idempotency"
	counterPrefix     = "counter"
	lockPrefix        = "lock"
)

// namespaced joins the non-blank parts under the stn: prefix.
func namespaced(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespaced(idempotencyPrefix, scope, id)
}

// CounterKey builds e.g. stn:counter:picklist_seq:20250101.
func (c *Client) CounterKey(parts ...string) string {
	return namespaced(append([]string{counterPrefix}, parts...)...)
}

func (c *Client) LockKey(name string) string {
	return namespaced(lockPrefix, name)
}
