package membership

// Record is the durable unit of truth for one player's VIP state.
// ExpiresAt == 0 means the membership never expires.
type Record struct {
	Identifier string `json:"identifier"`
	Group      string `json:"group"`
	GrantedAt  int64  `json:"granted_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

// ValidAt reports whether the membership is active at the given Unix time.
func (r Record) ValidAt(nowUnix int64) bool {
	if r.ExpiresAt == 0 {
		return true
	}
	return nowUnix < r.ExpiresAt
}
