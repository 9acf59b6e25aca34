package settings

import (
	"context"
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("system config not found")

// SystemConfig holds the installation-wide settings captured when the bot first
// sees the family group.
type SystemConfig struct {
	GroupChatID int64
	AdminUserID int64
	Timezone    string
	UpdatedAt   time.Time
}

// HasGroup reports whether the family group has been registered.
func (c *SystemConfig) HasGroup() bool {
	return c != nil && c.GroupChatID != 0
}

// Repository stores the single SystemConfig row.
type Repository interface {
	Get(ctx context.Context) (*SystemConfig, error)
	Save(ctx context.Context, cfg *SystemConfig) error
}
