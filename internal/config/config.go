package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"roomqueue/internal/domain"
)

type RoomSeed struct {
	ID       int    `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Capacity int    `mapstructure:"capacity"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// GrantDelay postpones the turn grant for a freshly queued sole
	// entry so the client can finish attaching its listeners. Zero is
	// valid and grants immediately.
	GrantDelay time.Duration `mapstructure:"grant_delay"`
	// TurnTTL evicts an Active holder that never signals completion.
	// Zero disables server-side eviction.
	TurnTTL time.Duration `mapstructure:"turn_ttl"`

	OpenHour  int        `mapstructure:"open_hour"`
	CloseHour int        `mapstructure:"close_hour"`
	AdminIDs  []string   `mapstructure:"admin_ids"`
	Rooms     []RoomSeed `mapstructure:"rooms"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("grant_delay", "1s")
	v.SetDefault("turn_ttl", "3m")
	v.SetDefault("open_hour", 9)
	v.SetDefault("close_hour", 22)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = defaultRooms()
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Rooms: %d\n", cfg.Mode, cfg.Port, len(cfg.Rooms))
	return &cfg, nil
}

func defaultRooms() []RoomSeed {
	rooms := make([]RoomSeed, 0, 6)
	for i := 1; i <= 6; i++ {
		rooms = append(rooms, RoomSeed{
			ID:       i,
			Name:     fmt.Sprintf("Study Room %d", i),
			Capacity: domain.MaxMembers + 1,
		})
	}
	return rooms
}

// SeededRooms converts the config seed into domain rooms.
func (c *Config) SeededRooms() []domain.Room {
	rooms := make([]domain.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		rooms = append(rooms, domain.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity})
	}
	return rooms
}
