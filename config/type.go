package config

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	NATSURL  string `mapstructure:"nats_url"`
	RedisURL string `mapstructure:"redis_url"`

	// RoomCapacity caps how many connections may share one room.
	// Paired sessions use 2, group watch parties raise it (the public
	// deployment runs with 10).
	RoomCapacity int `mapstructure:"room_capacity"`
}
