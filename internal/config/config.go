package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseDSN     string
	Env             string
	RoomListLimit   int
	SnapshotBacklog int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// Load 从环境变量读取配置，若当前目录存在 .env 则先行加载。
func Load() Config {
	_ = godotenv.Load()

	port := getenv("APP_PORT", "8080")
	dsn := getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=darkmatter port=5432 sslmode=disable TimeZone=UTC")
	env := getenv("APP_ENV", "dev")
	listLimitStr := getenv("ROOM_LIST_LIMIT", "100")
	backlogStr := getenv("SNAPSHOT_BACKLOG", "16")
	listLimit, _ := strconv.Atoi(listLimitStr)
	backlog, _ := strconv.Atoi(backlogStr)
	return Config{
		Port:            port,
		DatabaseDSN:     dsn,
		Env:             env,
		RoomListLimit:   listLimit,
		SnapshotBacklog: backlog,
	}
}
