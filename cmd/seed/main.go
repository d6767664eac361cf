package main

import (
	"log"
	"log/slog"

	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/models"
)

// Seeds a small fixture set for local development: three connected users,
// one private chat, and one group.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	users := []*models.User{
		{Username: "alice", Email: "alice@example.com", Status: models.StatusOffline},
		{Username: "bob", Email: "bob@example.com", Status: models.StatusOffline},
		{Username: "charlie", Email: "charlie@example.com", Status: models.StatusOffline},
	}

	for _, user := range users {
		if err := db.Where("username = ?", user.Username).FirstOrCreate(user).Error; err != nil {
			slog.Warn("User might already exist", "username", user.Username, "error", err)
		} else {
			slog.Info("Created user", "username", user.Username, "id", user.ID)
		}
	}

	alice, bob, charlie := users[0], users[1], users[2]

	// Everyone is connected to everyone; presence events flow both ways.
	pairs := [][2]*models.User{{alice, bob}, {alice, charlie}, {bob, charlie}}
	for _, pair := range pairs {
		if err := db.Model(pair[0]).Association("Connections").Append(pair[1]); err != nil {
			slog.Warn("Failed to connect users", "error", err)
		}
		if err := db.Model(pair[1]).Association("Connections").Append(pair[0]); err != nil {
			slog.Warn("Failed to connect users", "error", err)
		}
	}

	chat := &models.PrivateChat{Participants: []*models.User{alice, bob}}
	if err := db.Create(chat).Error; err != nil {
		slog.Warn("Failed to create private chat", "error", err)
	} else {
		slog.Info("Created private chat", "id", chat.ID)
	}

	group := &models.GroupChat{
		Name:        "general",
		Description: "Everyone",
		Members:     []*models.User{alice, bob, charlie},
		Admins:      []*models.User{alice},
	}
	if err := db.Create(group).Error; err != nil {
		slog.Warn("Failed to create group chat", "error", err)
	} else {
		slog.Info("Created group chat", "id", group.ID)
	}

	slog.Info("Database seeding completed!")
}
