// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/auth"
	"github.com/yachtlive/yacht/internal/chat"
	"github.com/yachtlive/yacht/internal/database"
	"github.com/yachtlive/yacht/internal/game"
	"github.com/yachtlive/yacht/internal/handlers"
	"github.com/yachtlive/yacht/internal/middleware"
	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/room"
	"github.com/yachtlive/yacht/internal/store"
)

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if priv, pub := os.Getenv("AUTH_PRIVATE_KEY_FILE"), os.Getenv("AUTH_PUBLIC_KEY_FILE"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			log.Fatalf("auth init: %v", err)
		}
	} else if err := auth.Init(); err != nil {
		log.Fatalf("auth init: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	if os.Getenv("STORE_BACKEND") == "memory" {
		st = store.NewMemoryStore()
		logger.Info("using in-memory document store")
	} else {
		rdb, err := store.ConnectRedis()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		st = store.NewRedisStore(rdb)
		logger.Info("using redis document store")
	}

	games := game.NewService(st, logger)
	rooms := room.NewService(st, logger)
	chats := chat.NewService(st, logger)

	rooms.CreateGame = games.CreateForRoom
	rooms.Announce = func(ctx context.Context, roomID uuid.UUID, text string) {
		if err := chats.System(ctx, roomID, text); err != nil {
			logger.WithError(err).WithField("room", roomID).Warn("failed to post system notice")
		}
	}

	srv := handlers.NewServer(logger, rooms, games, chats)

	// Finished games go to postgres when one is configured; the server runs
	// fine without it.
	if os.Getenv("PG_HOST") != "" {
		pool, err := database.Connect(ctx)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		archiver := database.NewArchiver(pool)
		if err := archiver.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		games.Archive = func(ctx context.Context, g *models.GameState) {
			if err := archiver.ArchiveGame(ctx, g); err != nil {
				logger.WithError(err).WithField("room", g.RoomID).Warn("failed to archive game")
			}
		}
		logger.Info("game archive enabled")
	}

	logHTTP := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	mux.Handle("/auth/guest", logHTTP(http.HandlerFunc(srv.GuestLoginHandler)))

	mux.Handle("/rooms/create", logHTTP(http.HandlerFunc(srv.CreateRoomHandler)))
	mux.Handle("/rooms/list", logHTTP(http.HandlerFunc(srv.ListRoomsHandler)))
	mux.Handle("/rooms/ws", logHTTP(srv.LobbyWSHandler()))
	mux.Handle("/rooms/ws/", logHTTP(srv.RoomWSHandler()))
	mux.Handle("/rooms/", logHTTP(http.HandlerFunc(srv.GetRoomHandler)))

	mux.Handle("/games/ws/", logHTTP(srv.GameWSHandler()))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
