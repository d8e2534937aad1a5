package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"chesshive/backend/internal/auth"
	"chesshive/backend/internal/config"
	"chesshive/backend/internal/models"
	"chesshive/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  user add <username> <role> [email]         create or update a directory entry
  token <username> <role> [email] [hours]    print a session token for local testing
  history <room> [limit]                     print the latest messages of a room`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	args := os.Args[1:]

	switch args[0] {
	case "user":
		if len(args) < 4 || args[1] != "add" {
			fmt.Println("Usage: admin user add <username> <role> [email]")
			os.Exit(1)
		}
		s := openStorage(cfg)
		var email string
		if len(args) > 4 {
			email = args[4]
		}
		if err := addUser(ctx, s, args[2], args[3], email); err != nil {
			log.Fatalf("Error adding user: %v", err)
		}
		fmt.Printf("User %s has been saved.\n", args[2])

	case "token":
		if len(args) < 3 {
			fmt.Println("Usage: admin token <username> <role> [email] [hours]")
			os.Exit(1)
		}
		var email string
		if len(args) > 3 {
			email = args[3]
		}
		hours := 24
		if len(args) > 4 {
			hours, err = strconv.Atoi(args[4])
			if err != nil || hours <= 0 {
				fmt.Println("Invalid duration. Please provide a positive number of hours.")
				os.Exit(1)
			}
		}
		token, err := auth.NewManager(cfg.Auth.JWTSecret).Issue(args[1], args[2], email, time.Duration(hours)*time.Hour)
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)

	case "history":
		if len(args) < 2 {
			fmt.Println("Usage: admin history <room> [limit]")
			os.Exit(1)
		}
		room, err := models.ParseRoom(args[1])
		if err != nil {
			log.Fatalf("Invalid room %q: %v", args[1], err)
		}
		var limit int
		if len(args) > 2 {
			limit, err = strconv.Atoi(args[2])
			if err != nil {
				fmt.Println("Invalid limit. Please provide an integer.")
				os.Exit(1)
			}
		}
		if err := printHistory(ctx, openStorage(cfg), room, limit); err != nil {
			log.Fatalf("Error reading history: %v", err)
		}

	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStorage(cfg *config.Config) *storage.Service {
	db, err := storage.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	// No redis needed for admin commands.
	return storage.NewStorageService(db, nil, storage.Options{})
}

func addUser(ctx context.Context, s storage.Storage, username, role, email string) error {
	if err := models.ValidateUsername(username); err != nil {
		return err
	}
	if !models.IsKnownRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	user, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		user = &models.User{Username: username}
	} else if err != nil {
		return err
	}
	user.Role = role
	if email != "" {
		user.Email = email
	}
	return s.SaveUser(ctx, user)
}

func printHistory(ctx context.Context, s storage.Storage, room models.Room, limit int) error {
	messages, err := s.QueryByRoom(ctx, room, models.Page{Limit: limit})
	if err != nil {
		return err
	}
	// Oldest first, like the chat window.
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		fmt.Printf("%s  #%d  %s -> %s: %s\n", m.Timestamp.Format(time.RFC3339), m.ID, m.Sender, m.Receiver, m.Message)
	}
	return nil
}
