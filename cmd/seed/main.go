package main

import (
	"context"
	"log"
	"os"
	"time"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/entity"
	"career-chat-be/internal/repository/specification"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type demoTurn struct {
	role    string
	content string
}

// demo conversations for local frontend work
var demoSessions = []struct {
	title string
	turns []demoTurn
}{
	{
		title: "Becoming a Data Analyst",
		turns: []demoTurn{
			{constant.ChatMessageRoleUser, "I work in retail and want to move into data analysis. Where should I start?"},
			{constant.ChatMessageRoleAssistant, "A practical path:\n- Learn spreadsheet modelling and SQL\n- Take an intro statistics course\n- Build two portfolio projects from public retail data"},
		},
	},
	{
		title: "Cloud Certifications",
		turns: []demoTurn{
			{constant.ChatMessageRoleUser, "Which cloud certification should I take first?"},
			{constant.ChatMessageRoleAssistant, "Start with a foundational exam from the provider your target employers use, then move to an associate level architect track."},
		},
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	email := getEnv("SEED_EMAIL", "demo@career-chat.local")
	password := getEnv("SEED_PASSWORD", "demo1234")

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		log.Fatal("Error: lookup failed:", err)
	}
	if existing != nil {
		log.Printf("User '%s' already exists, skipping...", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	name := "Demo User"
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &entity.User{Id: uuid.New(), Email: email, Name: &name, PasswordHash: string(hash), CreatedAt: now}

	if err := uow.Begin(ctx); err != nil {
		log.Fatal(err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		log.Fatal("Error: creating user:", err)
	}

	at := now
	for _, demo := range demoSessions {
		session := &entity.ChatSession{Id: uuid.New(), UserId: user.Id, Title: demo.title, CreatedAt: at, UpdatedAt: at}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			log.Fatal("Error: creating session:", err)
		}
		for _, turn := range demo.turns {
			at = at.Add(time.Second)
			msg := &entity.ChatMessage{
				Id:            uuid.New(),
				ChatSessionId: session.Id,
				UserId:        user.Id,
				Role:          turn.role,
				Content:       turn.content,
				CreatedAt:     at,
			}
			if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
				log.Fatal("Error: creating message:", err)
			}
		}
		if err := uow.ChatSessionRepository().Touch(ctx, session.Id, at); err != nil {
			log.Fatal(err)
		}
		log.Printf("Created session: %s", demo.title)
	}

	if err := uow.Commit(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Seeding completed! Log in as %s", email)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
