package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/prepbot/internal/bot"
	"github.com/example/prepbot/internal/content"
	"github.com/example/prepbot/internal/database"
	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/internal/spaced_repetition"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	bank := quiz.NewBank()
	questionsDir := os.Getenv("QUESTIONS_DIR")
	if questionsDir == "" {
		questionsDir = "data/questions"
	}
	loaded, err := content.LoadDirectory(questionsDir, bank)
	if err != nil {
		log.Fatalf("Failed to load question bank from %s: %v", questionsDir, err)
	}
	log.Printf("Loaded %d questions from %s", loaded, questionsDir)

	sm2 := spaced_repetition.New()
	quizzes := quiz.NewManager(bank, sm2, database.NewStore())

	b, err := bot.New(bank, quizzes, sm2)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		b.Stop()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped successfully")
}
