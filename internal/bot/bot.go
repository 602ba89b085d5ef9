package bot

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/prepbot/internal/ai"
	"github.com/example/prepbot/internal/database"
	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/internal/scheduler"
	"github.com/example/prepbot/internal/spaced_repetition"
	"github.com/example/prepbot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api              *tgbotapi.BotAPI
	token            string
	store            *database.Store
	users            *database.UserRepository
	results          *database.QuizResultRepository
	bank             *quiz.Bank
	quizzes          *quiz.Manager
	selector         *spaced_repetition.Selector
	advisor          *spaced_repetition.Advisor
	scheduler        *scheduler.Scheduler
	schedulerEnabled bool
	openAiEnabled    bool
	chatGPT          *ai.ChatGPT
	adminUserIDs     map[int64]bool
	awaitingImport   map[int64]bool
	config           *BotConfig
}

// New creates a new bot instance
func New(bank *quiz.Bank, quizzes *quiz.Manager, sm2 *spaced_repetition.SM2) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	openAiEnabled := os.Getenv("OPENAI_API_KEY") != ""
	var chatGPT *ai.ChatGPT
	if openAiEnabled {
		var err error
		chatGPT, err = ai.New()
		if err != nil {
			log.Printf("Warning: Unable to initialize OpenAI client: %v", err)
			openAiEnabled = false
		}
	}

	schedulerEnabled := os.Getenv("ENABLE_SCHEDULER") != "false"

	bot := &Bot{
		token:            token,
		store:            database.NewStore(),
		users:            database.NewUserRepository(),
		results:          database.NewQuizResultRepository(),
		bank:             bank,
		quizzes:          quizzes,
		selector:         spaced_repetition.NewSelector(sm2),
		advisor:          spaced_repetition.NewAdvisor(sm2),
		schedulerEnabled: schedulerEnabled,
		openAiEnabled:    openAiEnabled,
		chatGPT:          chatGPT,
		adminUserIDs:     make(map[int64]bool),
		awaitingImport:   make(map[int64]bool),
		config:           DefaultConfig(),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Start connects to Telegram and processes updates until the channel closes
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b, b.quizzes, b.bank)
		b.scheduler.Start()
		log.Println("Reminder scheduler started")
	}

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	itemForm := "items"
	if count == 1 {
		itemForm = "item"
	}

	text := fmt.Sprintf("You have %d %s due for review! Use /review to start.", count, itemForm)
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "Start review", CallbackData: "review"}},
	})

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
		return err
	}
	return nil
}

// SendPracticeQuestion implements the scheduler.Notifier interface
func (b *Bot) SendPracticeQuestion(userID int64, question models.QuizQuestion) error {
	text := "📚 Question of the day\n\n" + formatQuestion(&question, 0, 0)
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = answerKeyboard("daily:"+question.ID, len(question.Options))

	_, err := b.api.Send(msg)
	return err
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
		} else if b.awaitingImport[update.Message.Chat.ID] && update.Message.Document != nil {
			b.handleImportDocument(update.Message)
		} else {
			b.reply(update.Message.Chat.ID, "I don't understand. Use /menu to show the main menu.", b.MainMenuButtons())
		}
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleCommand routes slash commands
func (b *Bot) handleCommand(message *tgbotapi.Message) {
	// Keep the user row fresh for notifications and the leaderboard
	if _, err := b.users.GetOrCreate(message.From.ID, message.From.UserName, message.From.FirstName, message.From.LastName); err != nil {
		log.Printf("Error upserting user %d: %v", message.From.ID, err)
	}
	if err := b.users.TouchActivity(message.From.ID); err != nil {
		log.Printf("Error touching activity for user %d: %v", message.From.ID, err)
	}

	switch message.Command() {
	case "start":
		b.handleStartCommand(message)
	case "menu":
		b.showMainMenu(message.Chat.ID)
	case "quiz":
		b.handleQuizCommand(message)
	case "review":
		b.handleReviewCommand(message)
	case "plan":
		b.handlePlanCommand(message)
	case "stats":
		b.handleStatsCommand(message)
	case "history":
		b.handleHistoryCommand(message)
	case "leaderboard":
		b.handleLeaderboardCommand(message)
	case "export":
		b.handleExportCommand(message)
	case "cancelquiz":
		b.handleCancelQuizCommand(message)
	case "settings":
		b.handleSettingsCommand(message)
	case "help":
		b.handleStartCommand(message)
	case "import":
		if b.isAdmin(message.From.ID) {
			b.handleImportCommand(message)
		} else {
			b.reply(message.Chat.ID, "This command is only available for administrators.", b.MainMenuButtons())
		}
	case "generate":
		if b.isAdmin(message.From.ID) {
			b.handleGenerateCommand(message)
		} else {
			b.reply(message.Chat.ID, "This command is only available for administrators.", b.MainMenuButtons())
		}
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /menu to show the main menu.", b.MainMenuButtons())
	}
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	welcomeText := `Welcome to SSC-CGL Prep Bot! 🎓

Available commands:
/quiz - Start a practice quiz
/review - Review items that are due
/plan - Get today's study plan
/stats - Show your learning statistics
/history - Recent quiz results
/leaderboard - Weekly leaderboard
/export - Export your progress
/cancelquiz - Abandon the current quiz
/settings - Notification and study settings
/menu - Show main menu`

	b.reply(message.Chat.ID, welcomeText, b.MainMenuButtons())
}

// showMainMenu sends the main menu keyboard
func (b *Bot) showMainMenu(chatID int64) {
	b.reply(chatID, "What would you like to do?", b.MainMenuButtons())
}

// MainMenuButtons returns the top level menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📝 Quiz", CallbackData: "quiz_start"},
			{Text: "🔁 Review", CallbackData: "review"},
		},
		{
			{Text: "📅 Study plan", CallbackData: "plan"},
			{Text: "📊 Stats", CallbackData: "stats"},
		},
		{
			{Text: "🏆 Leaderboard", CallbackData: "leaderboard"},
			{Text: "⚙️ Settings", CallbackData: "settings"},
		},
	}
}

// reply sends a plain message with an optional keyboard
func (b *Bot) reply(chatID int64, text string, buttons [][]MenuButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	if buttons != nil {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}
