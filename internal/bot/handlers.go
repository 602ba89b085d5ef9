package bot

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/prepbot/internal/excel"
	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/pkg/models"
)

var answerLabels = []string{"A", "B", "C", "D"}

// formatQuestion renders a question with its options. Pass total 0 to omit
// the position header (used for the daily practice broadcast).
func formatQuestion(q *models.QuizQuestion, index, total int) string {
	var sb strings.Builder
	if total > 0 {
		fmt.Fprintf(&sb, "Question %d/%d (%s, %s)\n\n", index+1, total, categoryTitle(string(q.Category)), q.Difficulty)
	}
	sb.WriteString(q.Question)
	sb.WriteString("\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%s) %s", answerLabels[i], opt)
	}
	return sb.String()
}

// answerKeyboard builds one row of A-D buttons with the given callback prefix
func answerKeyboard(prefix string, options int) tgbotapi.InlineKeyboardMarkup {
	row := make([]MenuButton, 0, options)
	for i := 0; i < options; i++ {
		row = append(row, MenuButton{
			Text:         answerLabels[i],
			CallbackData: fmt.Sprintf("%s:%d", prefix, i),
		})
	}
	return createKeyboard([][]MenuButton{row})
}

// categoryTitle turns a snake_case category value into a display name
func categoryTitle(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// --- Quiz flow ---

// handleQuizCommand starts the quiz setup dialog
func (b *Bot) handleQuizCommand(message *tgbotapi.Message) {
	b.sendCategoryMenu(message.Chat.ID)
}

func (b *Bot) sendCategoryMenu(chatID int64) {
	buttons := [][]MenuButton{
		{{Text: "Quantitative Aptitude", CallbackData: "qcat:" + string(models.QuantitativeAptitude)}},
		{{Text: "General Intelligence", CallbackData: "qcat:" + string(models.GeneralIntelligence)}},
		{{Text: "General Awareness", CallbackData: "qcat:" + string(models.GeneralAwareness)}},
		{{Text: "English Comprehension", CallbackData: "qcat:" + string(models.EnglishComprehension)}},
		{{Text: "🔀 Mixed", CallbackData: "qcat:" + string(models.Mixed)}},
	}
	b.reply(chatID, "Pick a category:", buttons)
}

func (b *Bot) sendDifficultyMenu(chatID int64, category string) {
	buttons := [][]MenuButton{
		{
			{Text: "Easy", CallbackData: "qdiff:" + category + ":" + string(models.Easy)},
			{Text: "Medium", CallbackData: "qdiff:" + category + ":" + string(models.Medium)},
			{Text: "Hard", CallbackData: "qdiff:" + category + ":" + string(models.Hard)},
		},
	}
	b.reply(chatID, "Pick a difficulty:", buttons)
}

// startQuiz creates a session and sends the first question
func (b *Bot) startQuiz(chatID, userID int64, category models.Category, difficulty models.Difficulty) {
	session, err := b.quizzes.CreateSession(userID, category, difficulty, b.config.QuestionsPerQuiz)
	if err != nil {
		b.reply(chatID, quizErrorText(err), nil)
		return
	}

	log.Printf("User %d started quiz %s (%s/%s, %d questions)",
		userID, session.SessionID, category, difficulty, len(session.Questions))

	b.sendCurrentQuestion(chatID, session.SessionID)
}

func (b *Bot) sendCurrentQuestion(chatID int64, sessionID string) {
	q, index, total, err := b.quizzes.CurrentQuestion(sessionID)
	if err != nil {
		b.reply(chatID, quizErrorText(err), nil)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatQuestion(q, index, total))
	msg.ReplyMarkup = answerKeyboard("ans:"+sessionID, len(q.Options))
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending question to chat %d: %v", chatID, err)
	}
}

// handleAnswer processes an answer button press for an active quiz
func (b *Bot) handleAnswer(chatID int64, sessionID string, answer int) {
	feedback, err := b.quizzes.SubmitAnswer(sessionID, answer)
	if err != nil && feedback == nil {
		b.reply(chatID, quizErrorText(err), nil)
		return
	}

	var buttons [][]MenuButton
	if b.openAiEnabled && feedback.QuestionID != "" {
		buttons = [][]MenuButton{
			{{Text: "💡 Explain more", CallbackData: "explain:" + feedback.QuestionID}},
		}
	}
	b.reply(chatID, formatFeedback(feedback), buttons)

	// Persistence failed after the quiz finished; the user still gets
	// their result but we tell them it was not recorded
	if err != nil {
		log.Printf("Error recording quiz %s: %v", sessionID, err)
		b.reply(chatID, "⚠️ Your result could not be saved. It will not appear in history or the leaderboard.", nil)
	}

	if feedback.QuizCompleted {
		b.showMainMenu(chatID)
		return
	}

	b.sendCurrentQuestion(chatID, sessionID)
}

func formatFeedback(f *models.AnswerFeedback) string {
	var sb strings.Builder
	if f.Correct {
		sb.WriteString("✅ Correct!")
	} else {
		fmt.Fprintf(&sb, "❌ Wrong. The correct answer is %s.", answerLabels[f.CorrectAnswer])
	}
	fmt.Fprintf(&sb, "\n\n%s", f.Explanation)
	fmt.Fprintf(&sb, "\n\nScore: %d/%d", f.CurrentScore, f.QuestionsCompleted)

	if f.QuizCompleted && f.FinalResult != nil {
		sb.WriteString("\n\n")
		sb.WriteString(formatResult(f.FinalResult))
	}
	return sb.String()
}

func formatResult(r *models.QuizResult) string {
	var sb strings.Builder
	sb.WriteString("🏁 Quiz complete!\n")
	fmt.Fprintf(&sb, "\nScore: %d/%d (%.0f%%)", r.CorrectAnswers, r.TotalQuestions, r.ScorePercentage)
	fmt.Fprintf(&sb, "\nTime: %s", formatDuration(r.TimeTaken))

	if len(r.WeakAreas) > 0 {
		fmt.Fprintf(&sb, "\n\nWeak areas: %s", strings.Join(r.WeakAreas, ", "))
	}
	if len(r.StrongAreas) > 0 {
		fmt.Fprintf(&sb, "\nStrong areas: %s", strings.Join(r.StrongAreas, ", "))
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&sb, "\n💡 %s", rec)
	}
	return sb.String()
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// handleCancelQuizCommand abandons the user's active quiz
func (b *Bot) handleCancelQuizCommand(message *tgbotapi.Message) {
	if b.quizzes.AbandonSession(message.From.ID) {
		b.reply(message.Chat.ID, "Quiz abandoned. Nothing was recorded.", b.MainMenuButtons())
	} else {
		b.reply(message.Chat.ID, "You have no active quiz.", b.MainMenuButtons())
	}
}

// handleDailyAnswer checks an answer to the broadcast practice question
func (b *Bot) handleDailyAnswer(chatID int64, questionID string, answer int) {
	q, ok := b.bank.Get(questionID)
	if !ok {
		b.reply(chatID, "That question is no longer available.", nil)
		return
	}

	if answer == q.CorrectAnswer {
		b.reply(chatID, "✅ Correct!\n\n"+q.Explanation, nil)
	} else {
		text := fmt.Sprintf("❌ Wrong. The correct answer is %s.\n\n%s", answerLabels[q.CorrectAnswer], q.Explanation)
		b.reply(chatID, text, nil)
	}
}

// quizErrorText maps quiz errors to user-facing messages
func quizErrorText(err error) string {
	switch {
	case errors.Is(err, quiz.ErrDuplicateSession):
		return "You already have a quiz in progress. Finish it or use /cancelquiz."
	case errors.Is(err, quiz.ErrInsufficientQuestions):
		return "No questions are available for that selection yet. Try another category."
	case errors.Is(err, quiz.ErrSessionNotFound):
		return "That quiz has expired. Start a new one with /quiz."
	case errors.Is(err, quiz.ErrSessionComplete):
		return "That quiz is already finished. Start a new one with /quiz."
	case errors.Is(err, quiz.ErrInvalidAnswer):
		return "Please use the answer buttons."
	case errors.Is(err, quiz.ErrInvalidFilter):
		return "Unknown category or difficulty."
	}
	log.Printf("Unexpected quiz error: %v", err)
	return "Something went wrong. Please try again."
}

// --- Review and planning ---

// loadProgressSlice fetches a user's progress records as a slice
func (b *Bot) loadProgressSlice(userID int64) ([]models.ProgressRecord, error) {
	byItem, err := b.store.LoadProgress(userID)
	if err != nil {
		return nil, err
	}
	records := make([]models.ProgressRecord, 0, len(byItem))
	for _, rec := range byItem {
		records = append(records, rec)
	}
	// Map iteration order is random; sort so the selector's stable sort
	// produces the same list on every call
	sort.Slice(records, func(i, j int) bool { return records[i].ItemID < records[j].ItemID })
	return records, nil
}

// handleReviewCommand lists the user's due items in priority order
func (b *Bot) handleReviewCommand(message *tgbotapi.Message) {
	user, err := b.users.GetOrCreate(message.From.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		log.Printf("Error loading user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not load your profile. Please try again.", nil)
		return
	}

	records, err := b.loadProgressSlice(user.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", user.ID, err)
		b.reply(message.Chat.ID, "Could not load your progress. Please try again.", nil)
		return
	}

	limit := user.ItemsPerDay
	if limit <= 0 {
		limit = b.config.DefaultItemsPerDay
	}

	due := b.selector.DueItems(records, limit, nil, time.Now())
	if len(due) == 0 {
		b.reply(message.Chat.ID, "🎉 Nothing is due right now. Take a quiz to learn something new!", b.MainMenuButtons())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d items to review:\n", len(due))
	for i, item := range due {
		fmt.Fprintf(&sb, "\n%d. %s (%s, %s)", i+1, item.ItemID, categoryTitle(string(item.ItemType)), item.Stage)
		if item.DaysOverdue > 0 {
			fmt.Fprintf(&sb, " — %d days overdue", item.DaysOverdue)
		}
	}
	sb.WriteString("\n\nStart a quiz to work through them, or narrow the list first.")
	b.reply(message.Chat.ID, sb.String(), [][]MenuButton{
		{{Text: "📝 Start quiz", CallbackData: "quiz_start"}},
		{
			{Text: "🆕 New", CallbackData: "rev:new"},
			{Text: "🔁 Review", CallbackData: "rev:review"},
		},
		{
			{Text: "⚠️ Weak areas", CallbackData: "rev:weak_areas"},
			{Text: "🔀 Mixed", CallbackData: "rev:mixed"},
		},
	})
}

// handleReviewSession lists due items narrowed to one session type
func (b *Bot) handleReviewSession(chatID, telegramID int64, sessionType models.SessionType) {
	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		log.Printf("Error loading user %d: %v", telegramID, err)
		b.reply(chatID, "Could not load your profile. Please try again.", nil)
		return
	}

	records, err := b.loadProgressSlice(user.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", user.ID, err)
		b.reply(chatID, "Could not load your progress. Please try again.", nil)
		return
	}

	limit := user.ItemsPerDay
	if limit <= 0 {
		limit = b.config.DefaultItemsPerDay
	}

	items := b.selector.SessionItems(records, sessionType, limit, time.Now())
	if len(items) == 0 {
		b.reply(chatID, fmt.Sprintf("Nothing due in the %s list right now.", sessionTypeTitle(sessionType)), b.MainMenuButtons())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s session — %d items:\n", sessionTypeTitle(sessionType), len(items))
	for i, item := range items {
		fmt.Fprintf(&sb, "\n%d. %s (%s, %s)", i+1, item.ItemID, categoryTitle(string(item.ItemType)), item.Stage)
		if item.DaysOverdue > 0 {
			fmt.Fprintf(&sb, " — %d days overdue", item.DaysOverdue)
		}
	}
	b.reply(chatID, sb.String(), [][]MenuButton{
		{{Text: "📝 Start quiz", CallbackData: "quiz_start"}},
	})
}

func sessionTypeTitle(sessionType models.SessionType) string {
	switch sessionType {
	case models.SessionNew:
		return "New items"
	case models.SessionReview:
		return "Review"
	case models.SessionWeakAreas:
		return "Weak areas"
	default:
		return "Mixed"
	}
}

// handlePlanCommand sends today's recommended study plan
func (b *Bot) handlePlanCommand(message *tgbotapi.Message) {
	user, err := b.users.GetOrCreate(message.From.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		log.Printf("Error loading user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not load your profile. Please try again.", nil)
		return
	}

	records, err := b.loadProgressSlice(user.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", user.ID, err)
		b.reply(message.Chat.ID, "Could not load your progress. Please try again.", nil)
		return
	}

	target := user.ItemsPerDay
	if target <= 0 {
		target = b.config.DefaultItemsPerDay
	}

	plan := b.advisor.SuggestPlan(records, target, time.Now())

	var sb strings.Builder
	sb.WriteString("📅 Today's study plan\n")
	fmt.Fprintf(&sb, "\nDue now: %d (daily target %d)\n", plan.CurrentDue, plan.DailyTarget)

	sb.WriteString("\nSessions:")
	for _, s := range plan.RecommendedSessions {
		fmt.Fprintf(&sb, "\n• %s — %d items", categoryTitle(string(s.Type)), s.Items)
	}

	if len(plan.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "\n\nFocus areas: %s", strings.Join(plan.FocusAreas, ", "))
	}

	switch plan.DifficultyAdjustment {
	case models.AdjustIncrease:
		sb.WriteString("\n\n📈 You're doing great, try harder questions.")
	case models.AdjustDecrease:
		sb.WriteString("\n\n📉 Consider easier questions to rebuild confidence.")
	}

	b.reply(message.Chat.ID, sb.String(), nil)
}

// handleStatsCommand shows aggregate learning statistics
func (b *Bot) handleStatsCommand(message *tgbotapi.Message) {
	records, err := b.loadProgressSlice(message.From.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not load your progress. Please try again.", nil)
		return
	}

	stats := b.advisor.Stats(records, time.Now())

	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n")
	fmt.Fprintf(&sb, "\nItems tracked: %d", stats.TotalItems)
	fmt.Fprintf(&sb, "\nNew: %d | Learning: %d | Review: %d | Mastered: %d",
		stats.NewItems, stats.LearningItems, stats.ReviewItems, stats.MasteredItems)
	fmt.Fprintf(&sb, "\nDue now: %d", stats.DueItems)
	fmt.Fprintf(&sb, "\nTotal reviews: %d", stats.TotalReviews)
	fmt.Fprintf(&sb, "\nAccuracy: %.1f%%", stats.AccuracyRate*100)

	b.reply(message.Chat.ID, sb.String(), b.MainMenuButtons())
}

// handleHistoryCommand shows the user's recent quiz results
func (b *Bot) handleHistoryCommand(message *tgbotapi.Message) {
	history, err := b.results.GetUserHistory(message.From.ID, b.config.HistorySize)
	if err != nil {
		log.Printf("Error loading history for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not load your history. Please try again.", nil)
		return
	}

	if len(history) == 0 {
		b.reply(message.Chat.ID, "No quizzes yet. Start one with /quiz!", b.MainMenuButtons())
		return
	}

	var sb strings.Builder
	sb.WriteString("🕘 Recent quizzes\n")
	for _, r := range history {
		fmt.Fprintf(&sb, "\n%s — %s/%s: %d/%d (%.0f%%)",
			r.CompletedAt.Format("Jan 2"),
			categoryTitle(string(r.Category)), r.Difficulty,
			r.CorrectAnswers, r.TotalQuestions, r.ScorePercentage)
	}
	b.reply(message.Chat.ID, sb.String(), nil)
}

// handleLeaderboardCommand shows the weekly leaderboard
func (b *Bot) handleLeaderboardCommand(message *tgbotapi.Message) {
	entries, err := b.results.GetWeeklyLeaderboard(b.config.LeaderboardSize)
	if err != nil {
		log.Printf("Error loading leaderboard: %v", err)
		b.reply(message.Chat.ID, "Could not load the leaderboard. Please try again.", nil)
		return
	}

	if len(entries) == 0 {
		b.reply(message.Chat.ID, "No quizzes were completed this week. Be the first!", b.MainMenuButtons())
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 Weekly leaderboard\n")
	for i, e := range entries {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		name := b.displayUser(e.UserID)
		fmt.Fprintf(&sb, "\n%s %s — best %.0f%%, avg %.0f%% over %d quizzes",
			rank, name, e.BestScore, e.AvgScore, e.Quizzes)
	}
	b.reply(message.Chat.ID, sb.String(), nil)
}

// displayUser resolves a user id to a human name for the leaderboard
func (b *Bot) displayUser(userID int64) string {
	user, err := b.users.GetByTelegramID(userID)
	if err != nil {
		return fmt.Sprintf("User %d", userID)
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return fmt.Sprintf("User %d", userID)
}

// handleExportCommand sends the user their progress as an Excel file
func (b *Bot) handleExportCommand(message *tgbotapi.Message) {
	records, err := b.loadProgressSlice(message.From.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not load your progress. Please try again.", nil)
		return
	}

	if len(records) == 0 {
		b.reply(message.Chat.ID, "Nothing to export yet. Take a quiz first!", b.MainMenuButtons())
		return
	}

	export := b.advisor.Export(message.From.ID, records, time.Now())

	path := filepath.Join(os.TempDir(), fmt.Sprintf("progress_%d.xlsx", message.From.ID))
	if err := excel.ExportProgress(&export, path); err != nil {
		log.Printf("Error writing export for user %d: %v", message.From.ID, err)
		b.reply(message.Chat.ID, "Could not build the export file. Please try again.", nil)
		return
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "Your learning progress"
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Error sending export to user %d: %v", message.From.ID, err)
	}
}

// --- Settings ---

// handleSettingsCommand shows the settings menu
func (b *Bot) handleSettingsCommand(message *tgbotapi.Message) {
	b.sendSettingsMenu(message.Chat.ID, message.From.ID)
}

func (b *Bot) sendSettingsMenu(chatID, userID int64) {
	user, err := b.users.GetByTelegramID(userID)
	text := "⚙️ Settings"
	if err == nil {
		text = fmt.Sprintf("⚙️ Settings\n\nReminder hour: %d:00 UTC\nDaily target: %d items",
			user.NotificationHour, user.ItemsPerDay)
	}

	buttons := [][]MenuButton{
		{{Text: "⏰ Reminder hour", CallbackData: "set_hour_menu"}},
		{{Text: "🎯 Daily target", CallbackData: "set_items_menu"}},
		{{Text: "« Back", CallbackData: "menu"}},
	}
	b.reply(chatID, text, buttons)
}

func (b *Bot) sendHourMenu(chatID int64) {
	var rows [][]MenuButton
	var row []MenuButton
	for hour := 5; hour <= 22; hour++ {
		row = append(row, MenuButton{
			Text:         fmt.Sprintf("%d:00", hour),
			CallbackData: fmt.Sprintf("set_hour:%d", hour),
		})
		if len(row) == 6 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	b.reply(chatID, "When should I send review reminders? (UTC)", rows)
}

func (b *Bot) sendItemsMenu(chatID int64) {
	buttons := [][]MenuButton{
		{
			{Text: "10", CallbackData: "set_items:10"},
			{Text: "20", CallbackData: "set_items:20"},
			{Text: "30", CallbackData: "set_items:30"},
			{Text: "50", CallbackData: "set_items:50"},
		},
	}
	b.reply(chatID, "How many items per day?", buttons)
}

// --- Admin commands ---

// handleImportCommand asks the admin for a question file
func (b *Bot) handleImportCommand(message *tgbotapi.Message) {
	b.awaitingImport[message.Chat.ID] = true
	b.reply(message.Chat.ID,
		"Send an .xlsx or .csv file with questions.\nColumns: category, difficulty, question, option A-D, answer (A-D), explanation.",
		nil)
}

// handleImportDocument downloads an uploaded file and imports its questions
func (b *Bot) handleImportDocument(message *tgbotapi.Message) {
	delete(b.awaitingImport, message.Chat.ID)

	doc := message.Document
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		log.Printf("Error resolving file %s: %v", doc.FileID, err)
		b.reply(message.Chat.ID, "Could not download the file. Please try again.", nil)
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("import_%d%s", message.From.ID, filepath.Ext(doc.FileName)))
	if err := downloadFile(url, path); err != nil {
		log.Printf("Error downloading file %s: %v", doc.FileID, err)
		b.reply(message.Chat.ID, "Could not download the file. Please try again.", nil)
		return
	}
	defer os.Remove(path)

	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportQuestions(b.bank, config)
	if err != nil {
		log.Printf("Error importing questions: %v", err)
		b.reply(message.Chat.ID, fmt.Sprintf("Import failed: %v", err), nil)
		return
	}

	text := fmt.Sprintf("Import finished: %d added, %d skipped of %d rows.",
		result.Added, result.Skipped, result.TotalProcessed)
	if len(result.Errors) > 0 {
		limit := len(result.Errors)
		if limit > 5 {
			limit = 5
		}
		text += "\n\n" + strings.Join(result.Errors[:limit], "\n")
	}
	b.reply(message.Chat.ID, text, nil)
}

func downloadFile(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// handleGenerateCommand generates questions through the OpenAI API.
// Usage: /generate <category> <difficulty> [count]
func (b *Bot) handleGenerateCommand(message *tgbotapi.Message) {
	if !b.openAiEnabled {
		b.reply(message.Chat.ID, "Question generation is disabled: OPENAI_API_KEY is not set.", nil)
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		b.reply(message.Chat.ID, "Usage: /generate <category> <difficulty> [count]", nil)
		return
	}

	category, err := models.ParseCategory(args[0])
	if err != nil || category == models.Mixed {
		b.reply(message.Chat.ID, "Unknown category. Use one of the question bank categories.", nil)
		return
	}

	difficulty, err := models.ParseDifficulty(args[1])
	if err != nil {
		b.reply(message.Chat.ID, "Unknown difficulty. Use easy, medium or hard.", nil)
		return
	}

	count := 5
	if len(args) > 2 {
		if n, err := strconv.Atoi(args[2]); err == nil && n > 0 {
			count = n
		}
	}

	b.reply(message.Chat.ID, "Generating questions, this can take a moment...", nil)

	questions, err := b.chatGPT.GenerateQuestions(category, difficulty, count)
	if err != nil {
		log.Printf("Error generating questions: %v", err)
		b.reply(message.Chat.ID, fmt.Sprintf("Generation failed: %v", err), nil)
		return
	}

	added, errs := b.bank.AddAll(questions)
	text := fmt.Sprintf("Added %d generated questions to the bank.", added)
	if len(errs) > 0 {
		text += fmt.Sprintf(" %d were rejected.", len(errs))
	}
	b.reply(message.Chat.ID, text, nil)
}

// --- Callback routing ---

// handleCallbackQuery routes inline keyboard button presses
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	// Acknowledge so the button stops showing a spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Error acknowledging callback: %v", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	data := callback.Data

	switch {
	case data == "menu":
		b.showMainMenu(chatID)
	case data == "quiz_start":
		b.sendCategoryMenu(chatID)
	case data == "review":
		b.handleReviewCommand(&tgbotapi.Message{From: callback.From, Chat: callback.Message.Chat})
	case data == "plan":
		b.handlePlanCommand(&tgbotapi.Message{From: callback.From, Chat: callback.Message.Chat})
	case data == "stats":
		b.handleStatsCommand(&tgbotapi.Message{From: callback.From, Chat: callback.Message.Chat})
	case data == "leaderboard":
		b.handleLeaderboardCommand(&tgbotapi.Message{From: callback.From, Chat: callback.Message.Chat})
	case data == "settings":
		b.sendSettingsMenu(chatID, userID)
	case data == "set_hour_menu":
		b.sendHourMenu(chatID)
	case data == "set_items_menu":
		b.sendItemsMenu(chatID)
	case strings.HasPrefix(data, "set_hour:"):
		b.handleSetHour(chatID, userID, strings.TrimPrefix(data, "set_hour:"))
	case strings.HasPrefix(data, "set_items:"):
		b.handleSetItems(chatID, userID, strings.TrimPrefix(data, "set_items:"))
	case strings.HasPrefix(data, "qcat:"):
		b.sendDifficultyMenu(chatID, strings.TrimPrefix(data, "qcat:"))
	case strings.HasPrefix(data, "qdiff:"):
		parts := strings.Split(strings.TrimPrefix(data, "qdiff:"), ":")
		if len(parts) != 2 {
			return
		}
		b.startQuiz(chatID, userID, models.Category(parts[0]), models.Difficulty(parts[1]))
	case strings.HasPrefix(data, "ans:"):
		sessionID, answer, ok := splitAnswerCallback(strings.TrimPrefix(data, "ans:"))
		if !ok {
			return
		}
		b.handleAnswer(chatID, sessionID, answer)
	case strings.HasPrefix(data, "daily:"):
		questionID, answer, ok := splitAnswerCallback(strings.TrimPrefix(data, "daily:"))
		if !ok {
			return
		}
		b.handleDailyAnswer(chatID, questionID, answer)
	case strings.HasPrefix(data, "explain:"):
		b.handleExplain(chatID, strings.TrimPrefix(data, "explain:"))
	case strings.HasPrefix(data, "rev:"):
		b.handleReviewSession(chatID, userID, models.SessionType(strings.TrimPrefix(data, "rev:")))
	default:
		log.Printf("Unknown callback data: %s", data)
	}
}

// splitAnswerCallback parses an "<id>:<answer>" payload. The answer index is
// always the segment after the last colon, so imported question IDs that
// themselves contain colons survive the round trip.
func splitAnswerCallback(payload string) (string, int, bool) {
	sep := strings.LastIndex(payload, ":")
	if sep <= 0 || sep == len(payload)-1 {
		return "", 0, false
	}
	answer, err := strconv.Atoi(payload[sep+1:])
	if err != nil {
		return "", 0, false
	}
	return payload[:sep], answer, true
}

// handleExplain sends an AI-generated explanation for a just-answered question
func (b *Bot) handleExplain(chatID int64, questionID string) {
	if !b.openAiEnabled {
		return
	}
	question, ok := b.bank.Get(questionID)
	if !ok {
		b.reply(chatID, "That question is no longer available.", nil)
		return
	}
	b.reply(chatID, "💡 "+b.chatGPT.ExplainAnswer(&question), nil)
}

func (b *Bot) handleSetHour(chatID, userID int64, value string) {
	hour, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	if err := b.users.SetNotificationHour(userID, hour); err != nil {
		log.Printf("Error setting notification hour for user %d: %v", userID, err)
		b.reply(chatID, "Could not save the setting. Please try again.", nil)
		return
	}
	b.reply(chatID, fmt.Sprintf("Reminders will arrive around %d:00 UTC.", hour), b.MainMenuButtons())
}

func (b *Bot) handleSetItems(chatID, userID int64, value string) {
	items, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	if err := b.users.SetItemsPerDay(userID, items); err != nil {
		log.Printf("Error setting items per day for user %d: %v", userID, err)
		b.reply(chatID, "Could not save the setting. Please try again.", nil)
		return
	}
	b.reply(chatID, fmt.Sprintf("Daily target set to %d items.", items), b.MainMenuButtons())
}
