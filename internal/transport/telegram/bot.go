package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackStartQuiz = "start_quiz"
	callbackRestart   = "restart"
	callbackDonate    = "donate"
	callbackAbout     = "about_author"
	answerPrefix      = "answer_"
)

// Sender is the subset of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options configure the static parts of the bot.
type Options struct {
	AssetsDir    string
	WelcomeImage string
	DonateImage  string
	AboutText    string
	Logger       *log.Logger
}

// Bot adapts Telegram updates to quiz events and renders the resulting directives.
type Bot struct {
	api     Sender
	service *app.QuizService
	opts    Options
	logger  *log.Logger
}

func NewBot(api Sender, service *app.QuizService, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{api: api, service: service, opts: opts, logger: logger}
}

// Run handles updates until ctx is cancelled or the channel is closed, then
// waits for in-flight updates. Each update gets its own goroutine; the quiz
// service serializes events of the same user.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.Command() == "start" || strings.TrimSpace(msg.Text) == startButtonText {
		b.sendWelcome(chatID)
		return
	}
	if err := b.send(menuMessage(chatID, menuText)); err != nil {
		b.logger.Printf("send menu to chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Printf("answer callback: %v", err)
	}
	if callback.Message == nil || callback.From == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	userID := strconv.FormatInt(callback.From.ID, 10)
	data := callback.Data

	var ev domain.Event
	switch {
	case data == callbackStartQuiz:
		ev = domain.StartRequested(userID)
	case data == callbackRestart:
		ev = domain.RestartRequested(userID)
	case strings.HasPrefix(data, answerPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, answerPrefix))
		if err != nil {
			idx = -1
		}
		ev = domain.OptionChosen(userID, idx)
	case data == callbackDonate:
		b.sendDonate(chatID)
		return
	case data == callbackAbout:
		if err := b.send(tgbotapi.NewMessage(chatID, b.opts.AboutText)); err != nil {
			b.logger.Printf("send about to chat %d: %v", chatID, err)
		}
		return
	default:
		b.logger.Printf("unknown callback %q from user %s", data, userID)
		return
	}

	r := &renderer{bot: b, chatID: chatID, messageID: callback.Message.MessageID}
	b.service.Dispatch(ctx, ev, r.emit)
}

func (b *Bot) sendWelcome(chatID int64) {
	if err := b.sendPhotoOrText(chatID, b.opts.WelcomeImage, welcomeText, welcomeKeyboard()); err != nil {
		b.logger.Printf("send welcome to chat %d: %v", chatID, err)
	}
	if err := b.send(menuMessage(chatID, menuText)); err != nil {
		b.logger.Printf("send menu to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendDonate(chatID int64) {
	if err := b.sendPhotoOrText(chatID, b.opts.DonateImage, donateText, nil); err != nil {
		b.logger.Printf("send donate to chat %d: %v", chatID, err)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	_, err := b.api.Send(c)
	return err
}
